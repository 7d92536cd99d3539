// Package telegram serves the chatbot over a Telegram long-polling bot.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	welcomeMessage = `¡Bienvenido! 👋
Soy el asistente virtual. Escríbeme tu consulta y te responderé.
Usa /help para ver los comandos disponibles.`

	helpMessage = `Comandos disponibles:
/start - Iniciar el bot
/help - Mostrar esta ayuda
/clear - Borrar el historial de la conversación

Cualquier otro mensaje se responde como una consulta.`

	clearedMessage     = "Historial borrado."
	nothingToClear     = "No hay historial que borrar."
	unknownCommand     = "Comando desconocido. Usa /help para ver los comandos disponibles."
	unsupportedMessage = "Por ahora solo entiendo mensajes de texto."
	pollTimeoutSeconds = 60
)

// Sender delivers messages to Telegram. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Responder produces the assistant's reply for a session.
type Responder interface {
	Reply(ctx context.Context, sessionID, raw string) string
}

// HistoryClearer resets a session's history. Reports whether it existed.
type HistoryClearer interface {
	Clear(id string) bool
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	bot      Responder
	sessions HistoryClearer
	logger   *zap.Logger
}

// New connects to the Bot API with token.
func New(token string, bot Responder, sessions HistoryClearer, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return newBotWithAPI(api, bot, sessions, logger), nil
}

func newBotWithAPI(api *tgbotapi.BotAPI, bot Responder, sessions HistoryClearer, logger *zap.Logger) *Bot {
	b := newBot(api, bot, sessions, logger)
	b.api = api
	return b
}

func newBot(sender Sender, bot Responder, sessions HistoryClearer, logger *zap.Logger) *Bot {
	return &Bot{
		sender:   sender,
		bot:      bot,
		sessions: sessions,
		logger:   logger,
	}
}

// SessionID maps a chat to its conversation session.
func SessionID(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

// Start polls for updates until ctx is cancelled. Messages of one chat are
// handled one at a time in arrival order; chats are handled concurrently.
// Messages already queued are answered before Start returns.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	chats := newLanes(func(m *tgbotapi.Message) {
		b.handleMessage(ctx, m)
	})
	defer chats.wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			chats.push(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	content := message.Text
	if content == "" {
		content = message.Caption
	}
	if content == "" {
		b.sendMessage(message.Chat.ID, unsupportedMessage, 0)
		return
	}

	sessionID := SessionID(message.Chat.ID)
	reply := b.bot.Reply(ctx, sessionID, content)

	b.logger.Debug("Replying to Telegram message",
		zap.String("session_id", sessionID),
		zap.Int("message_id", message.MessageID))
	b.sendMessage(message.Chat.ID, reply, message.MessageID)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.sendMessage(message.Chat.ID, welcomeMessage, 0)
	case "help":
		b.sendMessage(message.Chat.ID, helpMessage, 0)
	case "clear":
		b.handleClear(message)
	default:
		b.sendMessage(message.Chat.ID, unknownCommand, 0)
	}
}

func (b *Bot) handleClear(message *tgbotapi.Message) {
	if b.sessions.Clear(SessionID(message.Chat.ID)) {
		b.sendMessage(message.Chat.ID, clearedMessage, 0)
		return
	}
	b.sendMessage(message.Chat.ID, nothingToClear, 0)
}

func (b *Bot) sendMessage(chatID int64, text string, replyTo int) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
