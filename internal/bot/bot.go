// Package bot is the conversation engine: it turns one user message into one
// reply, using the session's history as context.
package bot

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/xaenox/bizchat/internal/classifier"
	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/models"
	"github.com/xaenox/bizchat/internal/nlp"
	"github.com/xaenox/bizchat/internal/session"
	"go.uber.org/zap"
)

const (
	DefaultEmptyInputMessage = "Por favor, escribe algo para que pueda ayudarte."
	DefaultApologyMessage    = "Lo siento, no he entendido tu mensaje. ¿Podrías reformularlo?"
)

// Messages are the fixed replies used when no intent answers.
type Messages struct {
	EmptyInput string
	Apology    string
}

// Options tunes the engine.
type Options struct {
	Messages Messages
	// ContextTurns limits how many past turns enter the contextual input.
	// Zero uses the whole session history.
	ContextTurns int
}

type Chatbot struct {
	sessions *session.Manager
	embedder embedding.Embedder
	matcher  *classifier.Matcher
	lexical  *classifier.Lexical
	opts     Options
	logger   *zap.Logger

	pick func(n int) int
	now  func() time.Time
}

func New(
	sessions *session.Manager,
	embedder embedding.Embedder,
	matcher *classifier.Matcher,
	lexical *classifier.Lexical,
	opts Options,
	logger *zap.Logger,
) *Chatbot {
	if opts.Messages.EmptyInput == "" {
		opts.Messages.EmptyInput = DefaultEmptyInputMessage
	}
	if opts.Messages.Apology == "" {
		opts.Messages.Apology = DefaultApologyMessage
	}
	return &Chatbot{
		sessions: sessions,
		embedder: embedder,
		matcher:  matcher,
		lexical:  lexical,
		opts:     opts,
		logger:   logger,
		pick:     rand.IntN,
		now:      time.Now,
	}
}

// Reply resolves sessionID, creating the session on first contact, and
// answers raw within it. Failures degrade to the apology message.
func (b *Chatbot) Reply(ctx context.Context, sessionID, raw string) string {
	sess, err := b.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		b.logger.Error("Failed to open session",
			zap.Error(err),
			zap.String("session_id", sessionID))
		return b.opts.Messages.Apology
	}
	return b.Respond(ctx, sess, raw)
}

// Respond answers raw and records the turn in the session history. Empty
// input is answered with a prompt and leaves the history untouched.
func (b *Chatbot) Respond(ctx context.Context, sess *session.Session, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return b.opts.Messages.EmptyInput
	}

	sess.Lock()
	defer sess.Unlock()

	kb := sess.KnowledgeBase()
	normalized := nlp.Normalize(raw)
	input := b.contextualInput(sess.History().Turns(), raw, normalized)

	var match classifier.Match
	vec, err := b.embedder.Embed(ctx, input)
	if err != nil {
		b.logger.Warn("Embedding failed, using lexical matching",
			zap.Error(err),
			zap.String("session_id", sess.ID))
		match = b.lexical.Match(normalized, kb)
	} else {
		match = b.matcher.Match(vec, kb)
	}

	response := b.choose(match)
	sess.Record(models.Turn{User: raw, Bot: response, At: b.now()})

	b.logger.Debug("Message answered",
		zap.String("session_id", sess.ID),
		zap.String("intent", match.Intent.Tag),
		zap.Float64("score", match.Score),
		zap.Bool("fallback", match.Fallback),
		zap.Int("history", sess.History().Len()))
	return response
}

// Classify matches text against kb without touching any session.
func (b *Chatbot) Classify(ctx context.Context, text string, kb *knowledge.Base) (classifier.Match, error) {
	vec, err := b.embedder.Embed(ctx, nlp.Normalize(text))
	if err != nil {
		return classifier.Match{}, err
	}
	return b.matcher.Match(vec, kb), nil
}

// contextualInput renders the recent turns as a transcript ending with the
// new message, normalized for embedding. Without history it is the plain
// normalized input.
func (b *Chatbot) contextualInput(turns []models.Turn, raw, normalized string) string {
	if len(turns) == 0 {
		return normalized
	}
	if n := b.opts.ContextTurns; n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString("user: ")
		sb.WriteString(t.User)
		sb.WriteString("\nassistant: ")
		sb.WriteString(t.Bot)
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(raw)

	return nlp.Normalize(sb.String())
}

func (b *Chatbot) choose(match classifier.Match) string {
	if !match.Found() || len(match.Intent.Responses) == 0 {
		return b.opts.Messages.Apology
	}
	return match.Intent.Responses[b.pick(len(match.Intent.Responses))]
}
