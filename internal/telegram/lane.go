package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// lanes queues messages per chat. Each chat with pending messages has exactly
// one worker, which handles them in arrival order; different chats run in
// parallel.
type lanes struct {
	mu     sync.Mutex
	queues map[int64][]*tgbotapi.Message
	wg     sync.WaitGroup
	handle func(*tgbotapi.Message)
}

func newLanes(handle func(*tgbotapi.Message)) *lanes {
	return &lanes{
		queues: make(map[int64][]*tgbotapi.Message),
		handle: handle,
	}
}

// push enqueues m behind earlier messages of the same chat, starting a
// worker when the chat has none.
func (l *lanes) push(m *tgbotapi.Message) {
	chatID := m.Chat.ID

	l.mu.Lock()
	queue, running := l.queues[chatID]
	l.queues[chatID] = append(queue, m)
	l.mu.Unlock()

	if running {
		return
	}
	l.wg.Add(1)
	go l.drain(chatID)
}

// drain handles the chat's queue until it is empty, then retires the lane.
// The queue key stays present while the worker runs.
func (l *lanes) drain(chatID int64) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		queue := l.queues[chatID]
		if len(queue) == 0 {
			delete(l.queues, chatID)
			l.mu.Unlock()
			return
		}
		m := queue[0]
		queue[0] = nil
		l.queues[chatID] = queue[1:]
		l.mu.Unlock()

		l.handle(m)
	}
}

// wait blocks until every queued message has been handled.
func (l *lanes) wait() {
	l.wg.Wait()
}
