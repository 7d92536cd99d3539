package session

import "github.com/xaenox/bizchat/internal/models"

// DefaultMaxHistory is the number of turns a session remembers.
const DefaultMaxHistory = 5

// History is a bounded FIFO of conversation turns. It is not safe for
// concurrent use; Session guards it.
type History struct {
	turns []models.Turn
	max   int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &History{
		turns: make([]models.Turn, 0, max),
		max:   max,
	}
}

// Append adds a turn, evicting the oldest one when the history is full.
func (h *History) Append(turn models.Turn) {
	if len(h.turns) == h.max {
		copy(h.turns, h.turns[1:])
		h.turns = h.turns[:h.max-1]
	}
	h.turns = append(h.turns, turn)
}

// Turns returns a copy of the turns, oldest first.
func (h *History) Turns() []models.Turn {
	out := make([]models.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Max returns the capacity.
func (h *History) Max() int {
	return h.max
}

// Clear drops every turn.
func (h *History) Clear() {
	h.turns = h.turns[:0]
}
