package session

import (
	"fmt"
	"testing"

	"github.com/xaenox/bizchat/internal/models"
)

func turn(i int) models.Turn {
	return models.Turn{User: fmt.Sprintf("u%d", i), Bot: fmt.Sprintf("b%d", i)}
}

func TestHistory_EvictsOldest(t *testing.T) {
	t.Parallel()

	h := NewHistory(DefaultMaxHistory)
	for i := 0; i <= DefaultMaxHistory; i++ {
		h.Append(turn(i))
	}

	if h.Len() != DefaultMaxHistory {
		t.Fatalf("Len = %d, want %d", h.Len(), DefaultMaxHistory)
	}
	turns := h.Turns()
	if turns[0].User != "u1" {
		t.Errorf("oldest = %q, want u1", turns[0].User)
	}
	if last := turns[len(turns)-1]; last.User != fmt.Sprintf("u%d", DefaultMaxHistory) {
		t.Errorf("newest = %q", last.User)
	}
}

func TestHistory_KeepsOrderUnderChurn(t *testing.T) {
	t.Parallel()

	h := NewHistory(3)
	for i := 0; i < 20; i++ {
		h.Append(turn(i))
	}
	got := h.Turns()
	for i, want := range []string{"u17", "u18", "u19"} {
		if got[i].User != want {
			t.Errorf("turns[%d] = %q, want %q", i, got[i].User, want)
		}
	}
}

func TestHistory_TurnsIsACopy(t *testing.T) {
	t.Parallel()

	h := NewHistory(2)
	h.Append(turn(0))
	snapshot := h.Turns()
	snapshot[0].User = "mutated"

	if h.Turns()[0].User != "u0" {
		t.Error("mutating a snapshot changed the history")
	}
}

func TestHistory_ClearAndDefaults(t *testing.T) {
	t.Parallel()

	h := NewHistory(0)
	if h.Max() != DefaultMaxHistory {
		t.Errorf("Max = %d, want %d", h.Max(), DefaultMaxHistory)
	}
	h.Append(turn(0))
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len after Clear = %d", h.Len())
	}
	h.Append(turn(1))
	if h.Len() != 1 {
		t.Errorf("history unusable after Clear")
	}
}
