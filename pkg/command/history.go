package command

import (
	"errors"
	"time"
)

// ErrNothingToUndo and ErrNothingToRedo are returned at the ends of the
// history.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// HistoryEntry is an executed command.
type HistoryEntry struct {
	Command   Command
	Timestamp time.Time
}

// History is a bounded linear undo/redo stack. Executing a new command
// discards everything that was undone.
type History struct {
	done    []*HistoryEntry
	undone  []*HistoryEntry
	maxSize int
}

// NewHistory creates a History keeping at most maxSize undoable commands.
func NewHistory(maxSize int) *History {
	if maxSize < 1 {
		maxSize = 1
	}
	return &History{maxSize: maxSize}
}

// Do executes c and records it. A failed command is not recorded.
func (h *History) Do(c Command) error {
	if err := c.Execute(); err != nil {
		return err
	}
	h.done = append(h.done, &HistoryEntry{Command: c, Timestamp: time.Now()})
	if len(h.done) > h.maxSize {
		h.done = h.done[1:]
	}
	h.undone = nil
	return nil
}

// Undo reverts the most recent command.
func (h *History) Undo() (Command, error) {
	if len(h.done) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	e.Command.Undo()
	h.undone = append(h.undone, e)
	return e.Command, nil
}

// Redo reapplies the most recently undone command.
func (h *History) Redo() (Command, error) {
	if len(h.undone) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.undone[len(h.undone)-1]
	if err := e.Command.Redo(); err != nil {
		return nil, err
	}
	h.undone = h.undone[:len(h.undone)-1]
	e.Timestamp = time.Now()
	h.done = append(h.done, e)
	return e.Command, nil
}

// CanUndo reports whether Undo has anything to revert.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether Redo has anything to reapply.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Len returns the number of undoable commands.
func (h *History) Len() int { return len(h.done) }

// MaxSize returns the maximum number of undoable commands.
func (h *History) MaxSize() int { return h.maxSize }

// List returns the undoable commands, most recent first.
func (h *History) List() []*HistoryEntry {
	result := make([]*HistoryEntry, len(h.done))
	for i, entry := range h.done {
		result[len(h.done)-1-i] = entry
	}
	return result
}

// Clear drops all recorded commands.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}
