package sequencer

import "go-gridseq/debug"

// Command is one reversible edit. A command captures, by the start of its
// first Execute, value copies of everything it will touch, so Undo
// reconstructs state exactly rather than approximately.
type Command interface {
	Execute()
	Undo()
	Description() string
}

// DefaultHistoryDepth bounds the undo stack; oldest entries are evicted
// past it.
const DefaultHistoryDepth = 128

// CommandHistory owns the undo and redo stacks. Executing a new command
// clears the redo stack: redo history is invalidated by any new branch of
// edits.
type CommandHistory struct {
	undo  []Command
	redo  []Command
	depth int
}

// NewCommandHistory creates a history bounded to depth entries (the
// default when depth <= 0).
func NewCommandHistory(depth int) *CommandHistory {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &CommandHistory{depth: depth}
}

// Execute runs the command and records it. Discarded commands need no
// cleanup: their effect is already materialized in the sequence.
func (h *CommandHistory) Execute(cmd Command) {
	cmd.Execute()
	if len(h.undo) >= h.depth {
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, cmd)
	h.redo = h.redo[:0]
	debug.Log("hist", "execute: %s (undo=%d)", cmd.Description(), len(h.undo))
}

// Undo reverses the most recent command. Returns false when there is
// nothing to undo.
func (h *CommandHistory) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	cmd.Undo()
	h.redo = append(h.redo, cmd)
	debug.Log("hist", "undo: %s", cmd.Description())
	return true
}

// Redo re-applies the most recently undone command. Returns false when
// there is nothing to redo.
func (h *CommandHistory) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	cmd.Execute()
	h.undo = append(h.undo, cmd)
	debug.Log("hist", "redo: %s", cmd.Description())
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (h *CommandHistory) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *CommandHistory) CanRedo() bool { return len(h.redo) > 0 }

// LastDescription names the command Undo would reverse, for status lines.
func (h *CommandHistory) LastDescription() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Description()
}

// Clear drops both stacks.
func (h *CommandHistory) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
