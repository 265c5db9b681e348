package sequencer

import (
	"math/rand"

	"go-gridseq/debug"
	"go-gridseq/theory"
)

// Editor is the command front door: it builds commands against the active
// sequence and runs them through the history, so every edit the UI makes
// is reversible. The scale manager is an optional capability: when nil,
// snapping-dependent behavior is skipped, never faulted.
type Editor struct {
	engine    *PlaybackEngine
	Selection *SelectionManager
	History   *CommandHistory
	Scale     *theory.ScaleManager
	Scope     Scope

	rng *rand.Rand
}

// NewEditor wires an editor over the engine's sequences.
func NewEditor(engine *PlaybackEngine, scale *theory.ScaleManager, historyDepth int, rng *rand.Rand) *Editor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Editor{
		engine:    engine,
		Selection: NewSelectionManager(),
		History:   NewCommandHistory(historyDepth),
		Scale:     scale,
		rng:       rng,
	}
}

// Seq returns the sequence edits currently apply to.
func (ed *Editor) Seq() *Sequence {
	return ed.engine.ActiveSequence()
}

func (ed *Editor) snapper() theory.PitchSnapper {
	if ed.Scale == nil {
		return nil
	}
	return ed.Scale
}

// CycleScope advances the transform scope.
func (ed *Editor) CycleScope() {
	ed.Scope = ed.Scope.Next()
}

// hasTargets guards bulk commands: an empty working set returns early
// instead of pushing a no-op onto the history.
func (ed *Editor) hasTargets() bool {
	if len(ResolveTargetNotes(ed.Seq(), ed.Selection, ed.Scope)) == 0 {
		debug.Log("edit", "no targets in scope %s", ed.Scope)
		return false
	}
	return true
}

// ToggleNote flips a slot through the history.
func (ed *Editor) ToggleNote(step float64, pitch int) {
	ed.History.Execute(&ToggleNoteCommand{Seq: ed.Seq(), Ref: NoteRef{Step: step, Pitch: pitch}})
}

// AddNote inserts a note with explicit attributes.
func (ed *Editor) AddNote(step float64, pitch, velocity int, duration float64) {
	ed.History.Execute(&AddNoteCommand{Seq: ed.Seq(), Note: NoteSnapshot{
		Step: SnapStep(step), Pitch: pitch, Velocity: velocity,
		Duration: duration, OriginalPitch: pitch,
	}})
}

// RemoveNote deletes a note if present.
func (ed *Editor) RemoveNote(step float64, pitch int) bool {
	if _, ok := ed.Seq().NoteAt(step, pitch); !ok {
		return false
	}
	ed.History.Execute(&RemoveNoteCommand{Seq: ed.Seq(), Ref: NoteRef{Step: step, Pitch: pitch}})
	return true
}

// UpdateNote patches velocity/duration (zero = keep).
func (ed *Editor) UpdateNote(step float64, pitch, velocity int, duration float64) bool {
	if _, ok := ed.Seq().NoteAt(step, pitch); !ok {
		return false
	}
	ed.History.Execute(&UpdateNoteCommand{
		Seq: ed.Seq(), Ref: NoteRef{Step: step, Pitch: pitch},
		Velocity: velocity, Duration: duration,
	})
	return true
}

// MoveNote relocates one note, selection following.
func (ed *Editor) MoveNote(from, to NoteRef) bool {
	if _, ok := ed.Seq().NoteAt(from.Step, from.Pitch); !ok {
		return false
	}
	ed.History.Execute(&MoveNotesCommand{
		Seq: ed.Seq(), Selection: ed.Selection,
		Moves: []NoteMove{{From: from, To: to}},
	})
	return true
}

// Nudge shifts the working set by delta steps.
func (ed *Editor) Nudge(delta float64) bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewNudgeCommand(ed.Seq(), ed.Selection, ed.Scope, delta))
	return true
}

// Transpose shifts the working set by a semitone delta.
func (ed *Editor) Transpose(semitones int) bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewTransposeCommand(ed.Seq(), ed.Selection, ed.Scope, semitones, ed.snapper()))
	return true
}

// Reverse mirrors the working set in time.
func (ed *Editor) Reverse() bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewReverseCommand(ed.Seq(), ed.Selection, ed.Scope))
	return true
}

// Quantize rounds the working set to whole steps.
func (ed *Editor) Quantize() bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewQuantizeCommand(ed.Seq(), ed.Selection, ed.Scope))
	return true
}

// Randomize rolls the given attribute over the working set.
func (ed *Editor) Randomize(kind RandomizeKind) bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewRandomizeCommand(ed.Seq(), ed.Selection, ed.Scope, kind, ed.snapper(), ed.rng))
	return true
}

// ApplyFigure redistributes the working set onto a rhythmic figure.
func (ed *Editor) ApplyFigure(fig Figure) bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewApplyFigureCommand(ed.Seq(), ed.Selection, ed.Scope, fig))
	return true
}

// ChordQuantize snaps the working set onto chord tones.
func (ed *Editor) ChordQuantize(chord theory.Chord) bool {
	if !ed.hasTargets() {
		return false
	}
	ed.History.Execute(NewChordQuantizeCommand(ed.Seq(), ed.Selection, ed.Scope, chord))
	return true
}

// Undo reverses the last edit; false when the stack is empty.
func (ed *Editor) Undo() bool { return ed.History.Undo() }

// Redo re-applies the last undone edit; false when the stack is empty.
func (ed *Editor) Redo() bool { return ed.History.Redo() }
