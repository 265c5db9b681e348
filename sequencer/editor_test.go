package sequencer

import (
	"math/rand"
	"testing"
	"time"

	"go-gridseq/midi"
	"go-gridseq/timing"
)

func newTestEditor(t *testing.T, seqs ...*Sequence) *Editor {
	t.Helper()
	if len(seqs) == 0 {
		seqs = []*Sequence{NewSequence()}
	}
	s := timing.NewScheduler(timing.Config{PollInterval: time.Hour})
	engine := NewPlaybackEngine(s, midi.Nop{}, seqs...)
	return NewEditor(engine, nil, 0, rand.New(rand.NewSource(1)))
}

func TestBulkEditGuardSkipsEmptyWorkingSet(t *testing.T) {
	ed := newTestEditor(t)

	if ed.Nudge(1) {
		t.Error("Nudge on an empty sequence reported success")
	}
	ed.Scope = ScopeSelected
	ed.Seq().ToggleNote(0, 60)
	if ed.Transpose(1) {
		t.Error("Transpose with empty selection reported success")
	}
	if ed.History.CanUndo() {
		t.Error("a no-op command was pushed onto the history")
	}
}

func TestEditorUndoRedoRoundTrip(t *testing.T) {
	ed := newTestEditor(t)

	ed.ToggleNote(2, 60)
	if ed.Seq().NoteCount() != 1 {
		t.Fatal("toggle did not land")
	}
	if !ed.Undo() {
		t.Fatal("undo failed")
	}
	if ed.Seq().NoteCount() != 0 {
		t.Error("undo left the note in place")
	}
	if !ed.Redo() {
		t.Fatal("redo failed")
	}
	if _, ok := ed.Seq().NoteAt(2, 60); !ok {
		t.Error("redo did not restore the note")
	}
}

func TestEditorSelectionScopesTransforms(t *testing.T) {
	ed := newTestEditor(t)
	ed.AddNote(0, 60, 100, 1)
	ed.AddNote(4, 48, 100, 1)

	ed.Scope = ScopeSelected
	ed.Selection.Add(NoteRef{Step: 0, Pitch: 60})
	if !ed.Transpose(12) {
		t.Fatal("transpose with a selection failed")
	}

	if _, ok := ed.Seq().NoteAt(0, 72); !ok {
		t.Error("selected note not transposed")
	}
	if _, ok := ed.Seq().NoteAt(4, 48); !ok {
		t.Error("unselected note transposed")
	}
	// the selection tracks the transformed slot
	if !ed.Selection.Selected(NoteRef{Step: 0, Pitch: 72}) {
		t.Error("selection did not follow the transpose")
	}
}

func TestEditorEditsTargetActiveSequence(t *testing.T) {
	a, b := NewSequence(), NewSequence()
	ed := newTestEditor(t, a, b)

	ed.ToggleNote(0, 60)
	ed.engine.SetActive(1)
	ed.ToggleNote(0, 64)

	if a.NoteCount() != 1 || b.NoteCount() != 1 {
		t.Errorf("counts = %d/%d, want one note in each sequence", a.NoteCount(), b.NoteCount())
	}
	if _, ok := b.NoteAt(0, 64); !ok {
		t.Error("edit after SetActive landed in the wrong sequence")
	}
}

func TestEditorRandomizeIsUndoable(t *testing.T) {
	ed := newTestEditor(t)
	for i := 0; i < 4; i++ {
		ed.Seq().ToggleNote(float64(i), 60)
	}
	before := contents(ed.Seq())

	if !ed.Randomize(RandomVelocity) {
		t.Fatal("randomize failed")
	}
	if !ed.Undo() {
		t.Fatal("undo failed")
	}
	got := contents(ed.Seq())
	for snap := range before {
		if !got[snap] {
			t.Errorf("undo missing %+v", snap)
		}
	}
}

func TestEditorCycleScope(t *testing.T) {
	ed := newTestEditor(t)
	ed.CycleScope()
	if ed.Scope != ScopeSelected {
		t.Errorf("scope = %v after one cycle", ed.Scope)
	}
	ed.CycleScope()
	ed.CycleScope()
	if ed.Scope != ScopeAll {
		t.Errorf("scope = %v after full cycle, want all", ed.Scope)
	}
}
