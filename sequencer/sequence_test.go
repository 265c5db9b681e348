package sequencer

import (
	"reflect"
	"testing"
)

// contents snapshots the whole store for exact comparisons.
func contents(seq *Sequence) map[NoteSnapshot]bool {
	out := make(map[NoteSnapshot]bool)
	for _, step := range seq.Steps() {
		for _, n := range seq.NotesAt(step) {
			out[snapshotOf(step, n)] = true
		}
	}
	return out
}

func addNote(t *testing.T, seq *Sequence, step float64, pitch, vel int, dur float64) {
	t.Helper()
	ok := seq.AddNote(step, &Note{Pitch: pitch, Velocity: vel, Duration: dur, OriginalPitch: pitch})
	if !ok {
		t.Fatalf("AddNote(%v, %d) refused", step, pitch)
	}
}

func TestSnapStepGrid(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.0, 0.0},
		{0.1, 1.0 / 6},
		{0.49, 0.5},
		{63.83, 63 + 5.0/6},
		{1.0 / 3, 2.0 / 6},
	}
	for _, tc := range cases {
		if got := SnapStep(tc.in); got != tc.want {
			t.Errorf("SnapStep(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	// snapping twice is stable
	if SnapStep(SnapStep(0.1)) != SnapStep(0.1) {
		t.Error("SnapStep not idempotent")
	}
}

func TestToggleNoteIdempotence(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 2, 60, 100, 1)
	before := contents(seq)

	seq.ToggleNote(4, 72)
	if seq.NoteCount() != 2 {
		t.Fatalf("count = %d after toggle on, want 2", seq.NoteCount())
	}
	seq.ToggleNote(4, 72)
	if !reflect.DeepEqual(contents(seq), before) {
		t.Error("double toggle did not restore original content")
	}
}

func TestAddNoteOccupiedIsNoop(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 0, 60, 100, 1)
	if seq.AddNote(0, &Note{Pitch: 60, Velocity: 50, Duration: 2}) {
		t.Fatal("AddNote into an occupied slot succeeded")
	}
	n, _ := seq.NoteAt(0, 60)
	if n.Velocity != 100 || n.Duration != 1 {
		t.Error("occupant mutated by a no-op add")
	}
}

func TestRemoveNoteDropsEmptySteps(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 3, 60, 100, 1)
	seq.RemoveNote(3, 60)
	if len(seq.Steps()) != 0 {
		t.Errorf("empty step persisted: %v", seq.Steps())
	}
}

func TestLoopMarkerValidation(t *testing.T) {
	seq := NewSequence()
	if err := seq.SetLoop(8, 8); err == nil {
		t.Error("end == start accepted")
	}
	if err := seq.SetLoop(8, 4); err == nil {
		t.Error("end < start accepted")
	}
	if err := seq.SetLoop(-1, 4); err == nil {
		t.Error("negative start accepted")
	}
	if got := seq.Loop(); got.Start != 0 || got.End != DefaultLength {
		t.Errorf("rejected SetLoop mutated state: %+v", got)
	}
	if err := seq.SetLoop(4, 12); err != nil {
		t.Fatalf("valid loop rejected: %v", err)
	}
}

func TestChannelValidation(t *testing.T) {
	seq := NewSequence()
	if err := seq.SetChannel(16); err == nil {
		t.Error("channel 16 accepted")
	}
	if err := seq.SetChannel(-1); err == nil {
		t.Error("channel -1 accepted")
	}
	if seq.Channel() != 0 {
		t.Error("rejected SetChannel mutated state")
	}
	if err := seq.SetChannel(15); err != nil {
		t.Errorf("channel 15 rejected: %v", err)
	}
}

func TestMoveNotesDisplacesOccupant(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 0, 60, 100, 1)
	addNote(t, seq, 4, 60, 90, 2)

	evicted := seq.MoveNote(NoteRef{Step: 0, Pitch: 60}, NoteRef{Step: 4, Pitch: 60})
	if len(evicted) != 1 || evicted[0].Velocity != 90 {
		t.Fatalf("evicted = %+v, want the velocity-90 occupant", evicted)
	}
	n, ok := seq.NoteAt(4, 60)
	if !ok || n.Velocity != 100 {
		t.Error("moved note did not take the slot")
	}
	if seq.NoteCount() != 1 {
		t.Errorf("count = %d, want 1", seq.NoteCount())
	}
}

func TestMoveNotesThroughEachOther(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 0, 60, 100, 1)
	addNote(t, seq, 1, 62, 90, 1)

	// swap slots in one batch; phase one lifts both out first
	evicted := seq.MoveNotes([]NoteMove{
		{From: NoteRef{Step: 0, Pitch: 60}, To: NoteRef{Step: 1, Pitch: 62}},
		{From: NoteRef{Step: 1, Pitch: 62}, To: NoteRef{Step: 0, Pitch: 60}},
	})
	if len(evicted) != 0 {
		t.Fatalf("swap evicted %+v, want none", evicted)
	}
	a, _ := seq.NoteAt(1, 62)
	b, _ := seq.NoteAt(0, 60)
	if a == nil || b == nil || a.Velocity != 100 || b.Velocity != 90 {
		t.Error("batch swap lost a note")
	}
}

func TestCopyNotesAnchorsAtMinimum(t *testing.T) {
	seq := NewSequence()
	addNote(t, seq, 2, 60, 100, 1)
	addNote(t, seq, 3, 64, 90, 1)

	created := seq.CopyNotes([]NoteRef{{Step: 2, Pitch: 60}, {Step: 3, Pitch: 64}}, 8, 48)
	if len(created) != 2 {
		t.Fatalf("created %d copies, want 2", len(created))
	}
	if _, ok := seq.NoteAt(8, 48); !ok {
		t.Error("anchor copy missing at (8, 48)")
	}
	if _, ok := seq.NoteAt(9, 52); !ok {
		t.Error("offset copy missing at (9, 52)")
	}
}

func TestChangeNotification(t *testing.T) {
	seq := NewSequence()
	fires := 0
	remove := seq.OnChange(func() { fires++ })

	seq.ToggleNote(0, 60)
	if fires != 1 {
		t.Fatalf("fires = %d after toggle, want 1", fires)
	}

	// bulk edit notifies once
	seq.BeginEdit()
	seq.ToggleNote(1, 60)
	seq.ToggleNote(2, 60)
	seq.EndEdit()
	if fires != 2 {
		t.Errorf("fires = %d after bulk edit, want 2", fires)
	}

	remove()
	seq.ToggleNote(3, 60)
	if fires != 2 {
		t.Error("removed listener still notified")
	}
}
