package sequencer

import (
	"fmt"
	"sort"
	"sync"

	"go-gridseq/debug"
)

// LoopMarkers is the [Start, End) step range a sequence cycles through
// during playback and the default scope for loop-targeted transforms.
type LoopMarkers struct {
	Start float64
	End   float64
}

// DefaultLength is the wrap point for new sequences, in steps.
const DefaultLength = 64.0

// Sequence is a sparse note store: step position → notes at that step,
// unique by pitch. Steps with no notes are removed from the map. All
// mutating operations notify subscribers synchronously after the mutation
// completes; bulk edits suspend notification and emit one change.
//
// The store is mutex-guarded: the playback engine reads it from the
// scheduler's poll goroutine while editor commands mutate it from the UI
// goroutine. Listeners run outside the lock, so they may call back in.
type Sequence struct {
	mu      sync.Mutex
	notes   map[float64][]*Note
	loop    LoopMarkers
	channel int
	length  float64

	listeners []func()
	editDepth int
	dirty     bool
}

// NewSequence creates an empty sequence on MIDI channel 0 looping over its
// whole default length.
func NewSequence() *Sequence {
	return &Sequence{
		notes:  make(map[float64][]*Note),
		loop:   LoopMarkers{Start: 0, End: DefaultLength},
		length: DefaultLength,
	}
}

// OnChange registers a change listener, returning a remove func.
func (s *Sequence) OnChange(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners[idx] = nil
	}
}

// notify fires the listeners, or marks the pending bulk edit dirty. The
// callbacks run with the lock released.
func (s *Sequence) notify() {
	s.mu.Lock()
	if s.editDepth > 0 {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

// BeginEdit suspends change notification until the matching EndEdit, which
// fires a single change if anything mutated. Edits nest.
func (s *Sequence) BeginEdit() {
	s.mu.Lock()
	s.editDepth++
	s.mu.Unlock()
}

func (s *Sequence) EndEdit() {
	s.mu.Lock()
	if s.editDepth == 0 {
		s.mu.Unlock()
		return
	}
	s.editDepth--
	fire := s.editDepth == 0 && s.dirty
	if fire {
		s.dirty = false
	}
	s.mu.Unlock()
	if fire {
		s.notify()
	}
}

// Loop returns the loop markers.
func (s *Sequence) Loop() LoopMarkers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop replaces the loop markers. Malformed markers are a hard failure:
// the mutation is rejected with state unchanged.
func (s *Sequence) SetLoop(start, end float64) error {
	start, end = SnapStep(start), SnapStep(end)
	if start < 0 || end <= start {
		return fmt.Errorf("invalid loop markers [%v, %v)", start, end)
	}
	s.mu.Lock()
	s.loop = LoopMarkers{Start: start, End: end}
	if end > s.length {
		s.length = end
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Channel returns the MIDI channel (0-15).
func (s *Sequence) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// SetChannel rejects channels outside 0-15.
func (s *Sequence) SetChannel(ch int) error {
	if ch < 0 || ch > 15 {
		return fmt.Errorf("midi channel %d out of range 0-15", ch)
	}
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
	s.notify()
	return nil
}

// Length is the sequence end, the wrap point for whole-sequence nudges.
func (s *Sequence) Length() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.length
}

// SetLength grows or shrinks the sequence end; it cannot cut into the loop.
func (s *Sequence) SetLength(length float64) error {
	length = SnapStep(length)
	s.mu.Lock()
	if length < s.loop.End {
		end := s.loop.End
		s.mu.Unlock()
		return fmt.Errorf("length %v shorter than loop end %v", length, end)
	}
	s.length = length
	s.mu.Unlock()
	s.notify()
	return nil
}

// noteAt finds the live note at (step, pitch). Lock held by caller.
func (s *Sequence) noteAt(step float64, pitch int) *Note {
	for _, n := range s.notes[step] {
		if n.Pitch == pitch {
			return n
		}
	}
	return nil
}

// addNote inserts without notifying. Lock held by caller.
func (s *Sequence) addNote(step float64, n *Note) bool {
	n.Pitch = clampPitch(n.Pitch)
	n.Velocity = clampVelocity(n.Velocity)
	if n.Duration <= 0 {
		n.Duration = 1
	}
	if s.noteAt(step, n.Pitch) != nil {
		return false
	}
	s.notes[step] = append(s.notes[step], n)
	return true
}

// removeNote deletes without notifying. Lock held by caller.
func (s *Sequence) removeNote(step float64, pitch int) (*Note, bool) {
	ns := s.notes[step]
	for i, n := range ns {
		if n.Pitch == pitch {
			s.notes[step] = append(ns[:i], ns[i+1:]...)
			if len(s.notes[step]) == 0 {
				delete(s.notes, step)
			}
			return n, true
		}
	}
	return nil, false
}

// NotesAt returns value copies of the notes at a (snapped) step position,
// sorted by pitch. Copies keep the playback goroutine's reads disjoint
// from editor mutations.
func (s *Sequence) NotesAt(step float64) []*Note {
	step = SnapStep(step)
	s.mu.Lock()
	src := s.notes[step]
	out := make([]*Note, 0, len(src))
	for _, n := range src {
		cp := *n
		out = append(out, &cp)
	}
	s.mu.Unlock()

	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pitch < out[j].Pitch })
	return out
}

// NoteAt returns the live note occupying (step, pitch), if any. Callers
// share the editor goroutine; playback reads through NotesAt copies.
func (s *Sequence) NoteAt(step float64, pitch int) (*Note, bool) {
	step = SnapStep(step)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.noteAt(step, pitch)
	return n, n != nil
}

// Steps returns every occupied step position in ascending order.
func (s *Sequence) Steps() []float64 {
	s.mu.Lock()
	out := make([]float64, 0, len(s.notes))
	for step := range s.notes {
		out = append(out, step)
	}
	s.mu.Unlock()
	sort.Float64s(out)
	return out
}

// NoteCount returns the total number of stored notes.
func (s *Sequence) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ns := range s.notes {
		count += len(ns)
	}
	return count
}

// AddNote stores a note at (step, pitch). Idempotent no-op if the slot is
// occupied; reports whether a note was added.
func (s *Sequence) AddNote(step float64, n *Note) bool {
	step = SnapStep(step)
	s.mu.Lock()
	added := s.addNote(step, n)
	s.mu.Unlock()
	if added {
		s.notify()
	}
	return added
}

// RemoveNote deletes the note at (step, pitch), returning it. Empty steps
// are dropped from the map.
func (s *Sequence) RemoveNote(step float64, pitch int) (*Note, bool) {
	step = SnapStep(step)
	s.mu.Lock()
	n, ok := s.removeNote(step, pitch)
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return n, ok
}

// ToggleNote adds a default note at the slot, or removes the existing one.
// Two toggles with the same arguments return the sequence to its original
// content.
func (s *Sequence) ToggleNote(step float64, pitch int) {
	step = SnapStep(step)
	s.mu.Lock()
	if s.noteAt(step, pitch) != nil {
		s.removeNote(step, pitch)
	} else {
		s.addNote(step, &Note{
			Pitch:         pitch,
			Velocity:      100,
			Duration:      1,
			OriginalPitch: pitch,
		})
	}
	s.mu.Unlock()
	s.notify()
}

// UpdateNote patches velocity and/or duration in place. Zero values leave
// the attribute unchanged. Reports whether the note existed.
func (s *Sequence) UpdateNote(step float64, pitch int, velocity int, duration float64) bool {
	step = SnapStep(step)
	s.mu.Lock()
	n := s.noteAt(step, pitch)
	if n == nil {
		s.mu.Unlock()
		return false
	}
	if velocity != 0 {
		n.Velocity = clampVelocity(velocity)
	}
	if duration > 0 {
		n.Duration = duration
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// NoteMove describes one slot relocation in a batch move.
type NoteMove struct {
	From NoteRef
	To   NoteRef
}

// MoveNotes relocates a batch of notes in two phases: every source is
// lifted out first, then all are re-inserted, so notes in one batch can
// move through each other's slots. Moving into an occupied target silently
// evicts the occupant. Returns snapshots of evicted notes.
func (s *Sequence) MoveNotes(moves []NoteMove) []NoteSnapshot {
	type lifted struct {
		note *Note
		to   NoteRef
	}

	s.mu.Lock()
	var inFlight []lifted
	for _, mv := range moves {
		if n, ok := s.removeNote(SnapStep(mv.From.Step), mv.From.Pitch); ok {
			inFlight = append(inFlight, lifted{note: n, to: mv.To})
		}
	}

	var evicted []NoteSnapshot
	for _, lf := range inFlight {
		to := NoteRef{Step: SnapStep(lf.to.Step), Pitch: clampPitch(lf.to.Pitch)}
		if occ, ok := s.removeNote(to.Step, to.Pitch); ok {
			evicted = append(evicted, snapshotOf(to.Step, occ))
		}
		lf.note.Pitch = to.Pitch
		s.addNote(to.Step, lf.note)
	}
	changed := len(inFlight) > 0
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return evicted
}

// MoveNote relocates a single note.
func (s *Sequence) MoveNote(from, to NoteRef) []NoteSnapshot {
	return s.MoveNotes([]NoteMove{{From: from, To: to}})
}

// CopyNotes duplicates the source set anchored at its minimal (step, pitch):
// every copy lands at the same delta from (destStep, destPitch) as its
// source had from the anchor. Occupied targets are skipped. Returns refs of
// the created notes.
func (s *Sequence) CopyNotes(sources []NoteRef, destStep float64, destPitch int) []NoteRef {
	if len(sources) == 0 {
		return nil
	}
	anchor := sources[0]
	for _, ref := range sources[1:] {
		if ref.Step < anchor.Step || (ref.Step == anchor.Step && ref.Pitch < anchor.Pitch) {
			anchor = ref
		}
	}
	dStep := SnapStep(destStep) - anchor.Step
	dPitch := destPitch - anchor.Pitch

	s.mu.Lock()
	var created []NoteRef
	for _, ref := range sources {
		n := s.noteAt(SnapStep(ref.Step), ref.Pitch)
		if n == nil {
			continue
		}
		step := SnapStep(ref.Step + dStep)
		pitch := clampPitch(ref.Pitch + dPitch)
		if step < 0 {
			continue
		}
		cp := *n
		cp.Pitch = pitch
		cp.OriginalPitch = n.OriginalPitch + dPitch
		if s.addNote(step, &cp) {
			created = append(created, NoteRef{Step: step, Pitch: pitch})
		}
	}
	s.mu.Unlock()

	if len(created) > 0 {
		s.notify()
	}
	debug.Log("seq", "copied %d/%d notes", len(created), len(sources))
	return created
}

// Clear removes every note.
func (s *Sequence) Clear() {
	s.mu.Lock()
	if len(s.notes) == 0 {
		s.mu.Unlock()
		return
	}
	s.notes = make(map[float64][]*Note)
	s.mu.Unlock()
	s.notify()
}

// restore puts a snapshot back verbatim, evicting any occupant, with a
// single change notification. Used by command undo paths.
func (s *Sequence) restore(snap NoteSnapshot) {
	step := SnapStep(snap.Step)
	s.mu.Lock()
	s.removeNote(step, snap.Pitch)
	s.notes[step] = append(s.notes[step], snap.note())
	s.mu.Unlock()
	s.notify()
}
