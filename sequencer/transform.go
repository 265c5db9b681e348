package sequencer

import (
	"fmt"
	"math"
	"sort"

	"go-gridseq/theory"
)

// Scope selects the working set for a bulk transform.
type Scope int

const (
	// ScopeAll targets every note in the sequence.
	ScopeAll Scope = iota
	// ScopeSelected targets the current selection.
	ScopeSelected
	// ScopeLoop targets notes inside the loop window.
	ScopeLoop
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeSelected:
		return "selected"
	case ScopeLoop:
		return "loop"
	}
	return "unknown"
}

// Next cycles through the scopes, for UI toggling.
func (s Scope) Next() Scope {
	switch s {
	case ScopeAll:
		return ScopeSelected
	case ScopeSelected:
		return ScopeLoop
	default:
		return ScopeAll
	}
}

// ResolveTargetNotes computes the working set for a bulk command: value
// snapshots of every note in scope, sorted by (step, pitch). A selected
// scope with no selection manager degrades to an empty set.
func ResolveTargetNotes(seq *Sequence, sel *SelectionManager, scope Scope) []NoteSnapshot {
	var out []NoteSnapshot
	for _, step := range seq.Steps() {
		for _, n := range seq.NotesAt(step) {
			switch scope {
			case ScopeSelected:
				if sel == nil || !sel.Selected(NoteRef{Step: step, Pitch: n.Pitch}) {
					continue
				}
			case ScopeLoop:
				loop := seq.Loop()
				if step < loop.Start || step >= loop.End {
					continue
				}
			}
			out = append(out, snapshotOf(step, n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Step != out[j].Step {
			return out[i].Step < out[j].Step
		}
		return out[i].Pitch < out[j].Pitch
	})
	return out
}

// transformFunc maps the pre-mutation working set to (before, after) pairs
// with matching indexes. Entries the transform leaves untouched may be
// dropped from both slices to keep the undo log minimal.
type transformFunc func(targets []NoteSnapshot) (before, after []NoteSnapshot)

// bulkCommand is the shared two-phase discipline behind every bulk
// transform: compute all new values from the pre-mutation snapshot, lift
// every affected note out, then re-insert. Notes in one batch can move
// through each other's original or target slots without order-dependent
// self-collisions. The first Execute freezes the computed result; redo
// replays it bit-for-bit (randomized transforms included).
type bulkCommand struct {
	seq       *Sequence
	sel       *SelectionManager // optional
	scope     Scope
	desc      string
	transform transformFunc

	computed  bool
	before    []NoteSnapshot
	after     []NoteSnapshot
	evicted   []NoteSnapshot
	selBefore []NoteRef
}

func (c *bulkCommand) Execute() {
	if !c.computed {
		targets := ResolveTargetNotes(c.seq, c.sel, c.scope)
		if len(targets) == 0 {
			c.computed = true
			return
		}
		c.before, c.after = c.transform(targets)
		if c.sel != nil {
			c.selBefore = c.sel.Refs()
		}
		c.computed = true
	}
	if len(c.before) == 0 {
		return
	}

	c.seq.BeginEdit()
	for _, snap := range c.before {
		c.seq.RemoveNote(snap.Step, snap.Pitch)
	}
	firstRun := c.evicted == nil
	inserted := make(map[NoteRef]bool, len(c.after))
	for _, snap := range c.after {
		// An occupant is a genuine bystander only if this batch didn't
		// just put it there; within-batch slot collisions are last-wins.
		if occ, ok := c.seq.RemoveNote(snap.Step, snap.Pitch); ok && firstRun && !inserted[snap.ref()] {
			c.evicted = append(c.evicted, snapshotOf(snap.Step, occ))
		}
		c.seq.AddNote(snap.Step, snap.note())
		inserted[snap.ref()] = true
	}
	c.seq.EndEdit()

	if c.sel != nil {
		for i, snap := range c.before {
			if i < len(c.after) && c.sel.Selected(snap.ref()) {
				c.sel.Remove(snap.ref())
				c.sel.Add(c.after[i].ref())
			}
		}
	}
}

func (c *bulkCommand) Undo() {
	if len(c.before) == 0 {
		return
	}
	c.seq.BeginEdit()
	for _, snap := range c.after {
		c.seq.RemoveNote(snap.Step, snap.Pitch)
	}
	for _, snap := range c.evicted {
		c.seq.restore(snap)
	}
	for _, snap := range c.before {
		c.seq.restore(snap)
	}
	c.seq.EndEdit()
	if c.sel != nil {
		c.sel.Replace(c.selBefore)
	}
}

func (c *bulkCommand) Description() string { return c.desc }

// wrapStep wraps pos into [lo, hi).
func wrapStep(pos, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	pos = math.Mod(pos-lo, span)
	if pos < 0 {
		pos += span
	}
	return SnapStep(lo + pos)
}

func clampStep(pos, lo, hi float64) float64 {
	if pos < lo {
		return lo
	}
	if pos > hi {
		return hi
	}
	return SnapStep(pos)
}

// NewNudgeCommand shifts the working set by delta steps. Loop scope wraps
// at the loop bounds, all scope wraps at the sequence end, and a selection
// clamps rather than wraps.
func NewNudgeCommand(seq *Sequence, sel *SelectionManager, scope Scope, delta float64) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("nudge %s %+.2f", scope, delta),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			after := make([]NoteSnapshot, len(targets))
			loop := seq.Loop()
			for i, snap := range targets {
				moved := snap
				pos := snap.Step + delta
				switch scope {
				case ScopeLoop:
					moved.Step = wrapStep(pos, loop.Start, loop.End)
				case ScopeSelected:
					moved.Step = clampStep(pos, 0, seq.Length()-Substep)
				default:
					moved.Step = wrapStep(pos, 0, seq.Length())
				}
				after[i] = moved
			}
			return targets, after
		},
	}
}

// NewTransposeCommand shifts OriginalPitch by a semitone delta, then
// re-derives the sounding pitch through the optional scale snapper. Both
// pitches clamp to the MIDI range.
func NewTransposeCommand(seq *Sequence, sel *SelectionManager, scope Scope, semitones int, snapper theory.PitchSnapper) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("transpose %s %+d", scope, semitones),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			after := make([]NoteSnapshot, len(targets))
			for i, snap := range targets {
				moved := snap
				moved.OriginalPitch = clampPitch(snap.OriginalPitch + semitones)
				moved.Pitch = moved.OriginalPitch
				if snapper != nil && snapper.Enabled() {
					moved.Pitch = clampPitch(snapper.Snap(moved.OriginalPitch))
				}
				after[i] = moved
			}
			return targets, after
		},
	}
}

// NewReverseCommand mirrors step positions around the midpoint of the
// scope's span: the loop bounds for loop scope (mirroring within
// [start, end) via the last addressable substep), the working set's
// bounding box otherwise.
func NewReverseCommand(seq *Sequence, sel *SelectionManager, scope Scope) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("reverse %s", scope),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			var lo, hi float64
			if scope == ScopeLoop {
				loop := seq.Loop()
				lo, hi = loop.Start, loop.End-Substep
			} else {
				lo, hi = targets[0].Step, targets[0].Step
				for _, snap := range targets[1:] {
					if snap.Step < lo {
						lo = snap.Step
					}
					if snap.Step > hi {
						hi = snap.Step
					}
				}
			}
			after := make([]NoteSnapshot, len(targets))
			for i, snap := range targets {
				moved := snap
				moved.Step = SnapStep(lo + hi - snap.Step)
				after[i] = moved
			}
			return targets, after
		},
	}
}

// NewQuantizeCommand rounds step positions to the nearest whole step.
// Notes already on the grid are excluded from the undo log.
func NewQuantizeCommand(seq *Sequence, sel *SelectionManager, scope Scope) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("quantize %s", scope),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			var before, after []NoteSnapshot
			for _, snap := range targets {
				rounded := math.Round(snap.Step)
				if rounded == snap.Step {
					continue
				}
				moved := snap
				moved.Step = rounded
				before = append(before, snap)
				after = append(after, moved)
			}
			return before, after
		},
	}
}
