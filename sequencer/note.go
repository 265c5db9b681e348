package sequencer

import "math"

// Grid geometry: 4 steps per beat, 6 substeps per step. One substep is
// 1/24 beat, so the 24 PPQ clock lands exactly one pulse per substep.
const (
	StepsPerBeat    = 4
	SubstepsPerStep = 6
)

// Substep is the finest addressable position increment, in steps.
const Substep = 1.0 / SubstepsPerStep

// SnapStep quantizes a step position to the substep grid. Every position
// entering the note store passes through here, so equal musical positions
// share one float64 bit pattern and map keys stay stable.
func SnapStep(pos float64) float64 {
	return math.Round(pos*SubstepsPerStep) / SubstepsPerStep
}

// WholeStep reports whether pos sits on a whole-step boundary.
func WholeStep(pos float64) bool {
	return pos == math.Trunc(pos)
}

// Note is a single grid event. OriginalPitch records the pre-snap intent:
// repeated scale snapping re-derives Pitch from it, so snapping is
// non-destructive and transposition composes.
type Note struct {
	Pitch         int     // 0-127
	Velocity      int     // 1-127
	Duration      float64 // in steps, > 0
	OriginalPitch int
}

// NoteRef identifies a note by its slot. Selection tracks refs, not
// pointers, so a moved note is a different identity.
type NoteRef struct {
	Step  float64
	Pitch int
}

// NoteSnapshot is a full value copy of a note and its slot, captured by
// commands so undo restores exact pre-images even after the store changed
// shape underneath.
type NoteSnapshot struct {
	Step          float64
	Pitch         int
	Velocity      int
	Duration      float64
	OriginalPitch int
}

func snapshotOf(step float64, n *Note) NoteSnapshot {
	return NoteSnapshot{
		Step:          step,
		Pitch:         n.Pitch,
		Velocity:      n.Velocity,
		Duration:      n.Duration,
		OriginalPitch: n.OriginalPitch,
	}
}

func (s NoteSnapshot) note() *Note {
	return &Note{
		Pitch:         s.Pitch,
		Velocity:      s.Velocity,
		Duration:      s.Duration,
		OriginalPitch: s.OriginalPitch,
	}
}

func (s NoteSnapshot) ref() NoteRef {
	return NoteRef{Step: s.Step, Pitch: s.Pitch}
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}
