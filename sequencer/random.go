package sequencer

import (
	"fmt"
	"math"
	"math/rand"

	"go-gridseq/theory"
)

// RandomizeKind selects which attribute a randomize command rolls.
type RandomizeKind int

const (
	RandomVelocity RandomizeKind = iota
	RandomTiming
	RandomPitch
	RandomStep
	RandomLength
	RandomPermute
)

func (k RandomizeKind) String() string {
	switch k {
	case RandomVelocity:
		return "velocity"
	case RandomTiming:
		return "timing"
	case RandomPitch:
		return "pitch"
	case RandomStep:
		return "step"
	case RandomLength:
		return "length"
	case RandomPermute:
		return "permute"
	}
	return "unknown"
}

// Next cycles through the kinds, for UI toggling.
func (k RandomizeKind) Next() RandomizeKind {
	if k == RandomPermute {
		return RandomVelocity
	}
	return k + 1
}

// NewRandomizeCommand rolls new values for the working set. The rng is
// injected so results are reproducible; the first Execute freezes the
// rolled values, so redo replays them exactly.
func NewRandomizeCommand(seq *Sequence, sel *SelectionManager, scope Scope, kind RandomizeKind, snapper theory.PitchSnapper, rng *rand.Rand) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("randomize %s %s", kind, scope),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			switch kind {
			case RandomVelocity:
				return randomVelocity(targets, rng)
			case RandomTiming:
				return randomTiming(targets, rng)
			case RandomPitch:
				return randomPitch(targets, snapper, rng)
			case RandomStep:
				return randomStep(seq, scope, targets, rng)
			case RandomLength:
				return randomLength(targets, rng)
			case RandomPermute:
				return permutePitches(targets, rng)
			}
			return nil, nil
		},
	}
}

// randomVelocity draws velocities uniformly from [40, 127].
func randomVelocity(targets []NoteSnapshot, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		moved := snap
		moved.Velocity = 40 + rng.Intn(88)
		after[i] = moved
	}
	return targets, after
}

// randomTiming offsets each step by [-0.25, +0.25) of a step, snapped to
// the substep grid, floored at zero.
func randomTiming(targets []NoteSnapshot, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		moved := snap
		offset := rng.Float64()*0.5 - 0.25
		moved.Step = SnapStep(math.Max(0, snap.Step+offset))
		after[i] = moved
	}
	return targets, after
}

// randomPitch draws pitches from scale-constrained candidates within one
// octave of the working set's pitch centroid, tracking choices per step so
// two notes on one step never land on the same pitch.
func randomPitch(targets []NoteSnapshot, snapper theory.PitchSnapper, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	sum := 0
	for _, snap := range targets {
		sum += snap.Pitch
	}
	centroid := sum / len(targets)
	lo, hi := clampPitch(centroid-12), clampPitch(centroid+12)

	var candidates []int
	if snapper != nil && snapper.Enabled() {
		candidates = snapper.Degrees(lo, hi)
	}
	if len(candidates) == 0 {
		for p := lo; p <= hi; p++ {
			candidates = append(candidates, p)
		}
	}

	claimed := make(map[float64]map[int]bool)
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		if claimed[snap.Step] == nil {
			claimed[snap.Step] = make(map[int]bool)
		}
		moved := snap
		// Rejection-sample against the per-step claim set; fall back to
		// the original pitch when the step is saturated.
		pitch := snap.Pitch
		for attempt := 0; attempt < 4*len(candidates); attempt++ {
			cand := candidates[rng.Intn(len(candidates))]
			if !claimed[snap.Step][cand] {
				pitch = cand
				break
			}
		}
		claimed[snap.Step][pitch] = true
		moved.Pitch = pitch
		moved.OriginalPitch = pitch
		after[i] = moved
	}
	return targets, after
}

// randomStep scatters notes over the scope's span on the substep grid.
func randomStep(seq *Sequence, scope Scope, targets []NoteSnapshot, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	lo, hi := 0.0, seq.Length()
	if scope == ScopeLoop {
		loop := seq.Loop()
		lo, hi = loop.Start, loop.End
	}
	substeps := int((hi - lo) * SubstepsPerStep)
	if substeps <= 0 {
		return nil, nil
	}
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		moved := snap
		moved.Step = SnapStep(lo + float64(rng.Intn(substeps))*Substep)
		after[i] = moved
	}
	return targets, after
}

// randomLength draws durations from whole substeps in (0, 2] steps.
func randomLength(targets []NoteSnapshot, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		moved := snap
		moved.Duration = float64(rng.Intn(2*SubstepsPerStep)+1) * Substep
		after[i] = moved
	}
	return targets, after
}

// permutePitches applies a uniform shuffle of (Pitch, OriginalPitch) pairs
// across the whole working set; positions, velocities and durations stay.
func permutePitches(targets []NoteSnapshot, rng *rand.Rand) ([]NoteSnapshot, []NoteSnapshot) {
	perm := rng.Perm(len(targets))
	after := make([]NoteSnapshot, len(targets))
	for i, snap := range targets {
		moved := snap
		moved.Pitch = targets[perm[i]].Pitch
		moved.OriginalPitch = targets[perm[i]].OriginalPitch
		after[i] = moved
	}
	return targets, after
}
