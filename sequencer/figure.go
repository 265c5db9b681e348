package sequencer

import (
	"fmt"
	"math"
)

// FlexStyle names the timing curve a figure degrades to when a group's
// note count doesn't match the figure's native count.
type FlexStyle int

const (
	// FlexEven spreads notes equally over the span.
	FlexEven FlexStyle = iota
	// FlexAccel compresses gaps toward the end of the span.
	FlexAccel
	// FlexRit stretches gaps toward the end of the span.
	FlexRit
	// FlexClusterHold packs all but the last note into the first half of
	// the span and holds the last over the rest.
	FlexClusterHold
)

// Figure is a named rhythmic template: relative sub-durations (and
// optional velocity accents) summing to a fixed cycle span of one or two
// beats. Applying it redistributes a group of notes' timing within that
// span.
type Figure struct {
	Name      string
	Span      float64   // in steps; 4 = one beat, 8 = two beats
	Durations []float64 // relative weights, native note count = len
	Accents   []int     // optional, absolute velocities per slot
	Flex      FlexStyle
}

// Figures is the built-in figure library, in UI cycling order.
var Figures = []Figure{
	{Name: "straight", Span: StepsPerBeat, Durations: []float64{1, 1}, Flex: FlexEven},
	{Name: "swing", Span: StepsPerBeat, Durations: []float64{2, 1}, Accents: []int{110, 70}, Flex: FlexAccel},
	{Name: "dotted", Span: StepsPerBeat, Durations: []float64{3, 1}, Accents: []int{112, 80}, Flex: FlexAccel},
	{Name: "triplet", Span: StepsPerBeat, Durations: []float64{1, 1, 1}, Accents: []int{108, 84, 84}, Flex: FlexEven},
	{Name: "gallop", Span: StepsPerBeat, Durations: []float64{2, 1, 1}, Accents: []int{114, 72, 88}, Flex: FlexClusterHold},
	{Name: "tresillo", Span: 2 * StepsPerBeat, Durations: []float64{3, 3, 2}, Accents: []int{118, 96, 104}, Flex: FlexRit},
	{Name: "cluster", Span: StepsPerBeat, Durations: []float64{1, 1, 1, 3}, Flex: FlexClusterHold},
}

// FigureByName looks a figure up; ok is false for unknown names.
func FigureByName(name string) (Figure, bool) {
	for _, f := range Figures {
		if f.Name == name {
			return f, true
		}
	}
	return Figure{}, false
}

// boundaries converts relative weights into len(weights)+1 absolute,
// substep-snapped positions covering [start, start+span]. Note durations
// come from gaps between adjacent snapped boundaries, not from snapping
// each raw fractional duration, so rounding error never accumulates
// across the span.
func boundaries(start, span float64, weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights)+1)
	cum := 0.0
	for i := range out {
		out[i] = SnapStep(start + span*cum/total)
		if i < len(weights) {
			cum += weights[i]
		}
	}
	return out
}

// flexWeights synthesizes a graduated timing curve for an arbitrary note
// count, preserving the figure's character when a group doesn't match its
// native count.
func flexWeights(style FlexStyle, count int) []float64 {
	w := make([]float64, count)
	switch style {
	case FlexAccel:
		for i := range w {
			w[i] = float64(count - i)
		}
	case FlexRit:
		for i := range w {
			w[i] = float64(i + 1)
		}
	case FlexClusterHold:
		for i := range w {
			w[i] = 1
		}
		if count > 1 {
			// rapid cluster + held note: the tail weight matches the
			// cluster's combined weight
			w[count-1] = float64(count - 1)
		}
	default:
		for i := range w {
			w[i] = 1
		}
	}
	return w
}

// NewApplyFigureCommand repositions the working set onto the figure's
// rhythm: targets sorted by (step, pitch) are chunked into groups of the
// figure's native count, and each group occupies one span, back-to-back
// with the previous group, anchored at the whole step under the first
// target. Short groups use the figure's flexible-pattern generator.
func NewApplyFigureCommand(seq *Sequence, sel *SelectionManager, scope Scope, fig Figure) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("figure %s %s", fig.Name, scope),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			native := len(fig.Durations)
			base := math.Floor(targets[0].Step)
			after := make([]NoteSnapshot, len(targets))

			group := 0
			for lo := 0; lo < len(targets); lo += native {
				hi := lo + native
				if hi > len(targets) {
					hi = len(targets)
				}
				count := hi - lo

				weights := fig.Durations
				accents := fig.Accents
				if count != native {
					weights = flexWeights(fig.Flex, count)
					accents = nil
				}

				start := base + float64(group)*fig.Span
				bounds := boundaries(start, fig.Span, weights)
				for k := 0; k < count; k++ {
					moved := targets[lo+k]
					moved.Step = bounds[k]
					dur := bounds[k+1] - bounds[k]
					if dur < Substep {
						dur = Substep
					}
					moved.Duration = dur
					if len(accents) == len(weights) {
						moved.Velocity = clampVelocity(accents[k])
					}
					after[lo+k] = moved
				}
				group++
			}
			return targets, after
		},
	}
}
