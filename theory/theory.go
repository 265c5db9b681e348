// Package theory holds the read-only scale and chord interval tables and a
// small snapping collaborator. The sequencer core only depends on the
// PitchSnapper capability; everything here is data.
package theory

// PitchSnapper maps an intended pitch onto the active scale. Dependent
// operations in the sequencer take an optional snapper and skip snapping
// when it is nil or disabled.
type PitchSnapper interface {
	Enabled() bool
	Snap(pitch int) int
	// Degrees returns every scale pitch in [lo, hi], ascending.
	Degrees(lo, hi int) []int
}

// Scale interval tables, semitones from the root within one octave.
var Scales = map[string][]int{
	"chromatic":  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"pent-major": {0, 2, 4, 7, 9},
	"pent-minor": {0, 3, 5, 7, 10},
}

// Chord interval tables, semitones from the root.
var Chords = map[string][]int{
	"maj":  {0, 4, 7},
	"min":  {0, 3, 7},
	"dim":  {0, 3, 6},
	"aug":  {0, 4, 8},
	"maj7": {0, 4, 7, 11},
	"min7": {0, 3, 7, 10},
	"dom7": {0, 4, 7, 10},
	"sus4": {0, 5, 7},
}

// Chord is a root pitch class plus an interval set.
type Chord struct {
	Root      int
	Intervals []int
}

// NewChord builds a chord from a root pitch class and a named quality.
// Unknown names fall back to a major triad.
func NewChord(root int, quality string) Chord {
	iv, ok := Chords[quality]
	if !ok {
		iv = Chords["maj"]
	}
	return Chord{Root: ((root % 12) + 12) % 12, Intervals: iv}
}

// PitchClasses returns the chord's pitch classes 0-11.
func (c Chord) PitchClasses() map[int]bool {
	pcs := make(map[int]bool, len(c.Intervals))
	for _, iv := range c.Intervals {
		pcs[(c.Root+iv)%12] = true
	}
	return pcs
}

// Contains reports whether the pitch's class belongs to the chord.
func (c Chord) Contains(pitch int) bool {
	pc := ((pitch % 12) + 12) % 12
	for _, iv := range c.Intervals {
		if (c.Root+iv)%12 == pc {
			return true
		}
	}
	return false
}
