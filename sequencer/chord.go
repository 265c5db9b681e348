package sequencer

import (
	"fmt"

	"go-gridseq/theory"
)

// NewChordQuantizeCommand snaps each note's pitch to the nearest pitch
// class of the chord, searching outward symmetrically from the original
// pitch. Pitches already claimed at the same step are excluded
// (first-come-first-served in target iteration order), so two notes that
// share a nearest chord tone resolve to distinct pitches instead of a
// unison.
func NewChordQuantizeCommand(seq *Sequence, sel *SelectionManager, scope Scope, chord theory.Chord) Command {
	return &bulkCommand{
		seq: seq, sel: sel, scope: scope,
		desc: fmt.Sprintf("chord quantize %s", scope),
		transform: func(targets []NoteSnapshot) ([]NoteSnapshot, []NoteSnapshot) {
			claimed := make(map[float64]map[int]bool)
			after := make([]NoteSnapshot, len(targets))
			for i, snap := range targets {
				if claimed[snap.Step] == nil {
					claimed[snap.Step] = make(map[int]bool)
				}
				moved := snap
				moved.Pitch = nearestChordTone(chord, snap.OriginalPitch, claimed[snap.Step])
				claimed[snap.Step][moved.Pitch] = true
				after[i] = moved
			}
			return targets, after
		},
	}
}

// nearestChordTone searches distance 0, 1, 2, ... from pitch, trying the
// lower candidate before the upper at each distance, skipping taken
// pitches. Falls back to the original pitch if the whole range is taken.
func nearestChordTone(chord theory.Chord, pitch int, taken map[int]bool) int {
	pitch = clampPitch(pitch)
	for d := 0; d <= 127; d++ {
		for _, cand := range []int{pitch - d, pitch + d} {
			if cand < 0 || cand > 127 || taken[cand] {
				continue
			}
			if chord.Contains(cand) {
				return cand
			}
		}
	}
	return pitch
}
