package theory

import (
	"reflect"
	"testing"
)

func TestSnapDisabledIsIdentity(t *testing.T) {
	m := NewScaleManager()
	if got := m.Snap(61); got != 61 {
		t.Errorf("disabled Snap(61) = %d, want identity", got)
	}
}

func TestSnapNearestWithTieDown(t *testing.T) {
	m := NewScaleManager() // C major
	m.SetEnabled(true)

	cases := []struct{ in, want int }{
		{60, 60}, // already in scale
		{61, 60}, // C#: C and D equidistant, tie resolves down
		{63, 62}, // D#: D and E equidistant, tie resolves down
		{66, 65}, // F#: F and G equidistant, tie resolves down
		{59, 59}, // B in scale
	}
	for _, tc := range cases {
		if got := m.Snap(tc.in); got != tc.want {
			t.Errorf("Snap(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSnapRespectsRoot(t *testing.T) {
	m := NewScaleManager()
	m.SetEnabled(true)
	m.SetRoot(2) // D major: D E F# G A B C#

	// F sits between E and F#, both in scale; the tie resolves down to E
	if got := m.Snap(65); got != 64 {
		t.Errorf("Snap(F) in D major = %d, want E", got)
	}
	if got := m.Snap(61); got != 61 {
		t.Errorf("Snap(C#) in D major = %d, want identity", got)
	}
	if got := m.Snap(62); got != 62 {
		t.Errorf("Snap(D) in D major = %d, want identity", got)
	}
}

func TestSetRootWraps(t *testing.T) {
	m := NewScaleManager()
	m.SetRoot(14)
	if m.Root() != 2 {
		t.Errorf("Root = %d after SetRoot(14), want 2", m.Root())
	}
	m.SetRoot(-3)
	if m.Root() != 9 {
		t.Errorf("Root = %d after SetRoot(-3), want 9", m.Root())
	}
}

func TestSetScaleIgnoresUnknownNames(t *testing.T) {
	m := NewScaleManager()
	m.SetScale("pent-minor")
	m.SetScale("klingon")
	if m.Name() != "pent-minor" {
		t.Errorf("Name = %q, want the last valid scale", m.Name())
	}
}

func TestDegreesListsScalePitches(t *testing.T) {
	m := NewScaleManager() // C major
	got := m.Degrees(60, 72)
	want := []int{60, 62, 64, 65, 67, 69, 71, 72}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Degrees(60, 72) = %v, want %v", got, want)
	}

	// bounds clamp to the MIDI range instead of faulting
	if got := m.Degrees(-10, 2); got[0] != 0 {
		t.Errorf("Degrees below zero = %v", got)
	}
}

func TestScaleChangeNotification(t *testing.T) {
	m := NewScaleManager()
	fires := 0
	remove := m.OnChange(func() { fires++ })

	m.SetEnabled(true)
	m.SetEnabled(true) // no change, no fire
	m.SetRoot(5)
	if fires != 2 {
		t.Errorf("fires = %d, want 2", fires)
	}
	remove()
	m.SetRoot(7)
	if fires != 2 {
		t.Error("removed listener still notified")
	}
}

func TestChordContains(t *testing.T) {
	c := NewChord(0, "maj")
	for _, p := range []int{60, 64, 67, 72, 48} {
		if !c.Contains(p) {
			t.Errorf("C major should contain %d", p)
		}
	}
	for _, p := range []int{61, 62, 66} {
		if c.Contains(p) {
			t.Errorf("C major should not contain %d", p)
		}
	}
}

func TestNewChordFallsBackToMajor(t *testing.T) {
	c := NewChord(14, "nonsense")
	if c.Root != 2 {
		t.Errorf("Root = %d, want wrapped 2", c.Root)
	}
	if !reflect.DeepEqual(c.Intervals, Chords["maj"]) {
		t.Errorf("Intervals = %v, want major fallback", c.Intervals)
	}
	pcs := c.PitchClasses()
	for _, pc := range []int{2, 6, 9} {
		if !pcs[pc] {
			t.Errorf("D major pitch classes missing %d: %v", pc, pcs)
		}
	}
}
