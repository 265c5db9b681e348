package theory

// ScaleManager is the concrete PitchSnapper: a root, a named scale and an
// on/off switch, with change notification for renderers.
type ScaleManager struct {
	root      int
	name      string
	enabled   bool
	listeners []func()
}

// NewScaleManager starts disabled on C major.
func NewScaleManager() *ScaleManager {
	return &ScaleManager{name: "major"}
}

func (m *ScaleManager) Enabled() bool { return m.enabled }

// SetEnabled toggles snapping and notifies listeners.
func (m *ScaleManager) SetEnabled(on bool) {
	if m.enabled == on {
		return
	}
	m.enabled = on
	m.notify()
}

// Root returns the scale root pitch class.
func (m *ScaleManager) Root() int { return m.root }

// SetRoot sets the root pitch class (wrapped into 0-11).
func (m *ScaleManager) SetRoot(root int) {
	m.root = ((root % 12) + 12) % 12
	m.notify()
}

// Name returns the active scale name.
func (m *ScaleManager) Name() string { return m.name }

// SetScale selects a named scale; unknown names are ignored.
func (m *ScaleManager) SetScale(name string) {
	if _, ok := Scales[name]; !ok {
		return
	}
	m.name = name
	m.notify()
}

func (m *ScaleManager) intervals() []int {
	return Scales[m.name]
}

// Snap returns the nearest scale pitch to the given pitch, clamped to the
// MIDI range. Ties resolve downward. When disabled, Snap is the identity.
func (m *ScaleManager) Snap(pitch int) int {
	if !m.enabled {
		return pitch
	}
	best := pitch
	bestDist := 1 << 30
	for _, iv := range m.intervals() {
		pc := (m.root + iv) % 12
		// nearest pitch of this class
		base := pitch - ((pitch%12)+12)%12 + pc
		for _, cand := range []int{base - 12, base, base + 12} {
			if cand < 0 || cand > 127 {
				continue
			}
			d := cand - pitch
			if d < 0 {
				d = -d
			}
			if d < bestDist || (d == bestDist && cand < best) {
				best = cand
				bestDist = d
			}
		}
	}
	return best
}

// Degrees lists every scale pitch in [lo, hi], ascending.
func (m *ScaleManager) Degrees(lo, hi int) []int {
	if lo < 0 {
		lo = 0
	}
	if hi > 127 {
		hi = 127
	}
	var out []int
	for p := lo; p <= hi; p++ {
		pc := ((p - m.root) % 12 + 12) % 12
		for _, iv := range m.intervals() {
			if iv == pc {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// OnChange registers a change listener and returns a remove func.
func (m *ScaleManager) OnChange(fn func()) func() {
	m.listeners = append(m.listeners, fn)
	idx := len(m.listeners) - 1
	return func() { m.listeners[idx] = nil }
}

func (m *ScaleManager) notify() {
	for _, fn := range m.listeners {
		if fn != nil {
			fn()
		}
	}
}
