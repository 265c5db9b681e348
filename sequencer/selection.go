package sequencer

// SelectionManager tracks selected note identities as (step, pitch) refs.
// Commands that relocate notes remap the refs so the selection follows the
// notes, and capture the prior membership for undo.
type SelectionManager struct {
	selected  map[NoteRef]bool
	listeners []func()
}

// NewSelectionManager creates an empty selection.
func NewSelectionManager() *SelectionManager {
	return &SelectionManager{selected: make(map[NoteRef]bool)}
}

// OnChange registers a change listener, returning a remove func.
func (m *SelectionManager) OnChange(fn func()) func() {
	m.listeners = append(m.listeners, fn)
	idx := len(m.listeners) - 1
	return func() { m.listeners[idx] = nil }
}

func (m *SelectionManager) notify() {
	for _, fn := range m.listeners {
		if fn != nil {
			fn()
		}
	}
}

// Selected reports whether the ref is in the selection.
func (m *SelectionManager) Selected(ref NoteRef) bool {
	return m.selected[NoteRef{Step: SnapStep(ref.Step), Pitch: ref.Pitch}]
}

// Add puts a ref into the selection.
func (m *SelectionManager) Add(ref NoteRef) {
	ref.Step = SnapStep(ref.Step)
	if m.selected[ref] {
		return
	}
	m.selected[ref] = true
	m.notify()
}

// Remove drops a ref from the selection.
func (m *SelectionManager) Remove(ref NoteRef) {
	ref.Step = SnapStep(ref.Step)
	if !m.selected[ref] {
		return
	}
	delete(m.selected, ref)
	m.notify()
}

// Toggle flips a ref's membership.
func (m *SelectionManager) Toggle(ref NoteRef) {
	ref.Step = SnapStep(ref.Step)
	if m.selected[ref] {
		delete(m.selected, ref)
	} else {
		m.selected[ref] = true
	}
	m.notify()
}

// Clear empties the selection.
func (m *SelectionManager) Clear() {
	if len(m.selected) == 0 {
		return
	}
	m.selected = make(map[NoteRef]bool)
	m.notify()
}

// Count returns the selection size.
func (m *SelectionManager) Count() int {
	return len(m.selected)
}

// Refs returns a copy of the current membership.
func (m *SelectionManager) Refs() []NoteRef {
	out := make([]NoteRef, 0, len(m.selected))
	for ref := range m.selected {
		out = append(out, ref)
	}
	return out
}

// Replace swaps the whole membership. Used by command undo paths to put a
// captured selection back.
func (m *SelectionManager) Replace(refs []NoteRef) {
	m.selected = make(map[NoteRef]bool, len(refs))
	for _, ref := range refs {
		ref.Step = SnapStep(ref.Step)
		m.selected[ref] = true
	}
	m.notify()
}
