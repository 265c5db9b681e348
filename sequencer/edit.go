package sequencer

import "fmt"

// Single-note edit commands. Each captures its pre-image on the first
// Execute and replays the same result on redo.

// AddNoteCommand inserts one note; a no-op if the slot is occupied.
type AddNoteCommand struct {
	Seq  *Sequence
	Note NoteSnapshot

	added bool
}

func (c *AddNoteCommand) Execute() {
	c.added = c.Seq.AddNote(c.Note.Step, c.Note.note())
}

func (c *AddNoteCommand) Undo() {
	if c.added {
		c.Seq.RemoveNote(c.Note.Step, c.Note.Pitch)
	}
}

func (c *AddNoteCommand) Description() string {
	return fmt.Sprintf("add note %d @ %.2f", c.Note.Pitch, c.Note.Step)
}

// RemoveNoteCommand deletes one note, restoring it exactly on undo.
type RemoveNoteCommand struct {
	Seq *Sequence
	Ref NoteRef

	removed *NoteSnapshot
}

func (c *RemoveNoteCommand) Execute() {
	if n, ok := c.Seq.NoteAt(c.Ref.Step, c.Ref.Pitch); ok {
		snap := snapshotOf(SnapStep(c.Ref.Step), n)
		c.removed = &snap
		c.Seq.RemoveNote(c.Ref.Step, c.Ref.Pitch)
	}
}

func (c *RemoveNoteCommand) Undo() {
	if c.removed != nil {
		c.Seq.restore(*c.removed)
	}
}

func (c *RemoveNoteCommand) Description() string {
	return fmt.Sprintf("remove note %d @ %.2f", c.Ref.Pitch, c.Ref.Step)
}

// ToggleNoteCommand flips a slot between empty and a default note.
type ToggleNoteCommand struct {
	Seq *Sequence
	Ref NoteRef

	removed *NoteSnapshot
}

func (c *ToggleNoteCommand) Execute() {
	if n, ok := c.Seq.NoteAt(c.Ref.Step, c.Ref.Pitch); ok {
		snap := snapshotOf(SnapStep(c.Ref.Step), n)
		c.removed = &snap
	} else {
		c.removed = nil
	}
	c.Seq.ToggleNote(c.Ref.Step, c.Ref.Pitch)
}

func (c *ToggleNoteCommand) Undo() {
	if c.removed != nil {
		c.Seq.restore(*c.removed)
	} else {
		c.Seq.RemoveNote(c.Ref.Step, c.Ref.Pitch)
	}
}

func (c *ToggleNoteCommand) Description() string {
	return fmt.Sprintf("toggle note %d @ %.2f", c.Ref.Pitch, c.Ref.Step)
}

// UpdateNoteCommand patches velocity and/or duration. Zero values leave
// the attribute unchanged.
type UpdateNoteCommand struct {
	Seq      *Sequence
	Ref      NoteRef
	Velocity int
	Duration float64

	prev *NoteSnapshot
}

func (c *UpdateNoteCommand) Execute() {
	if n, ok := c.Seq.NoteAt(c.Ref.Step, c.Ref.Pitch); ok {
		snap := snapshotOf(SnapStep(c.Ref.Step), n)
		c.prev = &snap
	}
	c.Seq.UpdateNote(c.Ref.Step, c.Ref.Pitch, c.Velocity, c.Duration)
}

func (c *UpdateNoteCommand) Undo() {
	if c.prev == nil {
		return
	}
	c.Seq.UpdateNote(c.Ref.Step, c.Ref.Pitch, c.prev.Velocity, c.prev.Duration)
}

func (c *UpdateNoteCommand) Description() string {
	return fmt.Sprintf("update note %d @ %.2f", c.Ref.Pitch, c.Ref.Step)
}

// MoveNotesCommand relocates a batch of notes, displacing occupants. Undo
// restores both the moved notes and anything they evicted, plus the prior
// selection membership.
type MoveNotesCommand struct {
	Seq       *Sequence
	Selection *SelectionManager // optional
	Moves     []NoteMove

	before    []NoteSnapshot
	evicted   []NoteSnapshot
	selBefore []NoteRef
	captured  bool
}

func (c *MoveNotesCommand) Execute() {
	if !c.captured {
		for _, mv := range c.Moves {
			if n, ok := c.Seq.NoteAt(mv.From.Step, mv.From.Pitch); ok {
				c.before = append(c.before, snapshotOf(SnapStep(mv.From.Step), n))
			}
		}
		if c.Selection != nil {
			c.selBefore = c.Selection.Refs()
		}
		c.captured = true
	}

	evicted := c.Seq.MoveNotes(c.Moves)
	if c.evicted == nil {
		c.evicted = evicted
	}

	if c.Selection != nil {
		for _, mv := range c.Moves {
			if c.Selection.Selected(mv.From) {
				c.Selection.Remove(mv.From)
				c.Selection.Add(mv.To)
			}
		}
	}
}

func (c *MoveNotesCommand) Undo() {
	c.Seq.BeginEdit()
	for _, mv := range c.Moves {
		c.Seq.RemoveNote(mv.To.Step, mv.To.Pitch)
	}
	for _, snap := range c.before {
		c.Seq.restore(snap)
	}
	for _, snap := range c.evicted {
		c.Seq.restore(snap)
	}
	c.Seq.EndEdit()
	if c.Selection != nil {
		c.Selection.Replace(c.selBefore)
	}
}

func (c *MoveNotesCommand) Description() string {
	return fmt.Sprintf("move %d notes", len(c.Moves))
}
