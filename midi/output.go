package midi

// Output is the note/transport dispatch surface the core calls outward to.
// The scheduler fires callbacks at their due time, so implementations send
// immediately; there is no timestamp to forward.
type Output interface {
	NoteOn(channel, pitch, velocity uint8)
	NoteOff(channel, pitch uint8)
	Start()
	Stop()
	Clock()
	// Panic sends an immediate all-notes-off sweep on every channel.
	// Required after a transport stop: queued note-offs are flushed, not
	// fired, so sounding notes must be silenced synchronously.
	Panic()
}

// Nop is an Output that discards everything. Used when no port is
// configured so the engine can run headless.
type Nop struct{}

func (Nop) NoteOn(channel, pitch, velocity uint8) {}
func (Nop) NoteOff(channel, pitch uint8)          {}
func (Nop) Start()                                {}
func (Nop) Stop()                                 {}
func (Nop) Clock()                                {}
func (Nop) Panic()                                {}
