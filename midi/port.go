package midi

import (
	"fmt"
	"sync"

	"go-gridseq/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// CC 123 = all notes off
const ccAllNotesOff = 123

// Port is an Output backed by a gomidi out port. The port is opened lazily
// on first send and the sender is cached, so constructing a Port never
// blocks on the MIDI backend.
type Port struct {
	name string

	mu     sync.Mutex
	sender func(gomidi.Message) error
}

// OpenPort returns a Port for the named output. The name must match one of
// OutPortNames; resolution is deferred to the first send.
func OpenPort(name string) *Port {
	return &Port{name: name}
}

// OutPortNames lists the available MIDI output ports.
func OutPortNames() []string {
	var names []string
	for _, p := range gomidi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}

// getSender lazily opens the port, caching the send func.
func (p *Port) getSender() func(gomidi.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sender != nil {
		return p.sender
	}
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == p.name {
			sender, err := gomidi.SendTo(port)
			if err != nil {
				debug.Log("midi", "open %q failed: %v", p.name, err)
				return nil
			}
			p.sender = sender
			return sender
		}
	}
	debug.Log("midi", "port %q not found", p.name)
	return nil
}

func (p *Port) send(msg gomidi.Message) {
	if sender := p.getSender(); sender != nil {
		if err := sender(msg); err != nil {
			debug.Log("midi", "send failed: %v", err)
		}
	}
}

func (p *Port) NoteOn(channel, pitch, velocity uint8) {
	p.send(gomidi.NoteOn(channel, pitch, velocity))
}

func (p *Port) NoteOff(channel, pitch uint8) {
	p.send(gomidi.NoteOff(channel, pitch))
}

func (p *Port) Start() {
	p.send(gomidi.Start())
}

func (p *Port) Stop() {
	p.send(gomidi.Stop())
}

func (p *Port) Clock() {
	p.send(gomidi.TimingClock())
}

// Panic silences every channel synchronously: CC 123 plus explicit
// note-offs for the full pitch range, since some synths ignore CC 123.
func (p *Port) Panic() {
	sender := p.getSender()
	if sender == nil {
		return
	}
	for ch := uint8(0); ch < 16; ch++ {
		sender(gomidi.ControlChange(ch, ccAllNotesOff, 0))
		for pitch := uint8(0); pitch < 128; pitch++ {
			sender(gomidi.NoteOff(ch, pitch))
		}
	}
	debug.Log("midi", "panic: all notes off")
}

// Close releases the cached sender and the underlying driver port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sender = nil
	return nil
}

// String identifies the port for logs and the TUI footer.
func (p *Port) String() string {
	return fmt.Sprintf("midi:%s", p.name)
}
