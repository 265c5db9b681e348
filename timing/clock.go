package timing

import (
	"sync"
	"time"

	"go-gridseq/debug"
)

// PPQ is the MIDI clock rate: pulses per quarter note.
const PPQ = 24

// ClockSink receives transport and clock signals. Implemented by the MIDI
// output; the generator never talks to a port directly.
type ClockSink interface {
	Start()
	Stop()
	Clock()
}

// ClockGenerator emits a steady 24 PPQ pulse train by chaining each pulse
// through the scheduler: a fired pulse schedules the next one from the live
// BPM, so a tempo change lands on the very next pulse with nothing to
// cancel or reschedule.
type ClockGenerator struct {
	scheduler *Scheduler
	sink      ClockSink
	bpm       func() float64

	mu      sync.Mutex // Start/Stop run on the caller goroutine, pulses on the poll goroutine
	running bool
	gen     int // invalidates chained pulses from a previous run
}

// NewClockGenerator wires a generator to the shared scheduler. bpm is read
// at every chain step.
func NewClockGenerator(scheduler *Scheduler, sink ClockSink, bpm func() float64) *ClockGenerator {
	return &ClockGenerator{scheduler: scheduler, sink: sink, bpm: bpm}
}

// PulseInterval returns the inter-pulse interval at the given tempo:
// (60,000 / BPM) / 24 milliseconds.
func PulseInterval(bpm float64) time.Duration {
	ms := 60000.0 / bpm / PPQ
	return time.Duration(ms * float64(time.Millisecond))
}

// Start emits the transport-start signal and schedules the first pulse.
func (c *ClockGenerator) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		debug.Log("clock", "Start ignored: already running")
		return
	}
	c.running = true
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.sink.Start()
	c.chain(gen, c.scheduler.Now())
}

// Stop emits the transport-stop signal. Already-scheduled pulses are not
// dequeued here; the owning playback driver flushes the scheduler.
func (c *ClockGenerator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		debug.Log("clock", "Stop ignored: not running")
		return
	}
	c.running = false
	c.mu.Unlock()
	c.sink.Stop()
}

// Running reports whether the pulse chain is live.
func (c *ClockGenerator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// live reports whether a pulse from run gen may still fire.
func (c *ClockGenerator) live(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && gen == c.gen
}

// chain schedules the pulse at target; the fired pulse emits the clock
// signal and schedules its successor before returning.
func (c *ClockGenerator) chain(gen int, target time.Time) {
	c.scheduler.ScheduleEvent(func() {
		if !c.live(gen) {
			return
		}
		c.sink.Clock()
		c.chain(gen, target.Add(PulseInterval(c.bpm())))
	}, target)
}
