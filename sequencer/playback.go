package sequencer

import (
	"sync"
	"time"

	"go-gridseq/debug"
	"go-gridseq/midi"
	"go-gridseq/timing"
)

// PositionStopped is the position-callback sentinel reported on stop.
const PositionStopped = -1.0

// coScheduleWindow treats sequences as simultaneously due when their next
// step times fall within it. It only needs to sit far below the substep
// interval (≈10.4ms even at 240 BPM); 100µs is comfortable slack for
// float64 time arithmetic. Tunable, not load-bearing.
var coScheduleWindow = 100 * time.Microsecond

// rearmMargin is how far ahead of the next due step the engine schedules
// its own next pass.
const rearmMargin = 5 * time.Millisecond

// DefaultBPM is the starting tempo.
const DefaultBPM = 120.0

type playCursor struct {
	pos  float64 // step position, substep grid
	next time.Time
}

// PlaybackEngine drives N sequences through the shared scheduler, each
// independently respecting its own loop markers and MIDI channel. One
// "active" sequence reports whole-step positions for UI display, scheduled
// at the step's exact target time rather than at dispatch time.
//
// State machine: Stopped → Start() → Playing → Stop() → Stopped, with
// redundant calls logged as no-ops.
type PlaybackEngine struct {
	mu sync.Mutex

	scheduler *timing.Scheduler
	clock     *timing.ClockGenerator
	out       midi.Output

	sequences []*Sequence
	cursors   []playCursor
	active    int

	bpm     float64
	playing bool
	gen     int

	// OnPosition is invoked from the scheduler goroutine with the active
	// sequence's whole-step position, or PositionStopped after a stop.
	OnPosition func(step float64)
}

// NewPlaybackEngine wires the engine, its clock generator and the output.
func NewPlaybackEngine(scheduler *timing.Scheduler, out midi.Output, sequences ...*Sequence) *PlaybackEngine {
	e := &PlaybackEngine{
		scheduler: scheduler,
		out:       out,
		sequences: sequences,
		cursors:   make([]playCursor, len(sequences)),
		bpm:       DefaultBPM,
	}
	e.clock = timing.NewClockGenerator(scheduler, out, e.BPM)
	return e
}

// Sequences returns the driven sequences.
func (e *PlaybackEngine) Sequences() []*Sequence {
	return e.sequences
}

// ActiveIndex returns the index of the UI-visible sequence.
func (e *PlaybackEngine) ActiveIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetActive selects which sequence reports positions. Out-of-range
// indexes are ignored.
func (e *PlaybackEngine) SetActive(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx >= 0 && idx < len(e.sequences) {
		e.active = idx
	}
}

// ActiveSequence returns the UI-visible sequence.
func (e *PlaybackEngine) ActiveSequence() *Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sequences) == 0 {
		return nil
	}
	return e.sequences[e.active]
}

// BPM returns the live tempo. Used by the clock generator at every chain
// step, so a change lands on the next pulse.
func (e *PlaybackEngine) BPM() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bpm
}

// SetBPM validates and applies the tempo. Out-of-range values are a soft
// failure: logged and ignored, prior tempo retained. Steps already
// scheduled keep the timing computed from the BPM in effect when they
// were scheduled; the change is audible from the next unscheduled step.
func (e *PlaybackEngine) SetBPM(bpm float64) {
	if bpm <= 0 || bpm > 300 {
		debug.Log("engine", "SetBPM rejected: %v out of (0, 300]", bpm)
		return
	}
	e.mu.Lock()
	e.bpm = bpm
	e.mu.Unlock()
}

// Playing reports the transport state.
func (e *PlaybackEngine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// stepDuration returns one whole step's duration at the given tempo.
func stepDuration(bpm float64) time.Duration {
	ms := 60000.0 / bpm / StepsPerBeat
	return time.Duration(ms * float64(time.Millisecond))
}

// Start resets every cursor to its loop start, (re)starts the clock and
// scheduler, and schedules the first step of each sequence immediately.
// A redundant Start is a logged no-op.
func (e *PlaybackEngine) Start() {
	e.mu.Lock()
	if e.playing {
		e.mu.Unlock()
		debug.Log("engine", "Start ignored: already playing")
		return
	}
	e.playing = true
	e.gen++
	gen := e.gen

	now := e.scheduler.Now()
	for i, seq := range e.sequences {
		e.cursors[i] = playCursor{pos: seq.Loop().Start, next: now}
	}
	e.mu.Unlock()

	e.scheduler.Start()
	e.clock.Start()
	e.scheduler.ScheduleEvent(func() { e.stepPass(gen) }, now)
}

// Stop flips the state, stops the clock and flushes every scheduled event,
// including note-offs that haven't fired, which is why Panic exists as a
// separate synchronous sweep. Reports PositionStopped. A redundant Stop is
// a logged no-op.
func (e *PlaybackEngine) Stop() {
	e.mu.Lock()
	if !e.playing {
		e.mu.Unlock()
		debug.Log("engine", "Stop ignored: not playing")
		return
	}
	e.playing = false
	e.gen++
	cb := e.OnPosition
	e.mu.Unlock()

	e.clock.Stop()
	e.scheduler.ClearEvents()
	if cb != nil {
		cb(PositionStopped)
	}
}

// Panic silences sounding notes immediately via the transport.
func (e *PlaybackEngine) Panic() {
	e.out.Panic()
}

// SetBackgrounded widens the scheduler's lookahead window while the host
// terminal is unfocused, so coarse background timers don't starve pulses.
func (e *PlaybackEngine) SetBackgrounded(throttled bool) {
	e.scheduler.SetBackgrounded(throttled)
}

// stepPass processes every sequence whose next step time is within the
// co-scheduling window of the earliest one, then re-arms itself ahead of
// the next due step, perpetuating the chain while playing.
func (e *PlaybackEngine) stepPass(gen int) {
	e.mu.Lock()
	if !e.playing || gen != e.gen || len(e.cursors) == 0 {
		e.mu.Unlock()
		return
	}

	earliest := e.cursors[0].next
	for _, c := range e.cursors[1:] {
		if c.next.Before(earliest) {
			earliest = c.next
		}
	}

	type scheduled struct {
		at time.Time
		fn func()
	}
	var events []scheduled

	for i := range e.cursors {
		c := &e.cursors[i]
		if c.next.Sub(earliest) > coScheduleWindow {
			continue
		}
		seq := e.sequences[i]
		target := c.next
		pos := SnapStep(c.pos)
		channel := uint8(seq.Channel())
		stepDur := stepDuration(e.bpm)

		for _, n := range seq.NotesAt(pos) {
			pitch, vel := uint8(n.Pitch), uint8(n.Velocity)
			offAt := target.Add(time.Duration(n.Duration * float64(stepDur)))
			events = append(events,
				scheduled{target, func() { e.out.NoteOn(channel, pitch, vel) }},
				scheduled{offAt, func() { e.out.NoteOff(channel, pitch) }},
			)
		}

		if i == e.active && WholeStep(pos) && e.OnPosition != nil {
			cb, at := e.OnPosition, target
			events = append(events, scheduled{at, func() { cb(pos) }})
		}

		debug.LogEvery(4*SubstepsPerStep, "engine", "seq %d cursor %.2f", i, pos)

		// Advance by one substep, wrapping at the loop end.
		next := SnapStep(c.pos + Substep)
		if next >= seq.Loop().End-1e-9 {
			next = seq.Loop().Start
		}
		c.pos = next
		c.next = target.Add(stepDur / SubstepsPerStep)
	}

	nextDue := e.cursors[0].next
	for _, c := range e.cursors[1:] {
		if c.next.Before(nextDue) {
			nextDue = c.next
		}
	}
	e.mu.Unlock()

	for _, ev := range events {
		e.scheduler.ScheduleEvent(ev.fn, ev.at)
	}
	e.scheduler.ScheduleEvent(func() { e.stepPass(gen) }, nextDue.Add(-rearmMargin))
}

// NextStep returns where the cursor of the given sequence would land after
// pos, honoring the loop wrap.
func NextStep(seq *Sequence, pos float64) float64 {
	next := SnapStep(pos + Substep)
	if next >= seq.Loop().End-1e-9 {
		return seq.Loop().Start
	}
	return next
}
