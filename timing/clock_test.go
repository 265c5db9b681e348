package timing

import (
	"math"
	"sync"
	"testing"
	"time"
)

type countingSink struct {
	starts, stops, clocks int
}

func (s *countingSink) Start() { s.starts++ }
func (s *countingSink) Stop()  { s.stops++ }
func (s *countingSink) Clock() { s.clocks++ }

func TestPulseIntervalMath(t *testing.T) {
	cases := []struct {
		bpm  float64
		want float64 // milliseconds
	}{
		{120, 60000.0 / 120 / 24}, // 20.833...
		{60, 60000.0 / 60 / 24},   // 41.666...
		{240, 60000.0 / 240 / 24},
	}
	for _, tc := range cases {
		got := PulseInterval(tc.bpm).Seconds() * 1000
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("PulseInterval(%v) = %.4fms, want %.4fms", tc.bpm, got, tc.want)
		}
	}
	if PulseInterval(60) < 2*PulseInterval(120)-time.Microsecond ||
		PulseInterval(60) > 2*PulseInterval(120)+time.Microsecond {
		t.Error("halving the tempo should double the pulse interval")
	}
}

func TestClockChainsPulsesThroughScheduler(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)
	sink := &countingSink{}

	bpm := 120.0
	gen := NewClockGenerator(s, sink, func() float64 { return bpm })

	gen.Start()
	if sink.starts != 1 {
		t.Fatalf("starts = %d, want 1", sink.starts)
	}
	gen.Start() // redundant, logged no-op
	if sink.starts != 1 {
		t.Fatalf("redundant Start emitted another transport start")
	}

	// 100ms window at 120 BPM covers pulses at 0, 20.8, 41.7, 62.5, 83.3
	s.Pump(clock.Now())
	if sink.clocks != 5 {
		t.Fatalf("clocks = %d after first pump, want 5", sink.clocks)
	}

	// next pulse remains queued for the following window
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want the chained next pulse", s.Pending())
	}
}

func TestClockTempoChangeTakesEffectNextPulse(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)
	sink := &countingSink{}

	bpm := 120.0
	gen := NewClockGenerator(s, sink, func() float64 { return bpm })
	gen.Start()
	s.Pump(clock.Now())
	fired := sink.clocks

	// double the tempo; no cancellation or rescheduling needed
	bpm = 240
	clock.advance(100 * time.Millisecond)
	s.Pump(clock.Now())
	// at 240 BPM pulses come every 10.4ms, so the second window fires
	// roughly twice as many
	if sink.clocks-fired < 2*fired-3 {
		t.Errorf("tempo change not picked up: %d pulses in second window", sink.clocks-fired)
	}
}

func TestClockStopHaltsChainWithoutDequeue(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)
	sink := &countingSink{}

	gen := NewClockGenerator(s, sink, func() float64 { return 120 })
	gen.Start()
	s.Pump(clock.Now())

	gen.Stop()
	if sink.stops != 1 {
		t.Fatalf("stops = %d, want 1", sink.stops)
	}
	gen.Stop() // redundant
	if sink.stops != 1 {
		t.Fatal("redundant Stop emitted another transport stop")
	}

	// the already-queued pulse stays queued (the playback driver owns the
	// flush), but firing it emits nothing
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	before := sink.clocks
	clock.advance(time.Second)
	s.Pump(clock.Now())
	if sink.clocks != before {
		t.Error("pulse emitted after Stop")
	}
}

// lockedSink is safe to read from the test goroutine while pulses fire on
// the poll goroutine.
type lockedSink struct {
	mu     sync.Mutex
	clocks int
}

func (s *lockedSink) Start() {}
func (s *lockedSink) Stop()  {}
func (s *lockedSink) Clock() {
	s.mu.Lock()
	s.clocks++
	s.mu.Unlock()
}

func (s *lockedSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clocks
}

// Transport toggles arrive from the UI goroutine while pulses fire on the
// poll goroutine. Run with -race.
func TestClockStopRacesPollLoop(t *testing.T) {
	s := NewScheduler(Config{PollInterval: time.Millisecond})
	defer s.Stop()
	sink := &lockedSink{}
	gen := NewClockGenerator(s, sink, func() float64 { return 240 })

	s.Start()
	for i := 0; i < 20; i++ {
		gen.Start()
		time.Sleep(5 * time.Millisecond)
		gen.Stop()
		if gen.Running() {
			t.Fatal("running after Stop")
		}
	}

	if sink.count() == 0 {
		t.Error("no pulses fired across twenty runs")
	}
	// a stopped chain stays stopped: at most one in-flight pulse lands
	after := sink.count()
	time.Sleep(20 * time.Millisecond)
	if drift := sink.count() - after; drift > 1 {
		t.Errorf("%d pulses fired after the final Stop", drift)
	}
}
