package timing

import (
	"testing"
	"time"
)

// fakeClock drives the scheduler deterministically.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestScheduler(c *fakeClock) *Scheduler {
	return NewScheduler(Config{
		PollInterval: time.Hour, // tests pump by hand
		Lookahead:    100 * time.Millisecond,
		Now:          c.Now,
	})
}

func TestPumpFiresInTimeOrder(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	var order []int
	now := clock.Now()
	s.ScheduleEvent(func() { order = append(order, 3) }, now.Add(30*time.Millisecond))
	s.ScheduleEvent(func() { order = append(order, 1) }, now.Add(10*time.Millisecond))
	s.ScheduleEvent(func() { order = append(order, 2) }, now.Add(20*time.Millisecond))

	fired := s.Pump(now)
	if fired != 3 {
		t.Fatalf("fired %d events, want 3", fired)
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("fire order %v, want ascending by time", order)
		}
	}
}

func TestPumpRespectsLookaheadWindow(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	const eps = time.Millisecond
	now := clock.Now()
	inside, outside := false, false
	s.ScheduleEvent(func() { inside = true }, now.Add(100*time.Millisecond-eps))
	s.ScheduleEvent(func() { outside = true }, now.Add(100*time.Millisecond+eps))

	s.Pump(now)
	if !inside {
		t.Error("event inside the lookahead window did not fire")
	}
	if outside {
		t.Error("event beyond the lookahead window fired early")
	}

	clock.advance(2 * eps)
	s.Pump(clock.Now())
	if !outside {
		t.Error("event did not fire once inside the window")
	}
}

func TestCallbackPanicDoesNotDropSiblings(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	now := clock.Now()
	var after bool
	s.ScheduleEvent(func() { panic("bad callback") }, now)
	s.ScheduleEvent(func() { after = true }, now.Add(time.Millisecond))

	fired := s.Pump(now)
	if fired != 2 {
		t.Fatalf("fired %d events, want 2", fired)
	}
	if !after {
		t.Error("sibling event dropped after a panicking callback")
	}
}

func TestChainedEventsFireInSamePump(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	now := clock.Now()
	count := 0
	var chain func(at time.Time)
	chain = func(at time.Time) {
		s.ScheduleEvent(func() {
			count++
			chain(at.Add(20 * time.Millisecond))
		}, at)
	}
	chain(now)

	s.Pump(now)
	// pulses at 0,20,40,60,80,100ms fall inside the 100ms window
	if count != 6 {
		t.Fatalf("chained count = %d, want 6", count)
	}
}

func TestClearEventsKeepsPolling(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	fired := false
	s.ScheduleEvent(func() { fired = true }, clock.Now())
	s.ClearEvents()

	if s.Pump(clock.Now()) != 0 || fired {
		t.Error("cleared event still fired")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after clear, want 0", s.Pending())
	}

	// queue still usable
	s.ScheduleEvent(func() { fired = true }, clock.Now())
	s.Pump(clock.Now())
	if !fired {
		t.Error("scheduler dead after ClearEvents")
	}
}

func TestBackgroundedWidensLookahead(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	fired := false
	s.ScheduleEvent(func() { fired = true }, clock.Now().Add(300*time.Millisecond))

	s.Pump(clock.Now())
	if fired {
		t.Fatal("event fired inside the normal window")
	}

	s.SetBackgrounded(true)
	if s.Lookahead() != DefaultThrottledLookahead {
		t.Fatalf("throttled lookahead = %v", s.Lookahead())
	}
	s.Pump(clock.Now())
	if !fired {
		t.Error("event not absorbed by the widened window")
	}

	s.SetBackgrounded(false)
	if s.Lookahead() != 100*time.Millisecond {
		t.Errorf("lookahead not restored: %v", s.Lookahead())
	}
}

func TestStopDiscardsPendingEvents(t *testing.T) {
	clock := newFakeClock()
	s := newTestScheduler(clock)

	s.Start()
	if !s.Running() {
		t.Fatal("not running after Start")
	}
	s.Start() // redundant start is a no-op

	s.ScheduleEvent(func() {}, clock.Now().Add(time.Second))
	s.Stop()
	if s.Running() {
		t.Fatal("still running after Stop")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after Stop, want 0", s.Pending())
	}
	s.Stop() // redundant stop is a no-op
}
