package timing

import (
	"sync"
	"time"

	"go-gridseq/debug"
)

// Default polling and lookahead intervals. The lookahead window widens to
// ThrottledLookahead while the host reports itself backgrounded, so pulses
// survive coarse timer resolution without audible gaps.
const (
	DefaultPollInterval       = 25 * time.Millisecond
	DefaultLookahead          = 100 * time.Millisecond
	DefaultThrottledLookahead = 500 * time.Millisecond
)

// Event is a callback due at an absolute time. Events live only in the
// scheduler queue: they are dropped when fired or on ClearEvents.
type Event struct {
	At       time.Time
	Callback func()
}

// Config tunes a Scheduler. Zero values fall back to the defaults above.
// Now is injectable so hosts and tests can drive deterministic time.
type Config struct {
	PollInterval       time.Duration
	Lookahead          time.Duration
	ThrottledLookahead time.Duration
	Now                func() time.Time
}

// Scheduler keeps a time-sorted queue of pending events and fires every
// event that falls inside the lookahead window on each poll. It is the
// single arbiter of "when": clock pulses and playback steps all funnel
// through the same queue, which totally orders them by timestamp.
type Scheduler struct {
	mu      sync.Mutex
	queue   []Event
	running bool

	pollInterval       time.Duration
	lookahead          time.Duration
	throttledLookahead time.Duration
	throttled          bool

	now      func() time.Time
	stopChan chan struct{}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.ThrottledLookahead <= 0 {
		cfg.ThrottledLookahead = DefaultThrottledLookahead
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		pollInterval:       cfg.PollInterval,
		lookahead:          cfg.Lookahead,
		throttledLookahead: cfg.ThrottledLookahead,
		now:                cfg.Now,
	}
}

// Now returns the scheduler's view of the current time. Chained producers
// (clock pulses, playback steps) derive their next target times from this.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Start begins the poll loop. Calling Start on a running scheduler logs
// and does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		debug.Log("sched", "Start ignored: already running")
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go s.pollLoop(stop)
}

// Stop halts polling and discards all pending events unconditionally.
// Calling Stop on a stopped scheduler logs and does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		debug.Log("sched", "Stop ignored: not running")
		return
	}
	s.running = false
	close(s.stopChan)
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()

	if dropped > 0 {
		debug.Log("sched", "Stop dropped %d pending events", dropped)
	}
}

// Running reports whether the poll loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Pump(s.now())
		}
	}
}

// ScheduleEvent inserts an event into the queue, kept sorted ascending by
// time. Insertion scans from the back: chained producers almost always
// append, so the common case is O(1).
func (s *Scheduler) ScheduleEvent(callback func(), at time.Time) {
	if callback == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.queue)
	for i > 0 && s.queue[i-1].At.After(at) {
		i--
	}
	s.queue = append(s.queue, Event{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = Event{At: at, Callback: callback}
}

// ClearEvents empties the queue without stopping the poll loop. Used to
// cancel queued note-offs and clock pulses on transport stop without
// tearing down the timer.
func (s *Scheduler) ClearEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SetBackgrounded widens the lookahead window while the host is throttled
// (background tab, suspended terminal) and restores it when foregrounded.
func (s *Scheduler) SetBackgrounded(throttled bool) {
	s.mu.Lock()
	changed := s.throttled != throttled
	s.throttled = throttled
	s.mu.Unlock()
	if changed {
		debug.Log("sched", "backgrounded=%v", throttled)
	}
}

// Lookahead returns the window currently in effect.
func (s *Scheduler) Lookahead() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLookahead()
}

func (s *Scheduler) currentLookahead() time.Duration {
	if s.throttled {
		return s.throttledLookahead
	}
	return s.lookahead
}

// Pump fires, in time order, every queued event due within the lookahead
// window measured from now. It is the poll body; deterministic hosts and
// tests may drive it directly instead of calling Start. Returns the number
// of events fired.
//
// A panic from one callback is recovered and logged, never aborting the
// pump or dropping sibling events. Callbacks may schedule further events
// (self-chaining producers); those are picked up in the same pump if they
// land inside the window.
func (s *Scheduler) Pump(now time.Time) int {
	horizon := now.Add(s.Lookahead())
	fired := 0

	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].At.After(horizon) {
			s.mu.Unlock()
			return fired
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fire(ev)
		fired++
	}
}

func (s *Scheduler) fire(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log("sched", "event callback panic: %v", r)
		}
	}()
	ev.Callback()
}
