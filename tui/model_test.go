package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-gridseq/midi"
	"go-gridseq/sequencer"
	"go-gridseq/theme"
	"go-gridseq/timing"
)

func newTestModel(t *testing.T) (*Model, *timing.Scheduler) {
	t.Helper()
	s := timing.NewScheduler(timing.Config{
		PollInterval: time.Hour,
		Lookahead:    100 * time.Millisecond,
	})
	t.Cleanup(func() {
		if s.Running() {
			s.Stop()
		}
	})
	engine := sequencer.NewPlaybackEngine(s, midi.Nop{}, sequencer.NewSequence())
	editor := sequencer.NewEditor(engine, nil, 0, nil)
	return NewModel(engine, editor, theme.New()), s
}

func TestFocusMessagesThrottleScheduler(t *testing.T) {
	m, s := newTestModel(t)

	m.Update(tea.BlurMsg{})
	if s.Lookahead() != timing.DefaultThrottledLookahead {
		t.Errorf("lookahead = %v after blur, want %v", s.Lookahead(), timing.DefaultThrottledLookahead)
	}

	m.Update(tea.FocusMsg{})
	if s.Lookahead() != 100*time.Millisecond {
		t.Errorf("lookahead = %v after focus, want restored window", s.Lookahead())
	}
}

func TestQuitKeyStopsTransport(t *testing.T) {
	m, _ := newTestModel(t)

	m.Engine.Start()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no quit command")
	}
	if m.Engine.Playing() {
		t.Error("transport still playing after quit key")
	}
}
