package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-gridseq/config"
	"go-gridseq/debug"
	"go-gridseq/midi"
	"go-gridseq/sequencer"
	"go-gridseq/theme"
	"go-gridseq/theory"
	"go-gridseq/timing"
	"go-gridseq/tui"
)

func main() {
	if v := os.Getenv("GRIDSEQ_DEBUG"); v != "" {
		if err := debug.Enable(v); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var out midi.Output = midi.Nop{}
	if cfg.OutputPort != "" {
		out = midi.OpenPort(cfg.OutputPort)
	}

	var sequences []*sequencer.Sequence
	for _, tc := range cfg.Tracks {
		seq := sequencer.NewSequence()
		if err := seq.SetLoop(tc.LoopStart, tc.LoopEnd); err != nil {
			fmt.Fprintf(os.Stderr, "track loop: %v\n", err)
			os.Exit(1)
		}
		if tc.Length > 0 {
			if err := seq.SetLength(tc.Length); err != nil {
				fmt.Fprintf(os.Stderr, "track length: %v\n", err)
				os.Exit(1)
			}
		}
		if err := seq.SetChannel(tc.Channel); err != nil {
			fmt.Fprintf(os.Stderr, "track channel: %v\n", err)
			os.Exit(1)
		}
		sequences = append(sequences, seq)
	}

	scheduler := timing.NewScheduler(timing.Config{})
	engine := sequencer.NewPlaybackEngine(scheduler, out, sequences...)
	engine.SetActive(cfg.UI.ActiveTrack)
	if cfg.UI.LastTempo > 0 {
		engine.SetBPM(cfg.UI.LastTempo)
	}

	scale := theory.NewScaleManager()
	scale.SetScale(cfg.UI.Scale)
	scale.SetRoot(cfg.UI.ScaleRoot)
	scale.SetEnabled(cfg.UI.SnapToScale)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	editor := sequencer.NewEditor(engine, scale, cfg.HistoryDepth, rng)

	m := tui.NewModel(engine, editor, theme.New())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine.Stop()
	scheduler.Stop()

	cfg.UI.LastTempo = engine.BPM()
	cfg.UI.ActiveTrack = engine.ActiveIndex()
	cfg.UI.SnapToScale = scale.Enabled()
	cfg.UI.Scale = scale.Name()
	cfg.UI.ScaleRoot = scale.Root()
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "config save: %v\n", err)
	}
}
