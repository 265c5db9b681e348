package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"go-gridseq/sequencer"
	"go-gridseq/theme"
	"go-gridseq/theory"
	"go-gridseq/widgets"
)

const (
	gridCols = 32 // whole steps shown
	gridRows = 16 // pitches shown
)

// PositionMsg carries a playhead update from the engine.
type PositionMsg float64

// Model is the bubbletea front end over the engine and editor.
type Model struct {
	Engine *sequencer.PlaybackEngine
	Editor *sequencer.Editor
	Theme  *theme.Theme

	positions chan float64

	cursorStep  float64
	cursorPitch int
	colOffset   int

	figureIdx int
	randKind  sequencer.RandomizeKind
	playhead  float64
	status    string
	quitting  bool
}

// NewModel wires the model and hooks the engine's position callback into
// a channel the tea loop listens on.
func NewModel(engine *sequencer.PlaybackEngine, editor *sequencer.Editor, th *theme.Theme) *Model {
	m := &Model{
		Engine:      engine,
		Editor:      editor,
		Theme:       th,
		positions:   make(chan float64, 8),
		cursorPitch: 60,
	}
	engine.OnPosition = func(step float64) {
		select {
		case m.positions <- step:
		default:
			// Drop if the UI is behind; the next update supersedes it.
		}
	}
	return m
}

func listenForPositions(ch chan float64) tea.Cmd {
	return func() tea.Msg {
		return PositionMsg(<-ch)
	}
}

func (m *Model) Init() tea.Cmd {
	return listenForPositions(m.positions)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PositionMsg:
		m.playhead = float64(msg)
		return m, listenForPositions(m.positions)

	case tea.BlurMsg:
		m.Engine.SetBackgrounded(true)

	case tea.FocusMsg:
		m.Engine.SetBackgrounded(false)

	case tea.KeyMsg:
		m.handleKey(msg.String())
		if m.quitting {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleKey(key string) {
	ed := m.Editor
	switch key {
	case "ctrl+c", "Q":
		m.Engine.Stop()
		m.Engine.Panic()
		m.quitting = true

	case "p":
		if m.Engine.Playing() {
			m.Engine.Stop()
			m.Engine.Panic()
			m.status = "stopped"
		} else {
			m.Engine.Start()
			m.status = "playing"
		}
	case "!":
		m.Engine.Panic()
		m.status = "panic: all notes off"

	case "+", "=":
		m.Engine.SetBPM(m.Engine.BPM() + 5)
	case "-", "_":
		m.Engine.SetBPM(m.Engine.BPM() - 5)

	case "h", "left":
		if m.cursorStep > 0 {
			m.cursorStep--
		}
	case "l", "right":
		if m.cursorStep < ed.Seq().Length()-1 {
			m.cursorStep++
		}
	case "j", "down":
		if m.cursorPitch > 0 {
			m.cursorPitch--
		}
	case "k", "up":
		if m.cursorPitch < 127 {
			m.cursorPitch++
		}

	case " ":
		ed.ToggleNote(m.cursorStep, m.cursorPitch)
	case "s":
		if _, ok := ed.Seq().NoteAt(m.cursorStep, m.cursorPitch); ok {
			ed.Selection.Toggle(sequencer.NoteRef{Step: m.cursorStep, Pitch: m.cursorPitch})
		}
	case "S":
		ed.Selection.Clear()

	case "u":
		if !ed.Undo() {
			m.status = "nothing to undo"
		} else {
			m.status = "undo"
		}
	case "U", "ctrl+r":
		if !ed.Redo() {
			m.status = "nothing to redo"
		} else {
			m.status = "redo"
		}

	case "o":
		ed.CycleScope()
		m.status = "scope: " + ed.Scope.String()

	case "[":
		ed.Nudge(-sequencer.Substep)
	case "]":
		ed.Nudge(sequencer.Substep)
	case "{":
		ed.Nudge(-1)
	case "}":
		ed.Nudge(1)

	case "t":
		ed.Transpose(1)
	case "T":
		ed.Transpose(-1)
	case "y":
		ed.Transpose(12)
	case "Y":
		ed.Transpose(-12)

	case "q":
		ed.Quantize()
	case "v":
		ed.Reverse()

	case "x":
		m.randKind = m.randKind.Next()
		m.status = "randomize: " + m.randKind.String()
	case "z":
		ed.Randomize(m.randKind)

	case "g":
		m.figureIdx = (m.figureIdx + 1) % len(sequencer.Figures)
		m.status = "figure: " + sequencer.Figures[m.figureIdx].Name
	case "f":
		ed.ApplyFigure(sequencer.Figures[m.figureIdx])

	case "c":
		root := 0
		if ed.Scale != nil {
			root = ed.Scale.Root()
		}
		ed.ChordQuantize(theory.NewChord(root, "maj"))

	case "n":
		if ed.Scale != nil {
			ed.Scale.SetEnabled(!ed.Scale.Enabled())
			m.status = fmt.Sprintf("scale snap: %v", ed.Scale.Enabled())
		}

	case "tab":
		m.Engine.SetActive((m.Engine.ActiveIndex() + 1) % len(m.Engine.Sequences()))

	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '8' {
			m.Engine.SetActive(int(key[0] - '1'))
		}
	}

	// keep the cursor column in view
	if int(m.cursorStep) < m.colOffset {
		m.colOffset = int(m.cursorStep)
	} else if int(m.cursorStep) >= m.colOffset+gridCols {
		m.colOffset = int(m.cursorStep) - gridCols + 1
	}
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func noteName(pitch int) string {
	return fmt.Sprintf("%2s%d", noteNames[pitch%12], pitch/12)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	seq := m.Editor.Seq()
	th := m.Theme
	var out strings.Builder

	state := th.Stopped.Render("stopped")
	if m.Engine.Playing() {
		state = th.Playing.Render("playing")
	}
	selected := ""
	if n := m.Editor.Selection.Count(); n > 0 {
		selected = th.Selected.Render(fmt.Sprintf("sel %d", n))
	}
	out.WriteString(widgets.RenderStatusBar(
		th.Title.Render("go-gridseq"),
		state,
		fmt.Sprintf("%.0f bpm", m.Engine.BPM()),
		fmt.Sprintf("track %d ch %d", m.Engine.ActiveIndex()+1, seq.Channel()),
		"scope "+m.Editor.Scope.String(),
		"rnd "+m.randKind.String(),
		"fig "+sequencer.Figures[m.figureIdx].Name,
		selected,
	))
	out.WriteString("\n\n")

	loop := seq.Loop()
	topPitch := m.cursorPitch + gridRows/2

	for row := 0; row < gridRows; row++ {
		pitch := topPitch - row
		if pitch < 0 || pitch > 127 {
			continue
		}
		out.WriteString(th.Muted.Render(noteName(pitch)) + " ")

		for col := 0; col < gridCols; col++ {
			step := float64(m.colOffset + col)
			cell := m.cellRune(seq, loop, step, pitch)
			out.WriteRune(cell)
			out.WriteByte(' ')
		}
		out.WriteByte('\n')
	}

	out.WriteString("\n")
	if m.status != "" {
		style := th.Accent
		if strings.HasPrefix(m.status, "panic") {
			style = th.Warning
		}
		out.WriteString(style.Render(m.status) + "\n")
	}
	if last := m.Editor.History.LastDescription(); last != "" {
		out.WriteString(th.Muted.Render("last: "+last) + "\n")
	}
	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Transport", Keys: []widgets.KeyBinding{
			{Key: "p", Desc: "play/stop"},
			{Key: "+ / -", Desc: "tempo"},
			{Key: "!", Desc: "panic"},
		}},
		{Title: "Edit", Keys: []widgets.KeyBinding{
			{Key: "hjkl", Desc: "cursor"},
			{Key: "space", Desc: "toggle note"},
			{Key: "s / S", Desc: "select / clear"},
			{Key: "u / U", Desc: "undo / redo"},
		}},
		{Title: "Transform", Keys: []widgets.KeyBinding{
			{Key: "o", Desc: "cycle scope"},
			{Key: "[ ] { }", Desc: "nudge"},
			{Key: "t/T y/Y", Desc: "transpose semi/oct"},
			{Key: "q / v", Desc: "quantize / reverse"},
			{Key: "x / z", Desc: "pick / roll randomize"},
			{Key: "g / f", Desc: "pick / apply figure"},
			{Key: "c / n", Desc: "chord snap / scale snap"},
		}},
	}))

	return out.String()
}

// cellRune picks the glyph for one grid cell: cursor beats playhead beats
// note beats empty, with off-grid notes marked distinctly.
func (m *Model) cellRune(seq *sequencer.Sequence, loop sequencer.LoopMarkers, step float64, pitch int) rune {
	sym := m.Theme.Symbols

	onGrid := false
	offGrid := false
	for sub := 0; sub < sequencer.SubstepsPerStep; sub++ {
		pos := sequencer.SnapStep(step + float64(sub)*sequencer.Substep)
		if _, ok := seq.NoteAt(pos, pitch); ok {
			if sub == 0 {
				onGrid = true
			} else {
				offGrid = true
			}
		}
	}

	cursor := step == m.cursorStep && pitch == m.cursorPitch
	switch {
	case cursor && (onGrid || offGrid):
		return sym.CursorActive
	case cursor:
		return sym.CursorEmpty
	case onGrid:
		return sym.StepActive
	case offGrid:
		return sym.StepOffGrid
	case m.Engine.Playing() && m.playhead >= 0 && step == m.playhead:
		return sym.StepPlayhead
	case step >= loop.End:
		return sym.StepBeyond
	default:
		return sym.StepEmpty
	}
}
