package theme

import "github.com/charmbracelet/lipgloss"

// Theme bundles the grid symbols and lipgloss styles the TUI renders with.
type Theme struct {
	Symbols Symbols

	Title    lipgloss.Style
	Playing  lipgloss.Style
	Stopped  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Selected lipgloss.Style
	Warning  lipgloss.Style
}

// Symbols are the grid cell runes.
type Symbols struct {
	StepEmpty    rune // · inactive step
	StepActive   rune // ● has note
	StepOffGrid  rune // ~ note off the whole-step grid
	StepPlayhead rune // ▶ current playing column
	StepBeyond   rune // - past loop end

	CursorEmpty  rune // ○ cursor on empty
	CursorActive rune // ◉ cursor on note
}

// New returns the default theme.
func New() *Theme {
	return &Theme{
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepOffGrid:  '~',
			StepPlayhead: '▶',
			StepBeyond:   '-',
			CursorEmpty:  '○',
			CursorActive: '◉',
		},
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c084fc")),
		Playing:  lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")),
		Stopped:  lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#475569")),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f472b6")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#facc15")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#fb923c")),
	}
}
