package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

var sectionStyle = lipgloss.NewStyle().Bold(true)
var keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc"))

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sectionStyle.Render(sec.Title))
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %s %s", keyStyle.Render(fmt.Sprintf("%-12s", k.Key)), k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderStatusBar joins status cells with separators on one line.
func RenderStatusBar(cells ...string) string {
	var kept []string
	for _, c := range cells {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, "  │  ")
}
