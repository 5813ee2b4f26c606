package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lightswitch/switchboard/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Seeded    bool
	URL       string
	Seq       uint64
	Applied   int
	Pending   int
	Width     int
}

// New creates a status bar model.
func New(url string) Model {
	return Model{URL: url}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.Connected && m.Seeded:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case m.Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Awaiting snapshot")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + theme.StyleDimmed.Render(m.URL)
	if m.Seeded {
		content += sep + fmt.Sprintf("seq %d  %d applied", m.Seq, m.Applied)
	}
	if m.Pending > 0 {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorPending).
			Render(fmt.Sprintf("%d pending", m.Pending))
	}

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return bar
}
