// Package panel renders the eight output lines and their numeric value.
package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/theme"
)

// Model is the panel state. Pending marks lines with a toggle request in
// flight that has not yet come back as a delta.
type Model struct {
	Lines   output.Vector
	View    output.View
	Pending [output.Lines]bool
	Seeded  bool
	Width   int
}

func New() Model {
	return Model{View: output.Vector{}.View()}
}

// Set replaces the displayed state.
func (m *Model) Set(lines output.Vector, view output.View) {
	m.Lines = lines
	m.View = view
	m.Seeded = true
}

// Render draws the lamps, keys and the value box.
func (m Model) Render() string {
	if !m.Seeded {
		return theme.StyleBorder.Padding(1, 2).Render(
			theme.StyleDimmed.Render("Waiting for the controller's snapshot..."))
	}

	lamps := make([]string, 0, output.Lines)
	for i, bit := range m.Lines {
		lamps = append(lamps, m.lamp(i, bit))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, lamps...)

	value := lipgloss.NewStyle().
		Background(theme.Swatch(m.View.Hex)).
		Foreground(theme.SwatchForeground(m.View.Decimal)).
		Bold(true).
		Padding(1, 4).
		Render(fmt.Sprintf("%3d   #%s", m.View.Decimal, m.View.Hex))

	binary := theme.StyleDimmed.Render("binary " + m.Lines.String())

	body := lipgloss.JoinVertical(lipgloss.Center, row, "", value, binary)
	return theme.StyleBorder.Padding(1, 2).Render(body)
}

func (m Model) lamp(index int, bit output.Bit) string {
	high := bit == output.High
	glyph := "○"
	if high {
		glyph = "●"
	}
	border := theme.ColorBorder
	if m.Pending[index] {
		border = theme.ColorPending
	}

	face := lipgloss.NewStyle().
		Foreground(theme.LineColor(high)).
		Bold(high).
		Render(strings.Repeat(glyph, 3))
	label := theme.StyleDimmed.Render(fmt.Sprintf("%d", index+1))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, face, label))
}
