// Package theme provides the Lip Gloss color palette and reusable styles
// for the switchboard TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Line colors.
var (
	ColorLineHigh = lipgloss.Color("#ffff66")
	ColorLineLow  = lipgloss.Color("#374151")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorDark    = lipgloss.Color("#111827")
	ColorAccent  = lipgloss.Color("#2563eb")
	ColorPending = lipgloss.Color("#7c3aed")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// LineColor returns the lamp color for a line level.
func LineColor(high bool) lipgloss.Color {
	if high {
		return ColorLineHigh
	}
	return ColorLineLow
}

// Swatch returns the six-digit background color for a two-digit hex value:
// the byte repeated three times, so 00 is black, FF is white and the rest
// are greys.
func Swatch(hex string) lipgloss.Color {
	if len(hex) != 2 {
		return ColorDark
	}
	return lipgloss.Color("#" + hex + hex + hex)
}

// SwatchForeground picks a readable text color on top of Swatch(hex).
func SwatchForeground(decimal uint8) lipgloss.Color {
	if decimal >= 0x80 {
		return ColorDark
	}
	return ColorBright
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
