package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestSwatch(t *testing.T) {
	tests := []struct {
		hex  string
		want lipgloss.Color
	}{
		{"00", "#000000"},
		{"FF", "#FFFFFF"},
		{"A1", "#A1A1A1"},
		{"", ColorDark},
		{"ABC", ColorDark},
	}
	for _, tt := range tests {
		if got := Swatch(tt.hex); got != tt.want {
			t.Errorf("Swatch(%q) = %q, want %q", tt.hex, got, tt.want)
		}
	}
}

func TestSwatchForeground(t *testing.T) {
	if SwatchForeground(0x00) != ColorBright {
		t.Error("dark swatch should use bright text")
	}
	if SwatchForeground(0xFF) != ColorDark {
		t.Error("light swatch should use dark text")
	}
}
