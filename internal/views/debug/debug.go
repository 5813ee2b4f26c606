// Package debug keeps a bounded log of session events and renders it as an
// overlay.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lightswitch/switchboard/internal/theme"
)

// capacity is how many events the log retains.
const capacity = 200

// Kind tags an event with the subsystem that produced it.
type Kind string

const (
	KindSession  Kind = "ws"
	KindSnapshot Kind = "snap"
	KindDelta    Kind = "dlt"
	KindKey      Kind = "key"
	KindError    Kind = "err"
)

var kindColors = map[Kind]lipgloss.Color{
	KindSession:  theme.ColorAccent,
	KindSnapshot: theme.ColorHealthy,
	KindDelta:    theme.ColorLineHigh,
	KindKey:      theme.ColorPending,
	KindError:    theme.ColorDanger,
}

type Event struct {
	At   time.Time
	Kind Kind
	Text string
}

// Log is the event buffer behind the overlay. The zero value is ready to
// use.
type Log struct {
	events []Event
	// back counts events hidden below the viewport. Zero follows the tail.
	back int
}

func New() Log {
	return Log{}
}

// Record appends an event and snaps the viewport back to the newest entry.
func (l *Log) Record(kind Kind, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	l.events = append(l.events, Event{At: time.Now(), Kind: kind, Text: text})
	if over := len(l.events) - capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	l.back = 0
}

// Len reports how many events are retained.
func (l *Log) Len() int { return len(l.events) }

// Last returns the newest event.
func (l *Log) Last() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

// Scroll moves the viewport by delta events; positive values reveal older
// events. At least the oldest event always stays on screen.
func (l *Log) Scroll(delta int) {
	l.back = max(0, min(l.back+delta, len(l.events)-1))
}

// window returns the events that fit in rows, ending back events before the
// tail.
func (l *Log) window(rows int) []Event {
	end := len(l.events) - l.back
	return l.events[max(0, end-rows):end]
}

// View renders the overlay within a width by height cell box.
func (l Log) View(width, height int) string {
	inner := max(width-4, 20)
	rows := max(height-6, 3)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StyleHeader.Render(" EVENTS "),
		theme.StyleDimmed.Render(fmt.Sprintf("  %d of %d kept", len(l.events), capacity)),
	)
	footer := theme.StyleDimmed.Render("j/k scroll · esc close")

	var body strings.Builder
	shown := l.window(rows)
	if len(shown) == 0 {
		body.WriteString(theme.StyleDimmed.Render("  nothing logged"))
	}
	for i, e := range shown {
		if i > 0 {
			body.WriteByte('\n')
		}
		body.WriteString(renderEvent(e, inner))
	}
	if l.back > 0 {
		body.WriteString("\n" + theme.StyleDimmed.Render(fmt.Sprintf("  … %d newer", l.back)))
	}

	return lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body.String(), "", footer))
}

// stampWidth covers "15:04:05.000", the kind column and separators.
const stampWidth = 20

func renderEvent(e Event, width int) string {
	color, ok := kindColors[e.Kind]
	if !ok {
		color = theme.ColorDimmed
	}
	kind := lipgloss.NewStyle().Foreground(color).Width(5).Render(string(e.Kind))
	return theme.StyleDimmed.Render(e.At.Format("15:04:05.000")) + " " + kind + " " + clip(e.Text, width-stampWidth)
}

// clip shortens s to at most n terminal cells, ending the cut with an
// ellipsis. Wide runes and grapheme clusters are never split.
func clip(s string, n int) string {
	if n < 2 {
		return s
	}
	return ansi.Truncate(s, n, "…")
}
