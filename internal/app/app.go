package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lightswitch/switchboard/internal/client"
	"github.com/lightswitch/switchboard/internal/mirror"
	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/protocol"
	"github.com/lightswitch/switchboard/internal/theme"
	"github.com/lightswitch/switchboard/internal/views/debug"
	"github.com/lightswitch/switchboard/internal/views/panel"
	"github.com/lightswitch/switchboard/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDebug
)

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	// mirror is replaced on every new session.
	mirror *mirror.Mirror

	overlay Overlay

	// Sub-views.
	statusBar status.Model
	panel     panel.Model
	debugLog  debug.Log

	connected bool
}

// New creates the root model for the given client. url is shown in the
// status bar.
func New(ws *client.WSClient, url string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:        ws,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		mirror:    mirror.New(),
		statusBar: status.New(url),
		panel:     panel.New(),
		debugLog:  debug.New(),
	}
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.panel.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.debugLog.Record(debug.KindSession, "session opened")
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.resetSession()
		if msg.Err != nil {
			m.debugLog.Record(debug.KindSession, "session closed: %v", msg.Err)
		}
		return m, m.ws.Listen(m.ctx)

	case client.WSSnapshotMsg:
		m.panel.Pending = [output.Lines]bool{}
		m.apply(msg.Snapshot)
		m.debugLog.Record(debug.KindSnapshot, "%s (#%s) at seq %d",
			msg.Snapshot.Lines, msg.Snapshot.Lines.Hex(), msg.Snapshot.Seq)
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDeltaMsg:
		if m.apply(msg.Delta) {
			m.panel.Pending[msg.Delta.Index] = false
			m.debugLog.Record(debug.KindDelta, "line %d flipped at seq %d", msg.Delta.Index+1, msg.Delta.Seq)
		}
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSBadFrameMsg:
		m.debugLog.Record(debug.KindError, "bad frame %q: %v", msg.Raw, msg.Err)
		return m, m.ws.ReadLoop(m.ctx)
	}

	return m, nil
}

// apply folds u into the mirror and refreshes the views. Rejected updates
// are logged and leave the display unchanged.
func (m *Model) apply(u protocol.Update) bool {
	if err := m.mirror.Apply(u); err != nil {
		if errors.Is(err, mirror.ErrNoSnapshot) {
			m.debugLog.Record(debug.KindError, "delta before snapshot ignored")
		} else {
			m.debugLog.Record(debug.KindError, "update rejected: %v", err)
		}
		return false
	}
	m.panel.Set(m.mirror.Lines(), m.mirror.View())
	m.statusBar.Seeded = true
	m.statusBar.Seq = m.mirror.LastSeq()
	m.statusBar.Applied = m.mirror.Applied()
	m.statusBar.Pending = m.pending()
	return true
}

func (m *Model) resetSession() {
	m.mirror = mirror.New()
	m.panel = panel.New()
	m.panel.Width = m.width
	m.statusBar.Connected = false
	m.statusBar.Seeded = false
	m.statusBar.Pending = 0
}

func (m Model) pending() int {
	n := 0
	for _, p := range m.panel.Pending {
		if p {
			n++
		}
	}
	return n
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		m.ws.Drop()
		return m, tea.Quit
	}

	if m.overlay == OverlayDebug {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debugLog.Scroll(1)
		case key.Matches(msg, m.keys.Down):
			m.debugLog.Scroll(-1)
		}
		return m, nil
	}

	if i := m.keys.lineFor(msg); i >= 0 {
		m.requestToggle(i)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reconnect):
		m.debugLog.Record(debug.KindSession, "reconnecting for a fresh snapshot")
		m.ws.Drop()
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	}

	return m, nil
}

func (m *Model) requestToggle(index int) {
	if !m.mirror.Seeded() {
		m.debugLog.Record(debug.KindKey, "line %d: no snapshot yet", index+1)
		return
	}
	if err := m.ws.Toggle(index); err != nil {
		m.debugLog.Record(debug.KindError, "toggle line %d: %v", index+1, err)
		return
	}
	m.panel.Pending[index] = true
	m.statusBar.Pending = m.pending()
	m.debugLog.Record(debug.KindKey, "toggle line %d requested", index+1)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.overlay == OverlayDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.statusBar.View(),
			m.debugLog.View(m.width, m.height-3),
		)
	}

	body := m.panel.Render()
	if !m.connected {
		body = m.renderDisconnected()
	}

	sections := []string{
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  1-8:toggle  r:reconnect  d:debug  q:quit"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderDisconnected() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("DISCONNECTED")
	sub := theme.StyleDimmed.Render("Reconnecting to the controller...")
	return theme.StyleBorder.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Center, title, sub))
}
