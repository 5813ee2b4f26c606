// Package mirror reconstructs the controller's output vector on the
// observer side from the snapshot/delta message stream.
//
// A mirror has no way to detect a missed delta. The only way to recover
// from desynchronization is to open a new session, which starts with a
// fresh snapshot.
package mirror

import (
	"errors"
	"fmt"

	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/protocol"
)

// ErrNoSnapshot is returned for a delta that arrives before any snapshot.
var ErrNoSnapshot = errors.New("delta before snapshot")

// Mirror is one observer's local copy of the output vector. It is not safe
// for concurrent use.
type Mirror struct {
	lines   output.Vector
	view    output.View
	seeded  bool
	lastSeq uint64
	applied int
}

func New() *Mirror {
	m := &Mirror{}
	m.view = m.lines.View()
	return m
}

// Apply folds one server message into the local state. A snapshot replaces
// the vector wholesale; a delta flips exactly one bit. The derived view is
// recomputed from the full vector after every successful apply.
func (m *Mirror) Apply(u protocol.Update) error {
	switch msg := u.(type) {
	case protocol.Snapshot:
		m.lines = msg.Lines
		m.seeded = true
		m.lastSeq = msg.Seq
	case protocol.Delta:
		if !m.seeded {
			return ErrNoSnapshot
		}
		if err := m.lines.Flip(msg.Index); err != nil {
			return err
		}
		m.lastSeq = msg.Seq
	default:
		return fmt.Errorf("unsupported update %T", u)
	}
	m.applied++
	m.view = m.lines.View()
	return nil
}

// ApplyFrame decodes a raw websocket frame and applies it.
func (m *Mirror) ApplyFrame(data []byte) error {
	u, err := protocol.DecodeUpdate(data)
	if err != nil {
		return err
	}
	return m.Apply(u)
}

// Lines returns a copy of the local vector.
func (m *Mirror) Lines() output.Vector { return m.lines }

// View returns the decimal/hex projection of the local vector.
func (m *Mirror) View() output.View { return m.view }

// Seeded reports whether a snapshot has been applied.
func (m *Mirror) Seeded() bool { return m.seeded }

// LastSeq is the seq of the last applied message.
func (m *Mirror) LastSeq() uint64 { return m.lastSeq }

// Applied counts successfully applied messages.
func (m *Mirror) Applied() int { return m.applied }
