// Package protocol defines the websocket wire format shared by the
// controller and its observers.
//
// Every frame is a JSON envelope with an explicit type tag. The server
// sends one snapshot when a session opens and a delta after every accepted
// toggle; observers send toggle requests.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lightswitch/switchboard/internal/output"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgDelta    MessageType = "delta"
	MsgToggle   MessageType = "toggle"
)

// ErrUnknownType is returned when a frame carries an unexpected type tag.
var ErrUnknownType = errors.New("unknown message type")

// WSMessage is the envelope for all websocket frames. Seq is the store
// version the message reflects; toggle requests leave it zero.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

type SnapshotPayload struct {
	Lines []int `json:"lines"`
}

type DeltaPayload struct {
	Index int `json:"index"`
}

type TogglePayload struct {
	Index int `json:"index"`
}

// Update is a decoded server frame: either a Snapshot or a Delta.
type Update interface {
	update()
}

// Snapshot carries the full output vector.
type Snapshot struct {
	Lines output.Vector
	Seq   uint64
}

// Delta instructs the observer to flip the bit at Index.
type Delta struct {
	Index int
	Seq   uint64
}

func (Snapshot) update() {}
func (Delta) update()    {}

func encode(t MessageType, seq uint64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: t, Seq: seq, Payload: raw})
}

// LinesToInts converts a vector to its wire representation.
func LinesToInts(v output.Vector) []int {
	out := make([]int, output.Lines)
	for i, b := range v {
		out[i] = int(b)
	}
	return out
}

// IntsToLines validates and converts the wire representation of a vector.
func IntsToLines(lines []int) (output.Vector, error) {
	bits := make([]output.Bit, len(lines))
	for i, n := range lines {
		if n != 0 && n != 1 {
			return output.Vector{}, fmt.Errorf("line %d: invalid bit %d", i, n)
		}
		bits[i] = output.Bit(n)
	}
	return output.FromSlice(bits)
}

func EncodeSnapshot(v output.Vector, seq uint64) ([]byte, error) {
	return encode(MsgSnapshot, seq, SnapshotPayload{Lines: LinesToInts(v)})
}

func EncodeDelta(index int, seq uint64) ([]byte, error) {
	return encode(MsgDelta, seq, DeltaPayload{Index: index})
}

func EncodeToggle(index int) ([]byte, error) {
	return encode(MsgToggle, 0, TogglePayload{Index: index})
}

// DecodeUpdate parses a server frame. Delta indices are not range checked
// here; the mirror rejects them when applying.
func DecodeUpdate(data []byte) (Update, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgSnapshot:
		var p SnapshotPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("snapshot payload: %w", err)
		}
		v, err := IntsToLines(p.Lines)
		if err != nil {
			return nil, fmt.Errorf("snapshot payload: %w", err)
		}
		return Snapshot{Lines: v, Seq: msg.Seq}, nil
	case MsgDelta:
		var p DeltaPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("delta payload: %w", err)
		}
		return Delta{Index: p.Index, Seq: msg.Seq}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

// DecodeToggle parses an observer frame and returns the requested index.
// The index is not range checked.
func DecodeToggle(data []byte) (int, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, err
	}
	if msg.Type != MsgToggle {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	var p TogglePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return 0, fmt.Errorf("toggle payload: %w", err)
	}
	return p.Index, nil
}
