package hardware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lightswitch/switchboard/internal/output"
)

var errInjected = errors.New("injected failure")

// Memory is an in-process Port used for development and tests. Reads and
// writes can be delayed and made to fail per line.
type Memory struct {
	mu        sync.Mutex
	bits      output.Vector
	failRead  [output.Lines]bool
	failWrite [output.Lines]bool
	latency   time.Duration
	active    [output.Lines]int
	overlaps  int
	writes    int
}

func NewMemory() *Memory {
	return &Memory{}
}

// Set replaces the line levels.
func (m *Memory) Set(v output.Vector) {
	m.mu.Lock()
	m.bits = v
	m.mu.Unlock()
}

// Levels returns the current line levels.
func (m *Memory) Levels() output.Vector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bits
}

// SetLatency delays every read and write by d.
func (m *Memory) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

// FailReads makes reads of line index fail while on is true.
func (m *Memory) FailReads(index int, on bool) {
	m.mu.Lock()
	m.failRead[index] = on
	m.mu.Unlock()
}

// FailWrites makes writes of line index fail while on is true.
func (m *Memory) FailWrites(index int, on bool) {
	m.mu.Lock()
	m.failWrite[index] = on
	m.mu.Unlock()
}

// Overlaps counts accesses that found another access to the same line
// still in progress.
func (m *Memory) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

// Writes counts successful writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) ReadLine(ctx context.Context, index int) (output.Bit, error) {
	if err := output.CheckIndex(index); err != nil {
		return output.Low, err
	}
	fail, err := m.enter(ctx, index, &m.failRead)
	defer m.leave(index)
	if err != nil {
		return output.Low, fault("read", index, err)
	}
	if fail {
		return output.Low, fault("read", index, errInjected)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bits[index], nil
}

func (m *Memory) WriteLine(ctx context.Context, index int, bit output.Bit) error {
	if err := output.CheckIndex(index); err != nil {
		return err
	}
	fail, err := m.enter(ctx, index, &m.failWrite)
	defer m.leave(index)
	if err != nil {
		return fault("write", index, err)
	}
	if fail {
		return fault("write", index, errInjected)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bits[index] = bit
	m.writes++
	return nil
}

func (m *Memory) enter(ctx context.Context, index int, failures *[output.Lines]bool) (bool, error) {
	m.mu.Lock()
	m.active[index]++
	if m.active[index] > 1 {
		m.overlaps++
	}
	fail := failures[index]
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return fail, ctx.Err()
		}
	}
	return fail, nil
}

func (m *Memory) leave(index int) {
	m.mu.Lock()
	m.active[index]--
	m.mu.Unlock()
}
