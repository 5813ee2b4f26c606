// Package state holds the authoritative output vector and serializes the
// toggle requests that mutate it.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightswitch/switchboard/internal/hardware"
	"github.com/lightswitch/switchboard/internal/output"
)

// Change is the result of one committed toggle.
type Change struct {
	Index   int
	Value   output.Bit
	Version uint64
}

// Store owns the authoritative output vector and is the only writer of the
// hardware port. Toggle must not be called concurrently for the same index;
// Reconciler provides that guarantee.
type Store struct {
	port hardware.Port

	mu      sync.RWMutex
	bits    output.Vector
	version uint64
}

// NewStore seeds a store by reading every line from port once. Failing to
// read any line is fatal: the authoritative state cannot be established.
func NewStore(ctx context.Context, port hardware.Port) (*Store, error) {
	s := &Store{port: port}
	for i := 0; i < output.Lines; i++ {
		bit, err := port.ReadLine(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i, err)
		}
		if !bit.Valid() {
			return nil, fmt.Errorf("seed line %d: %w: read value %d", i, hardware.ErrHardwareFault, bit)
		}
		s.bits[i] = bit
	}
	return s, nil
}

// Read returns the authoritative value at index.
func (s *Store) Read(index int) (output.Bit, error) {
	if err := output.CheckIndex(index); err != nil {
		return output.Low, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bits[index], nil
}

// Snapshot returns a copy of the full vector and the version it reflects.
func (s *Store) Snapshot() (output.Vector, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bits, s.version
}

// Toggle flips the line at index and writes the new level through the
// port. The in-memory value changes only once the write has succeeded, so
// on a hardware fault the store keeps its pre-toggle value and no reader
// ever observes the attempted one.
func (s *Store) Toggle(ctx context.Context, index int) (Change, error) {
	if err := output.CheckIndex(index); err != nil {
		return Change{}, err
	}

	s.mu.RLock()
	next := s.bits[index].Flip()
	s.mu.RUnlock()

	if err := s.port.WriteLine(ctx, index, next); err != nil {
		return Change{}, fmt.Errorf("toggle line %d: %w", index, err)
	}

	s.mu.Lock()
	s.bits[index] = next
	s.version++
	ch := Change{Index: index, Value: next, Version: s.version}
	s.mu.Unlock()
	return ch, nil
}
