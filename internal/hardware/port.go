// Package hardware provides access to the physical output lines.
package hardware

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightswitch/switchboard/internal/output"
)

// ErrHardwareFault reports a failed read or write of a physical line.
var ErrHardwareFault = errors.New("hardware fault")

// Port reads and writes the binary value of one output line by index.
// Implementations must be safe for concurrent use on different indices;
// callers guarantee that a single index is never accessed concurrently.
type Port interface {
	ReadLine(ctx context.Context, index int) (output.Bit, error)
	WriteLine(ctx context.Context, index int, bit output.Bit) error
}

// Driver names accepted by New.
const (
	DriverGPIO   = "gpio"
	DriverMemory = "memory"
)

// Options selects and configures a Port implementation.
type Options struct {
	Driver  string
	Pins    []int
	Initial []output.Bit
}

// New builds the Port named by opts.Driver. The returned close function
// releases the underlying device.
func New(opts Options) (Port, func() error, error) {
	switch opts.Driver {
	case DriverGPIO:
		p, err := OpenGPIO(opts.Pins)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case DriverMemory, "":
		m := NewMemory()
		if len(opts.Initial) > 0 {
			v, err := output.FromSlice(opts.Initial)
			if err != nil {
				return nil, nil, fmt.Errorf("memory driver initial state: %w", err)
			}
			m.Set(v)
		}
		return m, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown hardware driver %q", opts.Driver)
	}
}

func fault(op string, index int, err error) error {
	return fmt.Errorf("%w: %s line %d: %v", ErrHardwareFault, op, index, err)
}
