package hardware

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lightswitch/switchboard/internal/output"
	"github.com/stianeikeland/go-rpio/v4"
)

// DefaultPins is the BCM wiring of the reference board, most significant
// line first.
var DefaultPins = []int{2, 3, 4, 14, 15, 0, 5, 6}

var errClosed = errors.New("gpio memory closed")

// GPIO drives output lines through /dev/gpiomem using BCM pin numbers.
type GPIO struct {
	mu     sync.RWMutex
	pins   [output.Lines]rpio.Pin
	closed bool
}

// OpenGPIO maps GPIO memory and configures every pin as an output. The pin
// at position i backs line i.
func OpenGPIO(pins []int) (*GPIO, error) {
	if len(pins) != output.Lines {
		return nil, fmt.Errorf("gpio needs %d pins, got %d", output.Lines, len(pins))
	}
	for i, n := range pins {
		if n < 0 || n > 27 {
			return nil, fmt.Errorf("line %d: BCM pin %d out of range", i, n)
		}
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: open gpio: %v", ErrHardwareFault, err)
	}

	g := &GPIO{}
	for i, n := range pins {
		g.pins[i] = rpio.Pin(n)
		g.pins[i].Output()
	}
	return g, nil
}

func (g *GPIO) ReadLine(_ context.Context, index int) (output.Bit, error) {
	if err := output.CheckIndex(index); err != nil {
		return output.Low, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return output.Low, fault("read", index, errClosed)
	}
	if g.pins[index].Read() == rpio.High {
		return output.High, nil
	}
	return output.Low, nil
}

func (g *GPIO) WriteLine(_ context.Context, index int, bit output.Bit) error {
	if err := output.CheckIndex(index); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return fault("write", index, errClosed)
	}
	if bit == output.High {
		g.pins[index].Write(rpio.High)
	} else {
		g.pins[index].Write(rpio.Low)
	}
	return nil
}

// Close unmaps GPIO memory. Pins keep their last written level.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return rpio.Close()
}
