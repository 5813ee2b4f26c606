// Package output defines the fixed-size vector of output line states and
// the decimal/hex projection every observer derives from it.
package output

import (
	"errors"
	"fmt"
)

// Lines is the number of switchable output lines.
const Lines = 8

// ErrInvalidIndex is returned for an index outside [0, Lines).
var ErrInvalidIndex = errors.New("output index out of range")

// Bit is the state of one line: 0 (low) or 1 (high).
type Bit uint8

const (
	Low  Bit = 0
	High Bit = 1
)

// Flip returns the opposite state.
func (b Bit) Flip() Bit {
	return b ^ 1
}

// Valid reports whether b is exactly 0 or 1.
func (b Bit) Valid() bool {
	return b == Low || b == High
}

// ValidIndex reports whether i addresses a line.
func ValidIndex(i int) bool {
	return i >= 0 && i < Lines
}

// CheckIndex returns ErrInvalidIndex wrapped with i when it is out of range.
func CheckIndex(i int) error {
	if !ValidIndex(i) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return nil
}

// Vector holds the state of every line. Index 0 is the most significant bit.
type Vector [Lines]Bit

// FromSlice builds a Vector from exactly Lines bits, each 0 or 1.
func FromSlice(bits []Bit) (Vector, error) {
	var v Vector
	if len(bits) != Lines {
		return v, fmt.Errorf("vector needs %d lines, got %d", Lines, len(bits))
	}
	for i, b := range bits {
		if !b.Valid() {
			return v, fmt.Errorf("line %d: invalid bit %d", i, b)
		}
		v[i] = b
	}
	return v, nil
}

// Slice returns the bits as a fresh slice.
func (v Vector) Slice() []Bit {
	out := make([]Bit, Lines)
	copy(out, v[:])
	return out
}

// Flip toggles the bit at i in place.
func (v *Vector) Flip(i int) error {
	if err := CheckIndex(i); err != nil {
		return err
	}
	v[i] = v[i].Flip()
	return nil
}

// Decimal reads the vector as an unsigned binary number, index 0 first.
func (v Vector) Decimal() uint8 {
	var n uint8
	for _, b := range v {
		n = n<<1 | uint8(b&1)
	}
	return n
}

// Hex renders Decimal as two uppercase hex digits.
func (v Vector) Hex() string {
	return fmt.Sprintf("%02X", v.Decimal())
}

// String renders the vector as a run of 0/1 digits.
func (v Vector) String() string {
	buf := make([]byte, Lines)
	for i, b := range v {
		buf[i] = '0' + byte(b&1)
	}
	return string(buf)
}

// View is the derived projection of a Vector. It is never stored next to
// the vector it came from; call Vector.View again after every change.
type View struct {
	Decimal uint8  `json:"decimal"`
	Hex     string `json:"hex"`
}

// View computes the decimal and hex projection from the full vector.
func (v Vector) View() View {
	return View{Decimal: v.Decimal(), Hex: v.Hex()}
}
