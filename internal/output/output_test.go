package output

import (
	"errors"
	"testing"
)

func TestProjection(t *testing.T) {
	tests := []struct {
		name    string
		vec     Vector
		decimal uint8
		hex     string
	}{
		{"all high", Vector{1, 1, 1, 1, 1, 1, 1, 1}, 255, "FF"},
		{"all low", Vector{}, 0, "00"},
		{"lsb only", Vector{0, 0, 0, 0, 0, 0, 0, 1}, 1, "01"},
		{"msb only", Vector{1, 0, 0, 0, 0, 0, 0, 0}, 128, "80"},
		{"alternating", Vector{1, 0, 1, 0, 1, 0, 1, 0}, 170, "AA"},
		{"low nibble", Vector{0, 0, 0, 0, 1, 1, 1, 1}, 15, "0F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.vec.View()
			if view.Decimal != tt.decimal {
				t.Errorf("Decimal = %d, want %d", view.Decimal, tt.decimal)
			}
			if view.Hex != tt.hex {
				t.Errorf("Hex = %q, want %q", view.Hex, tt.hex)
			}
		})
	}
}

func TestFlipTwiceRestores(t *testing.T) {
	v := Vector{0, 1, 0, 1, 0, 1, 0, 1}
	orig := v
	for i := 0; i < Lines; i++ {
		if err := v.Flip(i); err != nil {
			t.Fatalf("Flip(%d): %v", i, err)
		}
		if v[i] == orig[i] {
			t.Errorf("Flip(%d) did not change the bit", i)
		}
		if err := v.Flip(i); err != nil {
			t.Fatalf("Flip(%d): %v", i, err)
		}
	}
	if v != orig {
		t.Errorf("double flip = %s, want %s", v, orig)
	}
}

func TestFlipInvalidIndex(t *testing.T) {
	var v Vector
	for _, i := range []int{-1, Lines, 100} {
		if err := v.Flip(i); !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("Flip(%d) error = %v, want ErrInvalidIndex", i, err)
		}
	}
	if v != (Vector{}) {
		t.Errorf("invalid flip mutated vector: %s", v)
	}
}

func TestFromSlice(t *testing.T) {
	v, err := FromSlice([]Bit{1, 0, 0, 0, 0, 0, 0, 1})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if v.String() != "10000001" {
		t.Errorf("String() = %q, want %q", v.String(), "10000001")
	}

	if _, err := FromSlice([]Bit{1, 0}); err == nil {
		t.Error("short slice should be rejected")
	}
	if _, err := FromSlice([]Bit{0, 0, 0, 2, 0, 0, 0, 0}); err == nil {
		t.Error("bit value 2 should be rejected")
	}
}

func TestSliceIsCopy(t *testing.T) {
	v := Vector{1}
	s := v.Slice()
	s[0] = 0
	if v[0] != 1 {
		t.Error("Slice shares memory with the vector")
	}
}
