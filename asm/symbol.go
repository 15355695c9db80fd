// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"math"
	"slices"
)

// Symbol is a named value.
type Symbol struct {
	Value      uint64 // Integer value, or float64 bits if IsFloating.
	IsAddress  bool   // Offset into the object's data, rebased when linked.
	IsFloating bool   // Value holds float64 bits.
}

// Float returns the symbol's value as a float64.
func (sym Symbol) Float() float64 {
	if sym.IsFloating {
		return math.Float64frombits(sym.Value)
	}
	return float64(int64(sym.Value))
}

// Rebase returns the symbol moved by base if it is address valued.
func (sym Symbol) Rebase(base uint64) Symbol {
	if sym.IsAddress {
		sym.Value += base
	}
	return sym
}

// Segment is an unresolved symbol term of a hole.
type Segment struct {
	Name   string
	Negate bool
}

// Hole is an expression accumulator. Resolved terms are summed into
// Value and FValue, unresolved terms are kept as Segments.
// Address and Size locate the bytes to patch once it is recorded in an
// object file.
type Hole struct {
	Address  uint64    // Offset into the object's data.
	Size     uint64    // Bytes to patch: 1, 2, 4 or 8.
	Value    uint64    // Integer accumulator.
	FValue   float64   // Floating accumulator.
	Floating bool      // Set when any floating term was added.
	Segments []Segment // Unresolved terms, in order.
}

// Add returns the hole with a resolved term added or subtracted.
func (hole Hole) Add(sym Symbol, negate bool) Hole {
	if sym.IsFloating {
		fv := math.Float64frombits(sym.Value)
		if negate {
			fv = -fv
		}
		hole.FValue += fv
		hole.Floating = true
		return hole
	}

	if negate {
		hole.Value -= sym.Value
	} else {
		hole.Value += sym.Value
	}
	return hole
}

// Defer returns the hole with an unresolved term appended.
func (hole Hole) Defer(name string, negate bool) Hole {
	hole.Segments = append(slices.Clip(hole.Segments), Segment{Name: name, Negate: negate})
	return hole
}

// Resolved is true if no unresolved terms remain.
func (hole Hole) Resolved() bool {
	return len(hole.Segments) == 0
}

// Result returns the final value. Floating holes combine the integer
// accumulator, as signed, with the floating accumulator.
func (hole Hole) Result() uint64 {
	if hole.Floating {
		return math.Float64bits(float64(int64(hole.Value)) + hole.FValue)
	}
	return hole.Value
}

// Symbol returns the resolved value as a symbol.
func (hole Hole) Symbol() Symbol {
	return Symbol{Value: hole.Result(), IsFloating: hole.Floating}
}
