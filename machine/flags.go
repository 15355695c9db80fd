// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math"
	"math/bits"
	"strings"

	"github.com/ezrec/vm64/internal"
)

// Flags is the flags register.
type Flags uint8

const (
	FLAG_Z = Flags(1 << 0) // Zero
	FLAG_S = Flags(1 << 1) // Sign
	FLAG_P = Flags(1 << 2) // Parity (even number of set bits in the low byte)
	FLAG_O = Flags(1 << 3) // Overflow
	FLAG_C = Flags(1 << 4) // Carry

	FLAG_MASK = FLAG_Z | FLAG_S | FLAG_P | FLAG_O | FLAG_C
)

func (fl Flags) Z() bool { return fl&FLAG_Z != 0 }
func (fl Flags) S() bool { return fl&FLAG_S != 0 }
func (fl Flags) P() bool { return fl&FLAG_P != 0 }
func (fl Flags) O() bool { return fl&FLAG_O != 0 }
func (fl Flags) C() bool { return fl&FLAG_C != 0 }

// Put sets or clears the given flag bits.
func (fl *Flags) Put(flag Flags, on bool) {
	if on {
		*fl |= flag
	} else {
		*fl &^= flag
	}
}

// Unsigned comparisons.
func (fl Flags) A() bool  { return !fl.C() && !fl.Z() }
func (fl Flags) AE() bool { return !fl.C() }
func (fl Flags) B() bool  { return fl.C() }
func (fl Flags) BE() bool { return fl.C() || fl.Z() }

// Signed comparisons.
func (fl Flags) G() bool  { return !fl.Z() && fl.S() == fl.O() }
func (fl Flags) GE() bool { return fl.S() == fl.O() }
func (fl Flags) L() bool  { return fl.S() != fl.O() }
func (fl Flags) LE() bool { return fl.Z() || fl.S() != fl.O() }

// Test evaluates a condition predicate.
func (fl Flags) Test(cond Cond) bool {
	switch cond {
	case COND_A:
		return fl.A()
	case COND_AE:
		return fl.AE()
	case COND_B:
		return fl.B()
	case COND_BE:
		return fl.BE()
	case COND_G:
		return fl.G()
	case COND_GE:
		return fl.GE()
	case COND_L:
		return fl.L()
	case COND_LE:
		return fl.LE()
	case COND_Z:
		return fl.Z()
	case COND_NZ:
		return !fl.Z()
	case COND_S:
		return fl.S()
	case COND_NS:
		return !fl.S()
	case COND_P:
		return fl.P()
	case COND_NP:
		return !fl.P()
	case COND_O:
		return fl.O()
	case COND_NO:
		return !fl.O()
	case COND_C:
		return fl.C()
	case COND_NC:
		return !fl.C()
	}
	return false
}

// UpdateI sets Zero, Sign and Parity from an integer result of the
// given size code. Carry and Overflow are left to the caller.
func (fl *Flags) UpdateI(value uint64, sizecode uint64) {
	value = internal.Truncate(value, sizecode)
	fl.Put(FLAG_Z, value == 0)
	fl.Put(FLAG_S, internal.IsNegative(value, sizecode))
	fl.Put(FLAG_P, bits.OnesCount8(uint8(value))%2 == 0)
}

// UpdateF sets the flags from a floating point result. Overflow reports
// an infinity and Carry reports a NaN.
func (fl *Flags) UpdateF(value float64) {
	fl.Put(FLAG_Z, value == 0)
	fl.Put(FLAG_S, value < 0)
	fl.Put(FLAG_O, math.IsInf(value, 0))
	fl.Put(FLAG_C, math.IsNaN(value))
}

func (fl Flags) String() string {
	var sb strings.Builder
	for n, name := range "ZSPOC" {
		if fl&(1<<n) != 0 {
			sb.WriteRune(name)
		} else {
			sb.WriteRune('-')
		}
	}
	return sb.String()
}
