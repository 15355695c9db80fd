// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math"

	"github.com/ezrec/vm64/internal"
)

// Register indexes with conventional roles.
const (
	REG_COUNT = 16 // Number of general purpose registers.
	REG_R0    = 0  // Accumulator, multiply/divide low half, syscall code.
	REG_R1    = 1  // Multiply/divide high half.
	REG_SP    = 15 // Stack pointer.
)

// Register is a 64-bit register with 8, 16, 32 and 64 bit views.
type Register uint64

// Get reads the view of the register selected by the size code.
func (reg Register) Get(sizecode uint64) uint64 {
	return internal.Truncate(uint64(reg), sizecode)
}

// Set writes the view of the register selected by the size code,
// leaving the bits above the view untouched.
func (reg *Register) Set(sizecode uint64, value uint64) {
	mask := internal.SizeMask(sizecode)
	*reg = Register((uint64(*reg) &^ mask) | (value & mask))
}

// Float reads the register as a double precision value.
func (reg Register) Float() float64 {
	return math.Float64frombits(uint64(reg))
}

// SetFloat writes a double precision value to the register.
func (reg *Register) SetFloat(value float64) {
	*reg = Register(math.Float64bits(value))
}
