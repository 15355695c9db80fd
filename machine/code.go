// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"github.com/ezrec/vm64/internal"
)

// Operand modes for the binary, move and source formats.
const (
	MODE_IMM   = uint64(0) // Immediate of the operand size.
	MODE_REG   = uint64(1) // Register byte [src:4 _:4].
	MODE_MEM   = uint64(2) // Address.
	MODE_STORE = uint64(3) // Move only: register to memory.
)

// Code is an instruction byte stream under construction.
type Code []byte

// Op appends an opcode.
func (code Code) Op(op OpCode) Code {
	return append(code, byte(op))
}

// Byte appends a raw byte.
func (code Code) Byte(b byte) Code {
	return append(code, b)
}

// Fields appends a [reg:4 size:2 mode:2] byte.
func (code Code) Fields(reg uint64, sizecode uint64, mode uint64) Code {
	return append(code, MakeFields(reg, sizecode, mode))
}

// Reg appends a [reg:4 _:4] register byte.
func (code Code) Reg(reg uint64) Code {
	return append(code, byte((reg&15)<<4))
}

// Imm appends an immediate of the size code's width.
func (code Code) Imm(sizecode uint64, value uint64) Code {
	return internal.Append(code, internal.SizeBytes(sizecode), value)
}

// Address appends an address operand.
func (code Code) Address(addr Address) Code {
	return addr.Append(code)
}

// Literal appends a displacement-only address.
func (code Code) Literal(value uint64) Code {
	return code.Address(Address{Literal: true, Disp: value})
}

// MakeFields packs a [reg:4 size:2 mode:2] byte.
func MakeFields(reg uint64, sizecode uint64, mode uint64) byte {
	return byte((reg&15)<<4 | (sizecode&3)<<2 | (mode & 3))
}

// splitFields unpacks a [reg:4 size:2 mode:2] byte.
func splitFields(fields uint64) (reg uint64, sizecode uint64, mode uint64) {
	reg = (fields >> 4) & 15
	sizecode = (fields >> 2) & 3
	mode = fields & 3
	return
}
