// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"github.com/ezrec/vm64/internal"
)

// Address mode byte layout: [lit:1][m1:3][neg:1][m2:3]
const (
	ADDR_LITERAL = 0x80 // An 8-byte displacement follows.
	ADDR_NEGATE  = 0x08 // The second register term is subtracted.
)

// Address is a decoded memory operand.
type Address struct {
	M1      uint64 // Multiplier code for R1.
	R1      uint64 // First register.
	M2      uint64 // Multiplier code for R2.
	R2      uint64 // Second register.
	Negate  bool   // Subtract the R2 term.
	Literal bool   // Displacement present.
	Disp    uint64 // Displacement.
}

// Mode returns the address mode byte.
func (addr Address) Mode() byte {
	mode := byte((addr.M1&7)<<4) | byte(addr.M2&7)
	if addr.Literal {
		mode |= ADDR_LITERAL
	}
	if addr.Negate {
		mode |= ADDR_NEGATE
	}
	return mode
}

// HasRegisters is true when the register byte is present.
func (addr Address) HasRegisters() bool {
	return addr.M1|addr.M2 != 0
}

// Append encodes the address. The displacement is always written when
// Literal is set, so that the linker may patch it later.
func (addr Address) Append(buf []byte) []byte {
	buf = append(buf, addr.Mode())
	if addr.HasRegisters() {
		buf = append(buf, byte((addr.R1&15)<<4)|byte(addr.R2&15))
	}
	if addr.Literal {
		buf = internal.Append(buf, 8, addr.Disp)
	}
	return buf
}

// fetchAddress decodes an address at Pos.
func (m *Machine) fetchAddress() (addr Address, code ErrorCode) {
	mode, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}

	addr.Literal = mode&ADDR_LITERAL != 0
	addr.Negate = mode&ADDR_NEGATE != 0
	addr.M1 = (mode >> 4) & 7
	addr.M2 = mode & 7

	if addr.HasRegisters() {
		var regs uint64
		regs, code = m.fetch(1)
		if code != ERROR_NONE {
			return
		}
		addr.R1 = regs >> 4
		addr.R2 = regs & 15
	}

	if addr.Literal {
		addr.Disp, code = m.fetch(8)
		if code != ERROR_NONE {
			return
		}
	}

	return
}

// Resolve computes the effective address against the register file.
func (m *Machine) Resolve(addr Address) (ea uint64) {
	ea = addr.Disp
	if addr.M1 != 0 {
		ea += internal.Mult(addr.M1) * uint64(m.Register[addr.R1&15])
	}
	if addr.M2 != 0 {
		term := internal.Mult(addr.M2) * uint64(m.Register[addr.R2&15])
		if addr.Negate {
			ea -= term
		} else {
			ea += term
		}
	}
	return
}

// getAddress decodes an address at Pos and resolves it.
func (m *Machine) getAddress() (ea uint64, code ErrorCode) {
	addr, code := m.fetchAddress()
	if code != ERROR_NONE {
		return
	}
	ea = m.Resolve(addr)
	return
}
