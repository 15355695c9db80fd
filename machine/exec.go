// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math/bits"

	"github.com/ezrec/vm64/internal"
)

// Execute decodes the operands of op at Pos and executes it.
func (m *Machine) Execute(op OpCode) (code ErrorCode) {
	switch {
	case op == OP_NOP:
		// pass
	case op == OP_STOP:
		m.Fail(ERROR_NONE)
	case op == OP_SYSCALL:
		if m.Syscall == nil || !m.Syscall.Syscall(m) {
			code = ERROR_UNHANDLED_SYSCALL
		}
	case op >= OP_MOV && op <= OP_MOVNC:
		code = m.doMove(op)
	case op == OP_SWAP:
		code = m.doSwap()
	case op == OP_UEXTEND, op == OP_SEXTEND:
		code = m.doExtend(op)
	case op >= OP_UMUL && op <= OP_SDIV:
		code = m.doMulDiv(op)
	case op >= OP_ADD && op <= OP_TEST:
		code = m.doBinary(op)
	case op >= OP_INC && op <= OP_CMPZ,
		op == OP_BSWAP, op == OP_GETF, op == OP_SETF, op == OP_POP:
		code = m.doUnary(op)
	case op == OP_LA:
		code = m.doLoadAddress()
	case op >= OP_JMP && op <= OP_JNC:
		code = m.doJump(op)
	case op >= OP_FADD && op <= OP_ITOF:
		code = m.doFloat(op)
	case op == OP_PUSH:
		code = m.doPush()
	case op == OP_CALL:
		var ea uint64
		ea, code = m.getAddress()
		if code != ERROR_NONE {
			return
		}
		code = m.push(internal.SIZE_QWORD, m.Pos)
		if code != ERROR_NONE {
			return
		}
		m.Pos = ea
	case op == OP_RET:
		var ret uint64
		ret, code = m.pop(internal.SIZE_QWORD)
		if code != ERROR_NONE {
			return
		}
		m.Pos = ret
	default:
		code = ERROR_UNDEFINED
	}

	return
}

// fetchOperand decodes an immediate, register or memory source operand.
func (m *Machine) fetchOperand(sizecode uint64, mode uint64) (value uint64, code ErrorCode) {
	switch mode {
	case MODE_IMM:
		value, code = m.fetch(internal.SizeBytes(sizecode))
	case MODE_REG:
		var src uint64
		src, code = m.fetch(1)
		if code != ERROR_NONE {
			return
		}
		value = m.Register[src>>4].Get(sizecode)
	case MODE_MEM:
		var ea uint64
		ea, code = m.getAddress()
		if code != ERROR_NONE {
			return
		}
		var ok bool
		value, ok = m.memory.Read(ea, internal.SizeBytes(sizecode))
		if !ok {
			code = ERROR_OUT_OF_BOUNDS
		}
	default:
		code = ERROR_UNDEFINED
	}
	return
}

// fetchBinary decodes the binary format, returning the destination, the
// size code, the destination's current value and the source value.
func (m *Machine) fetchBinary() (dest uint64, sizecode uint64, a uint64, b uint64, code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	dest, sizecode, mode := splitFields(fields)
	a = m.Register[dest].Get(sizecode)
	b, code = m.fetchOperand(sizecode, mode)
	return
}

func (m *Machine) doMove(op OpCode) (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	reg, sizecode, mode := splitFields(fields)
	size := internal.SizeBytes(sizecode)

	// Decode completes regardless of the condition.
	cond := op == OP_MOV || m.Flags.Test(Cond(op-OP_MOVA))

	switch mode {
	case MODE_IMM, MODE_REG:
		var value uint64
		value, code = m.fetchOperand(sizecode, mode)
		if code != ERROR_NONE {
			return
		}
		if cond {
			m.Register[reg].Set(sizecode, value)
		}
	case MODE_MEM:
		var ea uint64
		ea, code = m.getAddress()
		if code != ERROR_NONE || !cond {
			return
		}
		value, ok := m.memory.Read(ea, size)
		if !ok {
			return ERROR_OUT_OF_BOUNDS
		}
		m.Register[reg].Set(sizecode, value)
	case MODE_STORE:
		var ea uint64
		ea, code = m.getAddress()
		if code != ERROR_NONE || !cond {
			return
		}
		if !m.memory.Write(ea, size, m.Register[reg].Get(sizecode)) {
			return ERROR_OUT_OF_BOUNDS
		}
	}

	return
}

func (m *Machine) doSwap() (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	r1, sizecode, _ := splitFields(fields)
	regs, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	r2 := regs >> 4

	a := m.Register[r1].Get(sizecode)
	b := m.Register[r2].Get(sizecode)
	m.Register[r1].Set(sizecode, b)
	m.Register[r2].Set(sizecode, a)
	return
}

func (m *Machine) doExtend(op OpCode) (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	reg, from, to := splitFields(fields)

	value := m.Register[reg].Get(from)
	if op == OP_SEXTEND {
		value = internal.SignExtend(value, from)
	}
	m.Register[reg].Set(to, value)
	return
}

func (m *Machine) doLoadAddress() (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	reg, sizecode, _ := splitFields(fields)
	ea, code := m.getAddress()
	if code != ERROR_NONE {
		return
	}
	m.Register[reg].Set(sizecode, ea)
	return
}

func (m *Machine) doJump(op OpCode) (code ErrorCode) {
	ea, code := m.getAddress()
	if code != ERROR_NONE {
		return
	}
	if op == OP_JMP || m.Flags.Test(Cond(op-OP_JA)) {
		m.Pos = ea
	}
	return
}

func (m *Machine) doPush() (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	_, sizecode, mode := splitFields(fields)
	value, code := m.fetchOperand(sizecode, mode)
	if code != ERROR_NONE {
		return
	}
	return m.push(sizecode, value)
}

// add sets the flags for a+b at the given size and returns the sum.
func (m *Machine) add(a uint64, b uint64, sizecode uint64) (res uint64) {
	res = internal.Truncate(a+b, sizecode)
	sa := internal.IsNegative(a, sizecode)
	sb := internal.IsNegative(b, sizecode)
	sr := internal.IsNegative(res, sizecode)
	m.Flags.UpdateI(res, sizecode)
	m.Flags.Put(FLAG_C, res < a)
	m.Flags.Put(FLAG_O, sa == sb && sr != sa)
	return
}

// sub sets the flags for a-b at the given size and returns the difference.
func (m *Machine) sub(a uint64, b uint64, sizecode uint64) (res uint64) {
	res = internal.Truncate(a-b, sizecode)
	sa := internal.IsNegative(a, sizecode)
	sb := internal.IsNegative(b, sizecode)
	sr := internal.IsNegative(res, sizecode)
	m.Flags.UpdateI(res, sizecode)
	m.Flags.Put(FLAG_C, a < b)
	m.Flags.Put(FLAG_O, sa != sb && sr != sa)
	return
}

// logic sets the flags for a bitwise result.
func (m *Machine) logic(res uint64, sizecode uint64) uint64 {
	m.Flags.UpdateI(res, sizecode)
	m.Flags.Put(FLAG_C|FLAG_O, false)
	return res
}

func (m *Machine) doBinary(op OpCode) (code ErrorCode) {
	dest, sizecode, a, b, code := m.fetchBinary()
	if code != ERROR_NONE {
		return
	}

	width := internal.SizeBits(sizecode)
	mask := internal.SizeMask(sizecode)
	write := true
	var res uint64

	switch op {
	case OP_ADD:
		res = m.add(a, b, sizecode)
	case OP_SUB:
		res = m.sub(a, b, sizecode)
	case OP_CMP:
		m.sub(a, b, sizecode)
		write = false
	case OP_BMUL:
		hi, lo := bits.Mul64(a, b)
		if sizecode != internal.SIZE_QWORD {
			hi = lo >> width
		}
		res = m.logic(lo&mask, sizecode)
		m.Flags.Put(FLAG_C|FLAG_O, hi != 0)
	case OP_BUDIV, OP_BUMOD:
		if b == 0 {
			return ERROR_ARITHMETIC
		}
		if op == OP_BUDIV {
			res = m.logic(a/b, sizecode)
		} else {
			res = m.logic(a%b, sizecode)
		}
	case OP_BSDIV, OP_BSMOD:
		if b == 0 {
			return ERROR_ARITHMETIC
		}
		// Truncating division; the remainder takes the dividend's sign.
		sa := int64(internal.SignExtend(a, sizecode))
		sb := int64(internal.SignExtend(b, sizecode))
		if op == OP_BSDIV {
			res = m.logic(uint64(sa/sb)&mask, sizecode)
		} else {
			res = m.logic(uint64(sa%sb)&mask, sizecode)
		}
	case OP_SL, OP_SAL, OP_SR, OP_SAR, OP_RL, OP_RR:
		res = m.shift(op, a, b%width, sizecode)
	case OP_AND:
		res = m.logic(a&b, sizecode)
	case OP_OR:
		res = m.logic(a|b, sizecode)
	case OP_XOR:
		res = m.logic(a^b, sizecode)
	case OP_TEST:
		m.logic(a&b, sizecode)
		write = false
	default:
		return ERROR_UNDEFINED
	}

	if write {
		m.Register[dest].Set(sizecode, res)
	}

	return
}

// shift performs a shift or rotate by an amount already reduced modulo
// the operand width. Carry holds the last bit shifted out.
func (m *Machine) shift(op OpCode, a uint64, amount uint64, sizecode uint64) (res uint64) {
	width := internal.SizeBits(sizecode)
	mask := internal.SizeMask(sizecode)

	res = a
	carry := false

	if amount != 0 {
		switch op {
		case OP_SL, OP_SAL:
			res = (a << amount) & mask
			carry = (a>>(width-amount))&1 != 0
		case OP_SR:
			res = a >> amount
			carry = (a>>(amount-1))&1 != 0
		case OP_SAR:
			sa := int64(internal.SignExtend(a, sizecode))
			res = uint64(sa>>amount) & mask
			carry = (sa>>(amount-1))&1 != 0
		case OP_RL:
			res = ((a << amount) | (a >> (width - amount))) & mask
			carry = res&1 != 0
		case OP_RR:
			res = ((a >> amount) | (a << (width - amount))) & mask
			carry = internal.IsNegative(res, sizecode)
		}
	}

	m.logic(res, sizecode)
	m.Flags.Put(FLAG_C, carry)
	return
}

func (m *Machine) doUnary(op OpCode) (code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	reg, sizecode, _ := splitFields(fields)
	a := m.Register[reg].Get(sizecode)
	smin := internal.SignMask(sizecode)

	var res uint64

	switch op {
	case OP_INC:
		res = internal.Truncate(a+1, sizecode)
		m.Flags.UpdateI(res, sizecode)
		m.Flags.Put(FLAG_C, res == 0)
		m.Flags.Put(FLAG_O, res == smin)
	case OP_DEC:
		res = internal.Truncate(a-1, sizecode)
		m.Flags.UpdateI(res, sizecode)
		m.Flags.Put(FLAG_C, a == 0)
		m.Flags.Put(FLAG_O, a == smin)
	case OP_NEG:
		res = internal.Truncate(-a, sizecode)
		m.Flags.UpdateI(res, sizecode)
		m.Flags.Put(FLAG_C, a != 0)
		m.Flags.Put(FLAG_O, a == smin)
	case OP_NOT:
		res = m.logic(internal.Truncate(^a, sizecode), sizecode)
	case OP_ABS:
		res = a
		if internal.IsNegative(a, sizecode) {
			res = internal.Truncate(-a, sizecode)
		}
		m.Flags.UpdateI(res, sizecode)
		m.Flags.Put(FLAG_C, false)
		m.Flags.Put(FLAG_O, a == smin)
	case OP_CMPZ:
		m.logic(a, sizecode)
		return
	case OP_BSWAP:
		res = bits.ReverseBytes64(a) >> (64 - internal.SizeBits(sizecode))
	case OP_GETF:
		res = uint64(m.Flags)
	case OP_SETF:
		m.Flags = Flags(a) & FLAG_MASK
		return
	case OP_POP:
		res, code = m.pop(sizecode)
		if code != ERROR_NONE {
			return
		}
	default:
		return ERROR_UNDEFINED
	}

	m.Register[reg].Set(sizecode, res)
	return
}

// mulDivOperands decodes the source operand of UMUL, SMUL, UDIV and SDIV.
func (m *Machine) mulDivOperands() (sizecode uint64, src uint64, code ErrorCode) {
	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	_, sizecode, mode := splitFields(fields)
	src, code = m.fetchOperand(sizecode, mode)
	return
}

// doMulDiv implements the double width multiplies and divides on r1:r0.
func (m *Machine) doMulDiv(op OpCode) (code ErrorCode) {
	sizecode, src, code := m.mulDivOperands()
	if code != ERROR_NONE {
		return
	}

	r0 := &m.Register[REG_R0]
	r1 := &m.Register[REG_R1]

	var lo, hi uint64

	switch op {
	case OP_UMUL:
		lo, hi = mulUnsigned(r0.Get(sizecode), src, sizecode)
		m.Flags.UpdateI(lo, sizecode)
		m.Flags.Put(FLAG_Z, lo == 0 && hi == 0)
		m.Flags.Put(FLAG_S, internal.IsNegative(hi, sizecode))
		m.Flags.Put(FLAG_C|FLAG_O, hi != 0)
	case OP_SMUL:
		lo, hi = mulSigned(r0.Get(sizecode), src, sizecode)
		m.Flags.UpdateI(lo, sizecode)
		m.Flags.Put(FLAG_Z, lo == 0 && hi == 0)
		m.Flags.Put(FLAG_S, internal.IsNegative(hi, sizecode))
		extension := uint64(0)
		if internal.IsNegative(lo, sizecode) {
			extension = internal.SizeMask(sizecode)
		}
		m.Flags.Put(FLAG_C|FLAG_O, hi != extension)
	case OP_UDIV, OP_SDIV:
		dhi, dlo := dividend(r1.Get(sizecode), r0.Get(sizecode), sizecode, op == OP_SDIV)
		var ok bool
		if op == OP_UDIV {
			lo, hi, ok = divUnsigned(dhi, dlo, src, sizecode)
		} else {
			lo, hi, ok = divSigned(dhi, dlo, src, sizecode)
		}
		if !ok {
			return ERROR_ARITHMETIC
		}
		m.logic(lo, sizecode)
	default:
		return ERROR_UNDEFINED
	}

	r0.Set(sizecode, lo)
	r1.Set(sizecode, hi)
	return
}
