// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/vm64/internal"
)

// binaryRR runs `op.size r0, r1` with the given register values.
func binaryRR(t *testing.T, op OpCode, sizecode uint64, a, b uint64) *Machine {
	code := Code{}.Op(op).Fields(0, sizecode, MODE_REG).Reg(1).Op(OP_STOP)
	return runCode(t, code, func(m *Machine) {
		m.Register[0] = Register(a)
		m.Register[1] = Register(b)
		m.Flags = 0
	})
}

func TestExecAddSubRoundTrip(t *testing.T) {
	assert := assert.New(t)

	values := []uint64{0, 1, 2, 0x7f, 0x80, 0xff, 0x7fff, 0x8000, 0xffff,
		0x7fff_ffff, 0x8000_0000, 0xffff_ffff, 0x7fff_ffff_ffff_ffff,
		0x8000_0000_0000_0000, 0xffff_ffff_ffff_ffff, 0x0123_4567_89ab_cdef}

	for sc := range uint64(4) {
		for _, a := range values {
			for _, b := range values {
				a := internal.Truncate(a, sc)
				b := internal.Truncate(b, sc)

				m := newTestMachine()
				sum := m.add(a, b, sc)
				assert.Equal(a, m.sub(sum, b, sc), "%x+%x-%x size %d", a, b, b, sc)

				// CMP flags match SUB flags, and CMP does not write.
				sub := binaryRR(t, OP_SUB, sc, a, b)
				cmp := binaryRR(t, OP_CMP, sc, a, b)
				assert.Equal(sub.Flags, cmp.Flags)
				assert.Equal(internal.Truncate(a-b, sc), sub.Register[0].Get(sc))
				assert.Equal(a, cmp.Register[0].Get(sc))

				// Unsigned and signed predicates agree with Go comparisons.
				sa := int64(internal.SignExtend(a, sc))
				sb := int64(internal.SignExtend(b, sc))
				assert.Equal(a > b, cmp.Flags.A(), "a %x %x", a, b)
				assert.Equal(a >= b, cmp.Flags.AE())
				assert.Equal(a < b, cmp.Flags.B())
				assert.Equal(a <= b, cmp.Flags.BE())
				assert.Equal(sa > sb, cmp.Flags.G(), "g %x %x", a, b)
				assert.Equal(sa >= sb, cmp.Flags.GE())
				assert.Equal(sa < sb, cmp.Flags.L())
				assert.Equal(sa <= sb, cmp.Flags.LE())
			}
		}
	}
}

func TestExecFlags(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		op    OpCode
		size  uint64
		a, b  uint64
		res   uint64
		flags Flags
	}){
		{"add overflow", OP_ADD, 0, 0x7f, 1, 0x80, FLAG_S | FLAG_O},
		{"add carry", OP_ADD, 0, 0xff, 1, 0x00, FLAG_Z | FLAG_P | FLAG_C},
		{"add plain", OP_ADD, 2, 3, 4, 7, 0},
		{"sub borrow", OP_SUB, 1, 0, 1, 0xffff, FLAG_S | FLAG_P | FLAG_C},
		{"sub overflow", OP_SUB, 0, 0x80, 1, 0x7f, FLAG_O},
		{"and", OP_AND, 3, 0xf0f0, 0x0ff0, 0x00f0, FLAG_P},
		{"or", OP_OR, 0, 0x80, 0x01, 0x81, FLAG_S | FLAG_P},
		{"xor zero", OP_XOR, 3, 0x1234, 0x1234, 0, FLAG_Z | FLAG_P},
		{"sl", OP_SL, 0, 0x81, 1, 0x02, FLAG_C},
		{"sl mod width", OP_SL, 0, 0x81, 9, 0x02, FLAG_C},
		{"sl zero", OP_SL, 0, 0x81, 8, 0x81, FLAG_S | FLAG_P},
		{"sr", OP_SR, 0, 0x81, 1, 0x40, FLAG_C},
		{"sar", OP_SAR, 0, 0x81, 1, 0xc0, FLAG_S | FLAG_P | FLAG_C},
		{"sar qword", OP_SAR, 3, 0x8000_0000_0000_0000, 63, 0xffff_ffff_ffff_ffff, FLAG_S | FLAG_P},
		{"rl", OP_RL, 0, 0x81, 1, 0x03, FLAG_P | FLAG_C},
		{"rr", OP_RR, 0, 0x81, 1, 0xc0, FLAG_S | FLAG_P | FLAG_C},
		{"rr word", OP_RR, 1, 0x0001, 4, 0x1000, FLAG_P},
		{"bmul", OP_BMUL, 0, 0x10, 0x10, 0x00, FLAG_Z | FLAG_P | FLAG_C | FLAG_O},
		{"bmul fits", OP_BMUL, 1, 0x10, 0x10, 0x100, FLAG_P},
		{"budiv", OP_BUDIV, 0, 0xff, 0x10, 0x0f, FLAG_P},
		{"bumod", OP_BUMOD, 0, 0xff, 0x10, 0x0f, FLAG_P},
		{"bsdiv", OP_BSDIV, 0, 0xf9, 2, 0xfd, FLAG_S},
		{"bsmod", OP_BSMOD, 0, 0xf9, 2, 0xff, FLAG_S | FLAG_P},
		{"bsmod positive", OP_BSMOD, 0, 7, 0xfe, 1, 0},
	}

	for _, entry := range table {
		m := binaryRR(t, entry.op, entry.size, entry.a, entry.b)
		assert.Equal(ERROR_NONE, m.Error, entry.name)
		assert.Equal(entry.res, m.Register[0].Get(entry.size), entry.name)
		assert.Equal(entry.flags, m.Flags, entry.name)
	}
}

func TestExecUnary(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		op    OpCode
		size  uint64
		a     uint64
		res   uint64
		flags Flags
	}){
		{"inc", OP_INC, 0, 0x01, 0x02, 0},
		{"inc wrap", OP_INC, 0, 0xff, 0x00, FLAG_Z | FLAG_P | FLAG_C},
		{"inc overflow", OP_INC, 0, 0x7f, 0x80, FLAG_S | FLAG_O},
		{"dec", OP_DEC, 1, 0x0002, 0x0001, 0},
		{"dec wrap", OP_DEC, 1, 0x0000, 0xffff, FLAG_S | FLAG_P | FLAG_C},
		{"dec overflow", OP_DEC, 0, 0x80, 0x7f, FLAG_O},
		{"neg", OP_NEG, 0, 0x01, 0xff, FLAG_S | FLAG_P | FLAG_C},
		{"neg zero", OP_NEG, 0, 0x00, 0x00, FLAG_Z | FLAG_P},
		{"neg min", OP_NEG, 0, 0x80, 0x80, FLAG_S | FLAG_O | FLAG_C},
		{"not", OP_NOT, 1, 0x00ff, 0xff00, FLAG_S | FLAG_P},
		{"abs", OP_ABS, 2, 0xffff_fffe, 2, 0},
		{"abs positive", OP_ABS, 2, 5, 5, FLAG_P},
		{"cmpz", OP_CMPZ, 3, 0, 0, FLAG_Z | FLAG_P},
		{"bswap", OP_BSWAP, 2, 0x1122_3344, 0x4433_2211, 0},
		{"bswap word", OP_BSWAP, 1, 0x1122, 0x2211, 0},
	}

	for _, entry := range table {
		code := Code{}.Op(entry.op).Fields(0, entry.size, 0).Op(OP_STOP)
		m := runCode(t, code, func(m *Machine) {
			m.Register[0] = Register(entry.a)
			m.Flags = 0
		})
		assert.Equal(ERROR_NONE, m.Error, entry.name)
		assert.Equal(entry.res, m.Register[0].Get(entry.size), entry.name)
		assert.Equal(entry.flags, m.Flags, entry.name)
	}
}

func TestExecPartialRegister(t *testing.T) {
	assert := assert.New(t)

	code := Code{}.
		Op(OP_MOV).Fields(0, 0, MODE_IMM).Imm(0, 0xaa).
		Op(OP_MOV).Fields(1, 1, MODE_IMM).Imm(1, 0xbbbb).
		Op(OP_ADD).Fields(2, 2, MODE_IMM).Imm(2, 1).
		Op(OP_STOP)

	m := runCode(t, code, func(m *Machine) {
		m.Register[0] = 0x1111_1111_1111_1111
		m.Register[1] = 0x2222_2222_2222_2222
		m.Register[2] = 0x3333_3333_ffff_ffff
	})

	assert.Equal(Register(0x1111_1111_1111_11aa), m.Register[0])
	assert.Equal(Register(0x2222_2222_2222_bbbb), m.Register[1])
	assert.Equal(Register(0x3333_3333_0000_0000), m.Register[2])
	assert.True(m.Flags.C())
	assert.True(m.Flags.Z())
}

func TestExecExtendSwap(t *testing.T) {
	assert := assert.New(t)

	code := Code{}.
		Op(OP_SEXTEND).Fields(0, 0, 3).
		Op(OP_UEXTEND).Fields(1, 1, 3).
		Op(OP_SWAP).Fields(2, 2, 0).Reg(3).
		Op(OP_STOP)

	m := runCode(t, code, func(m *Machine) {
		m.Register[0] = 0x1234_5680
		m.Register[1] = 0xffff_ffff_ffff_8001
		m.Register[2] = 0xaaaa_aaaa_1111_1111
		m.Register[3] = 0xbbbb_bbbb_2222_2222
	})

	assert.Equal(Register(0xffff_ffff_ffff_ff80), m.Register[0])
	assert.Equal(Register(0x8001), m.Register[1])
	assert.Equal(Register(0xaaaa_aaaa_2222_2222), m.Register[2])
	assert.Equal(Register(0xbbbb_bbbb_1111_1111), m.Register[3])
}

func TestExecMulDiv(t *testing.T) {
	assert := assert.New(t)

	muldiv := func(op OpCode, size uint64, r0, r1, src uint64) *Machine {
		code := Code{}.Op(op).Fields(0, size, MODE_REG).Reg(2).Op(OP_STOP)
		return runCode(t, code, func(m *Machine) {
			m.Register[0] = Register(r0)
			m.Register[1] = Register(r1)
			m.Register[2] = Register(src)
			m.Flags = 0
		})
	}

	// UMUL of two maximum 32-bit values.
	m := muldiv(OP_UMUL, 2, 0xffff_ffff, 0, 0xffff_ffff)
	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(uint64(0x0000_0001), m.Register[0].Get(2))
	assert.Equal(uint64(0xffff_fffe), m.Register[1].Get(2))
	assert.True(m.Flags.C())
	assert.True(m.Flags.O())

	// SMUL of two negative 32-bit values.
	m = muldiv(OP_SMUL, 2, 0xffff_fffe, 0x1234, 0xffff_fffd)
	assert.Equal(uint64(6), m.Register[0].Get(2))
	assert.Equal(uint64(0), m.Register[1].Get(2))
	assert.False(m.Flags.C())
	assert.False(m.Flags.O())
	assert.False(m.Flags.S())

	// SMUL that needs the high half.
	m = muldiv(OP_SMUL, 2, 0xffff_0000, 0, 0x0001_0000)
	assert.Equal(uint64(0), m.Register[0].Get(2))
	assert.Equal(uint64(0xffff_ffff), m.Register[1].Get(2))
	assert.True(m.Flags.C())
	assert.True(m.Flags.S())

	// 64-bit products.
	m = muldiv(OP_UMUL, 3, 0xffff_ffff_ffff_ffff, 0, 2)
	assert.Equal(Register(0xffff_ffff_ffff_fffe), m.Register[0])
	assert.Equal(Register(1), m.Register[1])
	m = muldiv(OP_SMUL, 3, 0xffff_ffff_ffff_ffff, 0, 2)
	assert.Equal(Register(0xffff_ffff_ffff_fffe), m.Register[0])
	assert.Equal(Register(0xffff_ffff_ffff_ffff), m.Register[1])
	assert.False(m.Flags.C())

	// UDIV of r1:r0.
	m = muldiv(OP_UDIV, 2, 0x0000_0005, 0x0000_0001, 0x10)
	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(uint64(0x1000_0000), m.Register[0].Get(2))
	assert.Equal(uint64(5), m.Register[1].Get(2))

	m = muldiv(OP_UDIV, 3, 7, 1, 2)
	assert.Equal(Register(0x8000_0000_0000_0003), m.Register[0])
	assert.Equal(Register(1), m.Register[1])

	// SDIV truncates toward zero, remainder follows the dividend.
	m = muldiv(OP_SDIV, 2, 0xffff_fff9, 0xffff_ffff, 2)
	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(uint64(0xffff_fffd), m.Register[0].Get(2))
	assert.Equal(uint64(0xffff_ffff), m.Register[1].Get(2))

	m = muldiv(OP_SDIV, 3, 0xffff_ffff_ffff_fff9, 0xffff_ffff_ffff_ffff, 0xffff_ffff_ffff_fffe)
	assert.Equal(Register(3), m.Register[0])
	assert.Equal(Register(0xffff_ffff_ffff_ffff), m.Register[1])

	// Quotient overflow.
	m = muldiv(OP_UDIV, 0, 0x00, 0x10, 0x10)
	assert.Equal(ERROR_ARITHMETIC, m.Error)
	m = muldiv(OP_SDIV, 0, 0x00, 0x01, 0x02)
	assert.Equal(ERROR_ARITHMETIC, m.Error)
	m = muldiv(OP_SDIV, 0, 0x80, 0xff, 0xff)
	assert.Equal(ERROR_ARITHMETIC, m.Error)
}

func TestExecDivideByZero(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []OpCode{OP_BUDIV, OP_BUMOD, OP_BSDIV, OP_BSMOD, OP_UDIV, OP_SDIV} {
		for sc := range uint64(4) {
			code := Code{}.Op(op).Fields(0, sc, MODE_REG).Reg(2).Op(OP_STOP)
			m := runCode(t, code, func(m *Machine) {
				m.Register[0] = 0x1234_5678_9abc_def0
				m.Register[1] = 0x0fed_cba9_8765_4321
				m.Register[2] = 0
			})
			assert.Equal(ERROR_ARITHMETIC, m.Error, "%v size %d", op, sc)
			assert.Equal(Register(0x1234_5678_9abc_def0), m.Register[0])
			assert.Equal(Register(0x0fed_cba9_8765_4321), m.Register[1])
		}
	}
}

func TestExecCallRet(t *testing.T) {
	assert := assert.New(t)

	// 0: CALL 11   (10 bytes)
	// 10: STOP
	// 11: RET
	code := Code{}.Op(OP_CALL).Literal(11).Op(OP_STOP).Op(OP_RET)
	assert.Len(code, 12)

	m := newTestMachine()
	assert.True(m.Initialize(code))
	sp := uint64(m.Register[REG_SP])

	assert.True(m.Tick())
	assert.Equal(uint64(11), m.Pos)
	assert.Equal(sp-8, uint64(m.Register[REG_SP]))
	ret, ok := m.GetMem(sp-8, 8)
	assert.True(ok)
	assert.Equal(uint64(10), ret)

	assert.True(m.Tick())
	assert.Equal(uint64(10), m.Pos)
	assert.Equal(sp, uint64(m.Register[REG_SP]))

	assert.False(m.Tick())
	assert.Equal(ERROR_NONE, m.Error)
}

func TestExecPushPop(t *testing.T) {
	assert := assert.New(t)

	code := Code{}.
		Op(OP_PUSH).Fields(0, 1, MODE_IMM).Imm(1, 0xbeef).
		Op(OP_PUSH).Fields(0, 3, MODE_REG).Reg(4).
		Op(OP_POP).Fields(5, 3, 0).
		Op(OP_POP).Fields(6, 1, 0).
		Op(OP_STOP)

	m := runCode(t, code, func(m *Machine) {
		m.Register[4] = 0x0102_0304_0506_0708
		m.Register[6] = 0xffff_ffff_ffff_ffff
	})

	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(Register(0x0102_0304_0506_0708), m.Register[5])
	assert.Equal(Register(0xffff_ffff_ffff_beef), m.Register[6])
	assert.Equal(Register(m.MemSize()), m.Register[REG_SP])
}

func TestExecAddressing(t *testing.T) {
	assert := assert.New(t)

	// r0 = M[r1*8 - r2*2 + 0x10] (dword), then store r0 to M[r3] (word).
	load := Address{M1: 4, R1: 1, M2: 2, R2: 2, Negate: true, Literal: true, Disp: 0x10}
	store := Address{M1: 1, R1: 3}

	code := Code{}.
		Op(OP_MOV).Fields(0, 2, MODE_MEM).Address(load).
		Op(OP_MOV).Fields(0, 1, MODE_STORE).Address(store).
		Op(OP_LA).Fields(7, 3, 0).Address(load).
		Op(OP_STOP)

	m := runCode(t, code, func(m *Machine) {
		m.Register[1] = 4
		m.Register[2] = 3
		m.Register[3] = 0x80
		m.SetMem(0x10+32-6, 4, 0xcafe_f00d)
	})

	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(uint64(0xcafe_f00d), m.Register[0].Get(2))
	v, _ := m.GetMem(0x80, 4)
	assert.Equal(uint64(0xf00d), v)
	assert.Equal(Register(0x10+32-6), m.Register[7])

	// Register byte is omitted without multipliers.
	assert.Equal([]byte{0x80, 1, 0, 0, 0, 0, 0, 0, 0}, Address{Literal: true, Disp: 1}.Append(nil))
	assert.Equal([]byte{0x10, 0x30}, store.Append(nil))
}

func TestExecConditional(t *testing.T) {
	assert := assert.New(t)

	// CMP r0, r1 then MOVZ/MOVNZ from memory and Jcc.
	mem := Address{Literal: true, Disp: 0x100}

	code := Code{}.
		Op(OP_CMP).Fields(0, 3, MODE_REG).Reg(1).
		Op(OP_MOVZ).Fields(2, 3, MODE_MEM).Address(mem).
		Op(OP_MOVNZ).Fields(3, 3, MODE_MEM).Address(mem).
		Op(OP_MOVB).Fields(4, 3, MODE_STORE).Address(mem).
		Op(OP_JNZ).Literal(0).
		Op(OP_STOP)

	setup := func(a, b uint64) func(m *Machine) {
		return func(m *Machine) {
			m.Register[0] = Register(a)
			m.Register[1] = Register(b)
			m.Register[2] = 0
			m.Register[3] = 0
			m.Register[4] = 0x4444
			m.SetMem(0x100, 8, 0x1234)
		}
	}

	m := runCode(t, code, setup(5, 5))
	assert.Equal(ERROR_NONE, m.Error)
	assert.Equal(Register(0x1234), m.Register[2])
	assert.Equal(Register(0), m.Register[3])
	v, _ := m.GetMem(0x100, 8)
	assert.Equal(uint64(0x1234), v)
	assert.Equal(6, m.Ticks)

	// Not equal and below: the JNZ would loop forever, so stop it.
	m = newTestMachine()
	assert.True(m.Initialize(code))
	setup(1, 5)(m)
	for range 5 {
		m.Tick()
	}
	assert.Equal(Register(0), m.Register[2])
	assert.Equal(Register(0x1234), m.Register[3])
	v, _ = m.GetMem(0x100, 8)
	assert.Equal(uint64(0x4444), v)
	assert.Equal(uint64(0), m.Pos)
}

func TestExecFloat(t *testing.T) {
	assert := assert.New(t)

	fbin := func(op OpCode, a, b float64) *Machine {
		code := Code{}.Op(op).Fields(0, 3, MODE_IMM).Imm(3, math.Float64bits(b)).Op(OP_STOP)
		return runCode(t, code, func(m *Machine) {
			m.Register[0].SetFloat(a)
			m.Flags = 0
		})
	}

	m := fbin(OP_FADD, 1.5, 2.25)
	assert.Equal(3.75, m.Register[0].Float())
	assert.Equal(Flags(0), m.Flags)

	m = fbin(OP_FSUB, 1.5, 2.25)
	assert.Equal(-0.75, m.Register[0].Float())
	assert.True(m.Flags.S())

	m = fbin(OP_FDIV, 1, 0)
	assert.True(math.IsInf(m.Register[0].Float(), 1))
	assert.True(m.Flags.O())
	assert.False(m.Flags.C())

	m = fbin(OP_FDIV, 0, 0)
	assert.True(math.IsNaN(m.Register[0].Float()))
	assert.True(m.Flags.C())

	m = fbin(OP_FCMP, 2, 2)
	assert.Equal(2.0, m.Register[0].Float())
	assert.True(m.Flags.Z())

	m = fbin(OP_POW, 2, 10)
	assert.Equal(1024.0, m.Register[0].Float())

	m = fbin(OP_ATAN2, 1, 1)
	assert.InDelta(math.Pi/4, m.Register[0].Float(), 1e-12)

	funary := func(op OpCode, a float64) *Machine {
		code := Code{}.Op(op).Fields(0, 3, 0).Op(OP_STOP)
		return runCode(t, code, func(m *Machine) {
			m.Register[0].SetFloat(a)
			m.Flags = 0
		})
	}

	assert.Equal(3.0, funary(OP_SQRT, 9).Register[0].Float())
	assert.Equal(2.0, funary(OP_ROUND, 2.5).Register[0].Float())
	assert.Equal(-2.0, funary(OP_TRUNC, -2.75).Register[0].Float())
	assert.Equal(-3.0, funary(OP_FLOOR, -2.25).Register[0].Float())
	assert.Equal(-1.5, funary(OP_FNEG, 1.5).Register[0].Float())
	assert.True(funary(OP_FCMPZ, -0.5).Flags.S())

	m = funary(OP_FTOI, -7.9)
	assert.Equal(Register(0xffff_ffff_ffff_fff9), m.Register[0])
	assert.True(m.Flags.S())

	code := Code{}.Op(OP_ITOF).Fields(0, 3, 0).Op(OP_STOP)
	m = runCode(t, code, func(m *Machine) { m.Register[0] = Register(0xffff_ffff_ffff_fffd) })
	assert.Equal(-3.0, m.Register[0].Float())
}

func TestExecFlagsRegister(t *testing.T) {
	assert := assert.New(t)

	code := Code{}.
		Op(OP_SETF).Fields(0, 0, 0).
		Op(OP_GETF).Fields(1, 3, 0).
		Op(OP_STOP)

	m := runCode(t, code, func(m *Machine) {
		m.Register[0] = Register(0xff)
	})

	assert.Equal(FLAG_MASK, m.Flags)
	assert.Equal(Register(FLAG_MASK), m.Register[1])
	assert.Equal("ZSPOC", m.Flags.String())
}
