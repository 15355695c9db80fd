// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math"

	"github.com/ezrec/vm64/internal"
)

var floatUnary = map[OpCode]func(float64) float64{
	OP_SQRT:  math.Sqrt,
	OP_EXP:   math.Exp,
	OP_LN:    math.Log,
	OP_FNEG:  func(a float64) float64 { return -a },
	OP_FABS:  math.Abs,
	OP_SIN:   math.Sin,
	OP_COS:   math.Cos,
	OP_TAN:   math.Tan,
	OP_SINH:  math.Sinh,
	OP_COSH:  math.Cosh,
	OP_TANH:  math.Tanh,
	OP_ASIN:  math.Asin,
	OP_ACOS:  math.Acos,
	OP_ATAN:  math.Atan,
	OP_FLOOR: math.Floor,
	OP_CEIL:  math.Ceil,
	OP_ROUND: math.RoundToEven,
	OP_TRUNC: math.Trunc,
}

var floatBinary = map[OpCode]func(float64, float64) float64{
	OP_FADD:  func(a, b float64) float64 { return a + b },
	OP_FSUB:  func(a, b float64) float64 { return a - b },
	OP_FCMP:  func(a, b float64) float64 { return a - b },
	OP_FMUL:  func(a, b float64) float64 { return a * b },
	OP_FDIV:  func(a, b float64) float64 { return a / b },
	OP_FMOD:  math.Mod,
	OP_POW:   math.Pow,
	OP_ATAN2: math.Atan2,
}

// doFloat executes the double precision instructions. All of them operate
// on full 64-bit registers only.
func (m *Machine) doFloat(op OpCode) (code ErrorCode) {
	info, _ := op.Info()

	if info.Format == FORMAT_BINARY {
		dest, sizecode, a, b, code := m.fetchBinary()
		if code != ERROR_NONE {
			return code
		}
		if sizecode != internal.SIZE_QWORD {
			return ERROR_UNDEFINED
		}
		res := floatBinary[op](math.Float64frombits(a), math.Float64frombits(b))
		m.Flags.UpdateF(res)
		if op != OP_FCMP {
			m.Register[dest].SetFloat(res)
		}
		return ERROR_NONE
	}

	fields, code := m.fetch(1)
	if code != ERROR_NONE {
		return
	}
	reg, sizecode, _ := splitFields(fields)
	if sizecode != internal.SIZE_QWORD {
		return ERROR_UNDEFINED
	}
	r := &m.Register[reg]

	switch op {
	case OP_FCMPZ:
		m.Flags.UpdateF(r.Float())
	case OP_FTOI:
		a := r.Float()
		if math.IsNaN(a) || a >= math.Exp2(63) || a < -math.Exp2(63) {
			return ERROR_ARITHMETIC
		}
		res := uint64(int64(a))
		r.Set(sizecode, res)
		m.logic(res, sizecode)
	case OP_ITOF:
		res := float64(int64(r.Get(sizecode)))
		r.SetFloat(res)
		m.Flags.UpdateF(res)
	default:
		fn, ok := floatUnary[op]
		if !ok {
			return ERROR_UNDEFINED
		}
		res := fn(r.Float())
		r.SetFloat(res)
		m.Flags.UpdateF(res)
	}

	return
}
