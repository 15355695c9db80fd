// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"fmt"
	"strings"
)

// OpCode is the first byte of every instruction.
type OpCode byte

const (
	OP_NOP = OpCode(iota)
	OP_STOP
	OP_SYSCALL

	OP_MOV
	OP_MOVA
	OP_MOVAE
	OP_MOVB
	OP_MOVBE
	OP_MOVG
	OP_MOVGE
	OP_MOVL
	OP_MOVLE
	OP_MOVZ
	OP_MOVNZ
	OP_MOVS
	OP_MOVNS
	OP_MOVP
	OP_MOVNP
	OP_MOVO
	OP_MOVNO
	OP_MOVC
	OP_MOVNC

	OP_SWAP
	OP_UEXTEND
	OP_SEXTEND

	OP_UMUL
	OP_SMUL
	OP_UDIV
	OP_SDIV

	OP_ADD
	OP_SUB
	OP_BMUL
	OP_BUDIV
	OP_BUMOD
	OP_BSDIV
	OP_BSMOD

	OP_SL
	OP_SR
	OP_SAL
	OP_SAR
	OP_RL
	OP_RR

	OP_AND
	OP_OR
	OP_XOR

	OP_CMP
	OP_TEST

	OP_INC
	OP_DEC
	OP_NEG
	OP_NOT
	OP_ABS
	OP_CMPZ

	OP_LA

	OP_JMP
	OP_JA
	OP_JAE
	OP_JB
	OP_JBE
	OP_JG
	OP_JGE
	OP_JL
	OP_JLE
	OP_JZ
	OP_JNZ
	OP_JS
	OP_JNS
	OP_JP
	OP_JNP
	OP_JO
	OP_JNO
	OP_JC
	OP_JNC

	OP_FADD
	OP_FSUB
	OP_FMUL
	OP_FDIV
	OP_FMOD
	OP_POW
	OP_SQRT
	OP_EXP
	OP_LN
	OP_FNEG
	OP_FABS
	OP_FCMPZ

	OP_SIN
	OP_COS
	OP_TAN
	OP_SINH
	OP_COSH
	OP_TANH
	OP_ASIN
	OP_ACOS
	OP_ATAN
	OP_ATAN2

	OP_FLOOR
	OP_CEIL
	OP_ROUND
	OP_TRUNC

	OP_FCMP
	OP_FTOI
	OP_ITOF

	OP_PUSH
	OP_POP
	OP_CALL
	OP_RET

	OP_BSWAP
	OP_GETF
	OP_SETF

	OP_COUNT // Number of defined opcodes.
)

//go:generate go tool stringer -type=Format -trimprefix=FORMAT_

// Format is the operand layout following an opcode byte.
type Format int

const (
	FORMAT_NONE    = Format(0) // No operands.
	FORMAT_BINARY  = Format(1) // [dest:4 size:2 mode:2] imm | reg | address
	FORMAT_MOVE    = Format(2) // [reg:4 size:2 mode:2] load or store
	FORMAT_UNARY   = Format(3) // [reg:4 size:2 _:2]
	FORMAT_EXTEND  = Format(4) // [reg:4 from:2 to:2]
	FORMAT_SWAP    = Format(5) // [r1:4 size:2 _:2] [r2:4 _:4]
	FORMAT_SOURCE  = Format(6) // [src:4 size:2 mode:2] imm | reg | address
	FORMAT_ADDRESS = Format(7) // address
	FORMAT_LOAD    = Format(8) // [reg:4 size:2 _:2] address
)

// OpInfo describes an opcode to the assembler and disassembler.
type OpInfo struct {
	Name     string // Mnemonic.
	Format   Format // Operand layout.
	Floating bool   // Operates on 64-bit floating point values only.
}

var opInfo = [OP_COUNT]OpInfo{
	OP_NOP:     {"NOP", FORMAT_NONE, false},
	OP_STOP:    {"STOP", FORMAT_NONE, false},
	OP_SYSCALL: {"SYSCALL", FORMAT_NONE, false},

	OP_MOV:     {"MOV", FORMAT_MOVE, false},
	OP_SWAP:    {"SWAP", FORMAT_SWAP, false},
	OP_UEXTEND: {"UEXTEND", FORMAT_EXTEND, false},
	OP_SEXTEND: {"SEXTEND", FORMAT_EXTEND, false},

	OP_UMUL: {"UMUL", FORMAT_SOURCE, false},
	OP_SMUL: {"SMUL", FORMAT_SOURCE, false},
	OP_UDIV: {"UDIV", FORMAT_SOURCE, false},
	OP_SDIV: {"SDIV", FORMAT_SOURCE, false},

	OP_ADD:   {"ADD", FORMAT_BINARY, false},
	OP_SUB:   {"SUB", FORMAT_BINARY, false},
	OP_BMUL:  {"BMUL", FORMAT_BINARY, false},
	OP_BUDIV: {"BUDIV", FORMAT_BINARY, false},
	OP_BUMOD: {"BUMOD", FORMAT_BINARY, false},
	OP_BSDIV: {"BSDIV", FORMAT_BINARY, false},
	OP_BSMOD: {"BSMOD", FORMAT_BINARY, false},
	OP_SL:    {"SL", FORMAT_BINARY, false},
	OP_SR:    {"SR", FORMAT_BINARY, false},
	OP_SAL:   {"SAL", FORMAT_BINARY, false},
	OP_SAR:   {"SAR", FORMAT_BINARY, false},
	OP_RL:    {"RL", FORMAT_BINARY, false},
	OP_RR:    {"RR", FORMAT_BINARY, false},
	OP_AND:   {"AND", FORMAT_BINARY, false},
	OP_OR:    {"OR", FORMAT_BINARY, false},
	OP_XOR:   {"XOR", FORMAT_BINARY, false},
	OP_CMP:   {"CMP", FORMAT_BINARY, false},
	OP_TEST:  {"TEST", FORMAT_BINARY, false},

	OP_INC:  {"INC", FORMAT_UNARY, false},
	OP_DEC:  {"DEC", FORMAT_UNARY, false},
	OP_NEG:  {"NEG", FORMAT_UNARY, false},
	OP_NOT:  {"NOT", FORMAT_UNARY, false},
	OP_ABS:  {"ABS", FORMAT_UNARY, false},
	OP_CMPZ: {"CMPZ", FORMAT_UNARY, false},

	OP_LA: {"LA", FORMAT_LOAD, false},

	OP_JMP: {"JMP", FORMAT_ADDRESS, false},

	OP_FADD:  {"FADD", FORMAT_BINARY, true},
	OP_FSUB:  {"FSUB", FORMAT_BINARY, true},
	OP_FMUL:  {"FMUL", FORMAT_BINARY, true},
	OP_FDIV:  {"FDIV", FORMAT_BINARY, true},
	OP_FMOD:  {"FMOD", FORMAT_BINARY, true},
	OP_POW:   {"POW", FORMAT_BINARY, true},
	OP_SQRT:  {"SQRT", FORMAT_UNARY, true},
	OP_EXP:   {"EXP", FORMAT_UNARY, true},
	OP_LN:    {"LN", FORMAT_UNARY, true},
	OP_FNEG:  {"FNEG", FORMAT_UNARY, true},
	OP_FABS:  {"FABS", FORMAT_UNARY, true},
	OP_FCMPZ: {"FCMPZ", FORMAT_UNARY, true},
	OP_SIN:   {"SIN", FORMAT_UNARY, true},
	OP_COS:   {"COS", FORMAT_UNARY, true},
	OP_TAN:   {"TAN", FORMAT_UNARY, true},
	OP_SINH:  {"SINH", FORMAT_UNARY, true},
	OP_COSH:  {"COSH", FORMAT_UNARY, true},
	OP_TANH:  {"TANH", FORMAT_UNARY, true},
	OP_ASIN:  {"ASIN", FORMAT_UNARY, true},
	OP_ACOS:  {"ACOS", FORMAT_UNARY, true},
	OP_ATAN:  {"ATAN", FORMAT_UNARY, true},
	OP_ATAN2: {"ATAN2", FORMAT_BINARY, true},
	OP_FLOOR: {"FLOOR", FORMAT_UNARY, true},
	OP_CEIL:  {"CEIL", FORMAT_UNARY, true},
	OP_ROUND: {"ROUND", FORMAT_UNARY, true},
	OP_TRUNC: {"TRUNC", FORMAT_UNARY, true},
	OP_FCMP:  {"FCMP", FORMAT_BINARY, true},
	OP_FTOI:  {"FTOI", FORMAT_UNARY, true},
	OP_ITOF:  {"ITOF", FORMAT_UNARY, true},

	OP_PUSH: {"PUSH", FORMAT_SOURCE, false},
	OP_POP:  {"POP", FORMAT_UNARY, false},
	OP_CALL: {"CALL", FORMAT_ADDRESS, false},
	OP_RET:  {"RET", FORMAT_NONE, false},

	OP_BSWAP: {"BSWAP", FORMAT_UNARY, false},
	OP_GETF:  {"GETF", FORMAT_UNARY, false},
	OP_SETF:  {"SETF", FORMAT_UNARY, false},
}

var opByName = map[string]OpCode{}

func init() {
	for cond := range COND_COUNT {
		opInfo[OP_MOVA+OpCode(cond)] = OpInfo{"MOV" + strings.ToUpper(cond.String()), FORMAT_MOVE, false}
		opInfo[OP_JA+OpCode(cond)] = OpInfo{"J" + strings.ToUpper(cond.String()), FORMAT_ADDRESS, false}
	}
	for n, info := range opInfo {
		opByName[info.Name] = OpCode(n)
	}
}

// Info returns the description of an opcode.
func (op OpCode) Info() (info OpInfo, ok bool) {
	if op >= OP_COUNT {
		return
	}
	return opInfo[op], true
}

// Lookup finds the opcode for an upper case mnemonic.
func Lookup(name string) (op OpCode, ok bool) {
	op, ok = opByName[name]
	return
}

func (op OpCode) String() string {
	info, ok := op.Info()
	if !ok {
		return fmt.Sprintf("OP(0x%02x)", byte(op))
	}
	return info.Name
}

//go:generate go tool stringer -linecomment -type=Cond

// Cond is a flags predicate for conditional moves and jumps.
type Cond int

const (
	COND_A = Cond(iota) // a
	COND_AE             // ae
	COND_B              // b
	COND_BE             // be
	COND_G              // g
	COND_GE             // ge
	COND_L              // l
	COND_LE             // le
	COND_Z              // z
	COND_NZ             // nz
	COND_S              // s
	COND_NS             // ns
	COND_P              // p
	COND_NP             // np
	COND_O              // o
	COND_NO             // no
	COND_C              // c
	COND_NC             // nc
)

const COND_COUNT = COND_NC + 1 // Number of conditions.
