// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"fmt"
	"strings"

	"github.com/ezrec/vm64/internal"
)

var sizeSuffix = [4]string{"b", "w", "d", "q"}

// RegisterName returns the assembler name of a register.
func RegisterName(reg uint64) string {
	if reg == REG_SP {
		return "sp"
	}
	return fmt.Sprintf("r%d", reg)
}

// String returns the address in assembler syntax.
func (addr Address) String() string {
	var terms []string

	if addr.M1 != 0 {
		term := RegisterName(addr.R1)
		if mult := internal.Mult(addr.M1); mult != 1 {
			term += fmt.Sprintf("*%d", mult)
		}
		terms = append(terms, term)
	}

	if addr.M2 != 0 {
		term := RegisterName(addr.R2)
		if mult := internal.Mult(addr.M2); mult != 1 {
			term += fmt.Sprintf("*%d", mult)
		}
		switch {
		case addr.Negate:
			term = "-" + term
		case len(terms) != 0:
			term = "+" + term
		}
		terms = append(terms, term)
	}

	if addr.Literal || len(terms) == 0 {
		disp := fmt.Sprintf("0x%x", addr.Disp)
		if len(terms) != 0 {
			disp = "+" + disp
		}
		terms = append(terms, disp)
	}

	text := strings.Join(terms, " ")
	text = strings.ReplaceAll(text, " +", " + ")
	text = strings.ReplaceAll(text, " -", " - ")
	return "[" + text + "]"
}

// decoder reads instruction bytes from a memory image.
type decoder struct {
	mem Memory
	pos uint64
}

func (dec *decoder) fetch(size uint64) (value uint64, ok bool) {
	value, ok = dec.mem.Read(dec.pos, size)
	if ok {
		dec.pos += size
	}
	return
}

func (dec *decoder) fields() (reg uint64, sizecode uint64, mode uint64, ok bool) {
	fields, ok := dec.fetch(1)
	reg, sizecode, mode = splitFields(fields)
	return
}

func (dec *decoder) address() (addr Address, ok bool) {
	mode, ok := dec.fetch(1)
	if !ok {
		return
	}

	addr.Literal = mode&ADDR_LITERAL != 0
	addr.Negate = mode&ADDR_NEGATE != 0
	addr.M1 = (mode >> 4) & 7
	addr.M2 = mode & 7

	if addr.HasRegisters() {
		var regs uint64
		regs, ok = dec.fetch(1)
		if !ok {
			return
		}
		addr.R1 = regs >> 4
		addr.R2 = regs & 15
	}

	if addr.Literal {
		addr.Disp, ok = dec.fetch(8)
	}

	return
}

func (dec *decoder) operand(sizecode uint64, mode uint64) (text string, ok bool) {
	switch mode {
	case MODE_IMM:
		var value uint64
		value, ok = dec.fetch(internal.SizeBytes(sizecode))
		text = fmt.Sprintf("0x%x", value)
	case MODE_REG:
		var src uint64
		src, ok = dec.fetch(1)
		text = RegisterName(src >> 4)
	case MODE_MEM:
		var addr Address
		addr, ok = dec.address()
		text = addr.String()
	}
	return
}

// Disassemble decodes the instruction at pos in code. It returns the
// instruction in assembler syntax and its encoded size; ok is false if the
// bytes at pos are not a valid instruction.
func Disassemble(code []byte, pos uint64) (text string, size uint64, ok bool) {
	dec := &decoder{mem: Memory(code), pos: pos}

	opByte, ok := dec.fetch(1)
	if !ok {
		return
	}

	op := OpCode(opByte)
	info, ok := op.Info()
	if !ok {
		return
	}

	var args []string
	var suffix string

	switch info.Format {
	case FORMAT_NONE:
		ok = true
	case FORMAT_BINARY, FORMAT_MOVE, FORMAT_SOURCE:
		var reg, sizecode, mode uint64
		reg, sizecode, mode, ok = dec.fields()
		if !ok {
			return
		}
		suffix = "." + sizeSuffix[sizecode]

		if mode == MODE_STORE {
			if info.Format != FORMAT_MOVE {
				ok = false
				return
			}
			var addr Address
			addr, ok = dec.address()
			args = []string{addr.String(), RegisterName(reg)}
			break
		}

		var src string
		src, ok = dec.operand(sizecode, mode)
		if info.Format == FORMAT_SOURCE {
			args = []string{src}
		} else {
			args = []string{RegisterName(reg), src}
		}
	case FORMAT_UNARY:
		var reg, sizecode uint64
		reg, sizecode, _, ok = dec.fields()
		suffix = "." + sizeSuffix[sizecode]
		args = []string{RegisterName(reg)}
	case FORMAT_EXTEND:
		var reg, from, to uint64
		reg, from, to, ok = dec.fields()
		suffix = "." + sizeSuffix[from] + "." + sizeSuffix[to]
		args = []string{RegisterName(reg)}
	case FORMAT_SWAP:
		var r1, sizecode uint64
		r1, sizecode, _, ok = dec.fields()
		if !ok {
			return
		}
		var regs uint64
		regs, ok = dec.fetch(1)
		suffix = "." + sizeSuffix[sizecode]
		args = []string{RegisterName(r1), RegisterName(regs >> 4)}
	case FORMAT_ADDRESS:
		var addr Address
		addr, ok = dec.address()
		args = []string{addr.String()}
	case FORMAT_LOAD:
		var reg, sizecode uint64
		reg, sizecode, _, ok = dec.fields()
		if !ok {
			return
		}
		var addr Address
		addr, ok = dec.address()
		suffix = "." + sizeSuffix[sizecode]
		args = []string{RegisterName(reg), addr.String()}
	}

	if !ok {
		return
	}

	text = info.Name + suffix
	if len(args) != 0 {
		text += " " + strings.Join(args, ", ")
	}
	size = dec.pos - pos
	return
}
