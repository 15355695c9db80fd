// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"errors"
	"log"
	"slices"
	"strconv"
	"strings"

	"github.com/ezrec/vm64/internal"
	"github.com/ezrec/vm64/machine"
)

// sizeSuffix maps the mnemonic size suffixes to size codes.
var sizeSuffix = map[string]uint64{
	"b": internal.SIZE_BYTE,
	"w": internal.SIZE_WORD,
	"d": internal.SIZE_DWORD,
	"q": internal.SIZE_QWORD,
}

// dataSize maps the data directives to size codes.
var dataSize = map[string]uint64{
	"BYTE":  internal.SIZE_BYTE,
	"WORD":  internal.SIZE_WORD,
	"DWORD": internal.SIZE_DWORD,
	"QWORD": internal.SIZE_QWORD,
}

// register parses a register name.
func register(text string) (reg uint64, ok bool) {
	text = strings.ToLower(text)
	if text == "sp" {
		return machine.REG_SP, true
	}
	if len(text) < 2 || text[0] != 'r' || (len(text) > 2 && text[1] == '0') {
		return
	}
	n, err := strconv.ParseUint(text[1:], 10, 8)
	if err != nil || n >= machine.REG_COUNT {
		return
	}
	return n, true
}

// isMemory is true for a bracketed memory operand.
func isMemory(text string) bool {
	return strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
}

// instruction assembles an instruction or directive.
func (as *assembly) instruction(text string) (err error) {
	mnemonic, args := splitInstruction(text)

	parts := strings.Split(mnemonic, ".")
	name := strings.ToUpper(parts[0])
	suffixes := parts[1:]

	_, isData := dataSize[name]
	if name == "GLOBAL" || name == "DEF" || isData {
		if len(suffixes) != 0 {
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		}
		return as.directive(name, text[len(mnemonic):], args)
	}

	op, ok := machine.Lookup(name)
	if !ok {
		err = errors.Join(ErrUnknownOp, ErrMnemonic(mnemonic))
		return
	}
	info, _ := op.Info()

	var sizes []uint64
	for _, suffix := range suffixes {
		sc, ok := sizeSuffix[strings.ToLower(suffix)]
		if !ok {
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		}
		sizes = append(sizes, sc)
	}

	argc := map[machine.Format]int{
		machine.FORMAT_NONE:    0,
		machine.FORMAT_BINARY:  2,
		machine.FORMAT_MOVE:    2,
		machine.FORMAT_UNARY:   1,
		machine.FORMAT_EXTEND:  1,
		machine.FORMAT_SWAP:    2,
		machine.FORMAT_SOURCE:  1,
		machine.FORMAT_ADDRESS: 1,
		machine.FORMAT_LOAD:    2,
	}[info.Format]
	if len(args) != argc {
		err = errors.Join(ErrArgCount, ErrMnemonic(mnemonic))
		return
	}

	if as.Verbose {
		log.Printf("asm: %v: %v %v", op, info.Format, args)
	}

	var sizecode uint64
	switch info.Format {
	case machine.FORMAT_NONE, machine.FORMAT_ADDRESS:
		if len(sizes) != 0 {
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		}
	case machine.FORMAT_EXTEND:
		if len(sizes) < 2 {
			err = errors.Join(ErrMissingSize, ErrMnemonic(mnemonic))
			return
		}
		if len(sizes) > 2 || sizes[0] >= sizes[1] {
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		}
	default:
		switch {
		case len(sizes) > 1:
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		case len(sizes) == 1:
			sizecode = sizes[0]
		case info.Floating || info.Format == machine.FORMAT_LOAD:
			sizecode = internal.SIZE_QWORD
		default:
			err = errors.Join(ErrMissingSize, ErrMnemonic(mnemonic))
			return
		}
		if info.Floating && sizecode != internal.SIZE_QWORD {
			err = errors.Join(ErrUsageError, ErrMnemonic(mnemonic))
			return
		}
	}

	obj := as.obj
	obj.Data = machine.Code(obj.Data).Op(op)

	switch info.Format {
	case machine.FORMAT_NONE:
		// pass
	case machine.FORMAT_BINARY:
		var dest uint64
		dest, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		err = as.source(dest, sizecode, args[1])
	case machine.FORMAT_MOVE:
		if isMemory(args[0]) {
			var src uint64
			src, err = as.regOperand(args[1])
			if err != nil {
				return
			}
			obj.Data = machine.Code(obj.Data).Fields(src, sizecode, machine.MODE_STORE)
			err = as.address(args[0])
			return
		}
		var dest uint64
		dest, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		err = as.source(dest, sizecode, args[1])
	case machine.FORMAT_UNARY:
		var reg uint64
		reg, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		obj.Data = machine.Code(obj.Data).Fields(reg, sizecode, 0)
	case machine.FORMAT_EXTEND:
		var reg uint64
		reg, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		obj.Data = machine.Code(obj.Data).Fields(reg, sizes[0], sizes[1])
	case machine.FORMAT_SWAP:
		var r1, r2 uint64
		r1, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		r2, err = as.regOperand(args[1])
		if err != nil {
			return
		}
		obj.Data = machine.Code(obj.Data).Fields(r1, sizecode, 0).Reg(r2)
	case machine.FORMAT_SOURCE:
		err = as.source(0, sizecode, args[0])
	case machine.FORMAT_ADDRESS:
		err = as.address(args[0])
	case machine.FORMAT_LOAD:
		var reg uint64
		reg, err = as.regOperand(args[0])
		if err != nil {
			return
		}
		obj.Data = machine.Code(obj.Data).Fields(reg, sizecode, 0)
		err = as.address(args[1])
	default:
		err = errors.Join(ErrFormatError, ErrMnemonic(mnemonic))
	}

	return
}

// regOperand parses an operand that must be a register.
func (as *assembly) regOperand(text string) (reg uint64, err error) {
	reg, ok := register(text)
	if !ok {
		err = errors.Join(ErrArgError, ErrOperand(text))
		return
	}
	return
}

// source emits the fields byte and the operand of an immediate, register
// or memory source.
func (as *assembly) source(reg uint64, sizecode uint64, text string) (err error) {
	obj := as.obj

	if src, ok := register(text); ok {
		obj.Data = machine.Code(obj.Data).Fields(reg, sizecode, machine.MODE_REG).Reg(src)
		return
	}

	if isMemory(text) {
		obj.Data = machine.Code(obj.Data).Fields(reg, sizecode, machine.MODE_MEM)
		return as.address(text)
	}

	hole, err := as.instant(text)
	if err != nil {
		return
	}
	obj.Data = machine.Code(obj.Data).Fields(reg, sizecode, machine.MODE_IMM)
	as.emit(hole, internal.SizeBytes(sizecode))
	return
}

// scaled is a register term of an address.
type scaled struct {
	reg    uint64
	mult   uint64
	negate bool
}

// scaledRegister parses 'reg', 'reg*k' or 'k*reg'.
func (as *assembly) scaledRegister(text string) (sr scaled, ok bool, err error) {
	if strings.HasPrefix(text, "$(") || strings.HasPrefix(text, "'") {
		return
	}

	left, right, product := strings.Cut(text, "*")
	if !product {
		sr.reg, ok = register(text)
		sr.mult = 1
		return
	}

	factor := right
	sr.reg, ok = register(left)
	if !ok {
		factor = left
		sr.reg, ok = register(right)
	}
	if !ok {
		err = errors.Join(ErrArgError, ErrOperand(text))
		return
	}

	sr.mult, err = as.count(factor)
	if err != nil {
		return
	}

	return
}

// address emits an address operand, with or without brackets.
func (as *assembly) address(text string) (err error) {
	expr := text
	if isMemory(text) {
		expr = text[1 : len(text)-1]
	}

	terms, ok := splitTerms(expr)
	if !ok {
		err = errors.Join(ErrFormatError, ErrOperand(text))
		return
	}

	var regs []scaled
	var disp Hole
	literal := false

	for _, t := range terms {
		var sr scaled
		sr, ok, err = as.scaledRegister(t.text)
		if err != nil {
			return
		}
		if ok {
			sr.negate = t.negate
			regs = append(regs, sr)
			continue
		}
		disp, err = as.addTerm(disp, t)
		if err != nil {
			return
		}
		literal = true
	}

	addr := machine.Address{Literal: literal || len(regs) == 0}

	switch len(regs) {
	case 0:
	case 1:
		if regs[0].negate {
			regs = append([]scaled{{}}, regs[0])
		}
	case 2:
		if regs[0].negate {
			regs[0], regs[1] = regs[1], regs[0]
		}
		if regs[0].negate {
			err = errors.Join(ErrArgError, ErrOperand(text))
			return
		}
	default:
		err = errors.Join(ErrArgError, ErrOperand(text))
		return
	}

	for n, sr := range regs {
		if sr.mult == 0 && n == 0 {
			continue
		}
		code, ok := internal.MultCode(sr.mult)
		if !ok || code == 0 {
			err = errors.Join(ErrArgError, ErrOperand(text))
			return
		}
		if n == 0 {
			addr.M1, addr.R1 = code, sr.reg
		} else {
			addr.M2, addr.R2, addr.Negate = code, sr.reg, sr.negate
		}
	}

	obj := as.obj
	obj.Data = append(obj.Data, addr.Mode())
	if addr.HasRegisters() {
		obj.Data = append(obj.Data, byte(addr.R1<<4|addr.R2))
	}
	if addr.Literal {
		as.emit(disp, 8)
	}

	return
}

// directive assembles GLOBAL, DEF and the data directives.
func (as *assembly) directive(name string, rest string, args []string) (err error) {
	switch name {
	case "GLOBAL":
		if len(args) == 0 {
			err = errors.Join(ErrArgCount, ErrMnemonic(name))
			return
		}
		for _, arg := range args {
			var full string
			full, err = as.symbolName(arg)
			if err != nil {
				return
			}
			if !slices.Contains(as.obj.Globals, full) {
				as.obj.Globals = append(as.obj.Globals, full)
			}
		}
	case "DEF":
		symbol, value := splitInstruction(rest)
		if before, after, found := strings.Cut(symbol, ","); found {
			symbol = before
			if len(after) > 0 {
				value = append([]string{after}, value...)
			}
		}
		if len(value) != 1 || len(symbol) == 0 {
			err = errors.Join(ErrArgCount, ErrMnemonic(name))
			return
		}
		var full string
		full, err = as.symbolName(symbol)
		if err != nil {
			return
		}
		var sym Symbol
		sym, err = as.value(value[0])
		if err != nil {
			return
		}
		err = as.define(full, sym)
		if err == nil && as.Verbose {
			log.Printf("asm: def %v = 0x%x", full, sym.Value)
		}
	default:
		err = as.data(name, args)
	}

	return
}

// data assembles a BYTE, WORD, DWORD or QWORD directive.
func (as *assembly) data(name string, args []string) (err error) {
	sizecode := dataSize[name]
	size := internal.SizeBytes(sizecode)

	if len(args) == 0 {
		err = errors.Join(ErrArgCount, ErrMnemonic(name))
		return
	}

	var prev *Hole
	for _, arg := range args {
		switch {
		case len(arg) == 0:
			err = errors.Join(ErrArgError, ErrOperand(arg))
			return
		case arg[0] == '"':
			if sizecode != internal.SIZE_BYTE {
				err = errors.Join(ErrArgError, ErrOperand(arg))
				return
			}
			var str string
			str, err = strconv.Unquote(arg)
			if err != nil {
				err = errors.Join(ErrArgError, ErrOperand(arg))
				return
			}
			as.obj.Data = append(as.obj.Data, str...)
			if len(str) > 0 {
				prev = &Hole{Value: uint64(str[len(str)-1])}
			}
		case isRepeat(arg):
			if prev == nil {
				err = errors.Join(ErrArgError, ErrOperand(arg))
				return
			}
			var n uint64
			n, err = as.count(arg[1:])
			if err != nil {
				return
			}
			if n-1 > (machine.MAX_MEMORY-uint64(len(as.obj.Data)))/size {
				err = errors.Join(ErrArgError, ErrOperand(arg))
				return
			}
			for range n - 1 {
				as.emit(*prev, size)
			}
		default:
			var hole Hole
			hole, err = as.instant(arg)
			if err != nil {
				return
			}
			as.emit(hole, size)
			prev = &hole
		}
	}

	return
}

// isRepeat is true for an 'xN' repeat operand.
func isRepeat(arg string) bool {
	return len(arg) > 1 && arg[0] == 'x' && ((arg[1] >= '0' && arg[1] <= '9') || arg[1] == '$')
}
