// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/vm64/internal"
)

// VERSION is the value of the predefined __version__ symbol.
const VERSION = 1

// Assembler converts source text into object files.
type Assembler struct {
	Verbose bool             // If set, verbosely logs the assembler actions.
	Now     func() time.Time // Clock for __time__; time.Now if nil.

	predefine map[string]string
}

// Predefine defines a symbol, as an expression, for every later Parse.
func (asm *Assembler) Predefine(name string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{name: value}
	} else {
		asm.predefine[name] = value
	}
}

// assembly is the state of a single Parse.
type assembly struct {
	*Assembler
	obj *ObjectFile

	lineNo    int    // Current line number.
	linePos   uint64 // Offset of the current line's first byte.
	static    string // Last static label, the scope of local labels.
	snapshots int    // Number of __pos__ references.
}

// Assemble parses source text into an object file.
func (asm *Assembler) Assemble(text string) (obj *ObjectFile, err error) {
	return asm.Parse(strings.NewReader(text))
}

// Parse parses an input stream into an object file. The first error
// stops assembly; no object file is returned with an error.
func (asm *Assembler) Parse(input io.Reader) (obj *ObjectFile, err error) {
	as := &assembly{
		Assembler: asm,
		obj: &ObjectFile{
			Symbols: map[string]Symbol{},
		},
	}

	var line string

	defer func() {
		if err != nil {
			obj = nil
			var syn *ErrSyntax
			if !errors.As(err, &syn) {
				err = &ErrSyntax{LineNo: as.lineNo, Line: line, Err: err}
			}
		}
	}()

	err = as.predefined()
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		as.lineNo++
		line = strings.TrimSpace(stripComment(scanner.Text()))
		if len(line) == 0 {
			continue
		}

		if asm.Verbose {
			log.Printf("asm: %v: %v", as.lineNo, line)
		}

		err = as.parseLine(line)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if len(as.obj.Data) == 0 {
		line = ""
		err = ErrEmptyFile
		return
	}

	obj = as.obj
	return
}

// predefined installs the assembler constants and the user predefines.
func (as *assembly) predefined() (err error) {
	now := time.Now
	if as.Now != nil {
		now = as.Now
	}

	ints := map[string]uint64{
		"__time__":    uint64(now().Unix()),
		"__version__": VERSION,
		"__line__":    0,
	}
	for name, value := range ints {
		as.obj.Symbols[name] = Symbol{Value: value}
	}

	floats := map[string]float64{
		"__pinf__":     math.Inf(1),
		"__ninf__":     math.Inf(-1),
		"__nan__":      math.NaN(),
		"__fmax__":     math.MaxFloat64,
		"__fmin__":     math.SmallestNonzeroFloat64,
		"__fepsilon__": math.Nextafter(1, 2) - 1,
		"__pi__":       math.Pi,
		"__e__":        math.E,
	}
	for name, value := range floats {
		as.obj.Symbols[name] = Symbol{Value: math.Float64bits(value), IsFloating: true}
	}

	as.obj.Symbols["__pos__"] = Symbol{IsAddress: true}

	for _, name := range slices.Sorted(maps.Keys(as.predefine)) {
		value := as.predefine[name]
		var sym Symbol
		sym, err = as.value(value)
		if err == nil {
			err = as.define(name, sym)
		}
		if err != nil {
			err = &ErrSyntax{LineNo: 0, Line: name + "=" + value, Err: err}
			return
		}
	}

	return
}

// parseLine assembles a single non-blank line.
func (as *assembly) parseLine(line string) (err error) {
	obj := as.obj

	as.linePos = uint64(len(obj.Data))
	obj.Symbols["__line__"] = Symbol{Value: uint64(as.lineNo)}
	obj.Symbols["__pos__"] = Symbol{Value: as.linePos, IsAddress: true}

	labels, rest := splitLabels(line)
	for _, label := range labels {
		err = as.label(label)
		if err != nil {
			return
		}
	}

	if len(rest) == 0 {
		return
	}

	err = as.instruction(rest)
	if err != nil {
		return
	}

	if uint64(len(obj.Data)) > as.linePos {
		obj.Lines = append(obj.Lines, LineInfo{Offset: as.linePos, LineNo: as.lineNo, Line: line})
	}

	return
}

// localName expands a '.local' name into its static label scope.
func (as *assembly) localName(name string) (full string, err error) {
	if !strings.HasPrefix(name, ".") {
		return name, nil
	}
	if len(as.static) == 0 {
		err = errors.Join(ErrInvalidLabel, ErrSymbol(name))
		return
	}
	return as.static + "_" + name[1:], nil
}

// symbolName validates and expands a user symbol name.
func (as *assembly) symbolName(name string) (full string, err error) {
	full, err = as.localName(name)
	if err != nil {
		return
	}

	_, isReg := register(full)
	if !reIdentifier.MatchString(full) || isReg || strings.HasPrefix(full, "__") {
		err = errors.Join(ErrInvalidLabel, ErrSymbol(name))
		return
	}

	return
}

// label defines a label at the current line's position.
func (as *assembly) label(name string) (err error) {
	full, err := as.symbolName(name)
	if err != nil {
		return
	}

	err = as.define(full, Symbol{Value: as.linePos, IsAddress: true})
	if err != nil {
		return
	}

	if !strings.HasPrefix(name, ".") {
		as.static = full
	}

	if as.Verbose {
		log.Printf("asm: label %v = 0x%x", full, as.linePos)
	}

	return
}

// define adds a new symbol.
func (as *assembly) define(name string, sym Symbol) (err error) {
	_, exists := as.obj.Symbols[name]
	if exists {
		err = errors.Join(ErrSymbolRedefinition, ErrSymbol(name))
		return
	}
	as.obj.Symbols[name] = sym
	return
}

// instant evaluates an expression into a hole.
func (as *assembly) instant(expr string) (hole Hole, err error) {
	terms, ok := splitTerms(expr)
	if !ok {
		err = errors.Join(ErrFormatError, ErrOperand(expr))
		return
	}

	for _, t := range terms {
		hole, err = as.addTerm(hole, t)
		if err != nil {
			return
		}
	}

	return
}

// value evaluates an expression that must resolve while assembling.
func (as *assembly) value(expr string) (sym Symbol, err error) {
	hole, err := as.instant(expr)
	if err != nil {
		return
	}

	if !hole.Resolved() {
		err = errors.Join(ErrUnknownSymbol, ErrSymbol(hole.Segments[0].Name))
		return
	}

	sym = hole.Symbol()
	return
}

// count evaluates an expression that must resolve to a positive integer.
func (as *assembly) count(expr string) (n uint64, err error) {
	sym, err := as.value(expr)
	if err != nil {
		return
	}
	if sym.IsFloating || int64(sym.Value) < 1 {
		err = errors.Join(ErrArgError, ErrOperand(expr))
		return
	}
	return sym.Value, nil
}

// addTerm accumulates a single term into a hole.
func (as *assembly) addTerm(hole Hole, t term) (out Hole, err error) {
	text := t.text

	var sym Symbol
	switch {
	case len(text) == 0:
		err = errors.Join(ErrFormatError, ErrOperand(text))
		return
	case strings.HasPrefix(text, "$(") && strings.HasSuffix(text, ")"):
		sym, err = as.evalStarlark(text[2 : len(text)-1])
	case text[0] == '\'':
		sym, err = parseChar(text)
	case text[0] >= '0' && text[0] <= '9':
		sym, err = parseNumber(text)
	default:
		return as.symbol(hole, text, t.negate)
	}

	if err != nil {
		return
	}

	out = hole.Add(sym, t.negate)
	return
}

// symbol accumulates a symbol reference into a hole. Address valued and
// unknown symbols are deferred to the linker.
func (as *assembly) symbol(hole Hole, name string, negate bool) (out Hole, err error) {
	if name == "__pos__" {
		snap := fmt.Sprintf("__pos__%d", as.snapshots)
		as.snapshots++
		as.obj.Symbols[snap] = Symbol{Value: as.linePos, IsAddress: true}
		return hole.Defer(snap, negate), nil
	}

	full, err := as.localName(name)
	if err != nil {
		return
	}

	_, isReg := register(full)
	if isReg || !reIdentifier.MatchString(full) {
		err = errors.Join(ErrArgError, ErrOperand(name))
		return
	}

	sym, ok := as.obj.Symbols[full]
	if ok && !sym.IsAddress {
		return hole.Add(sym, negate), nil
	}

	return hole.Defer(full, negate), nil
}

// evalStarlark evaluates a $(...) expression with the resolved symbols bound.
func (as *assembly) evalStarlark(expr string) (sym Symbol, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for name, s := range as.obj.Symbols {
		switch {
		case s.IsAddress:
			continue
		case s.IsFloating:
			pred[name] = starlark.Float(s.Float())
		default:
			pred[name] = starlark.MakeInt64(int64(s.Value))
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrArgError, ErrParseExpression(expr), err)
		return
	}

	switch rc := dict["rc"].(type) {
	case starlark.Int:
		if v, ok := rc.Int64(); ok {
			sym.Value = uint64(v)
			return
		}
		if v, ok := rc.Uint64(); ok {
			sym.Value = v
			return
		}
	case starlark.Float:
		sym.Value = math.Float64bits(float64(rc))
		sym.IsFloating = true
		return
	case starlark.Bool:
		if rc {
			sym.Value = 1
		}
		return
	}

	err = errors.Join(ErrArgError, ErrParseExpression(expr))
	return
}

// parseChar parses a quoted character literal.
func parseChar(text string) (sym Symbol, err error) {
	if len(text) < 3 || text[len(text)-1] != '\'' {
		err = errors.Join(ErrArgError, ErrParseNumber(text))
		return
	}
	r, _, tail, err := strconv.UnquoteChar(text[1:len(text)-1], '\'')
	if err != nil || len(tail) != 0 {
		err = errors.Join(ErrArgError, ErrParseNumber(text))
		return
	}
	sym.Value = uint64(r)
	return
}

// parseNumber parses an integer or decimal floating literal.
func parseNumber(text string) (sym Symbol, err error) {
	hex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	if strings.Contains(text, ".") || (!hex && strings.ContainsAny(text, "eE")) {
		var fv float64
		fv, err = strconv.ParseFloat(text, 64)
		if err != nil {
			err = errors.Join(ErrArgError, ErrParseNumber(text))
			return
		}
		sym.Value = math.Float64bits(fv)
		sym.IsFloating = true
		return
	}

	sym.Value, err = strconv.ParseUint(text, 0, 64)
	if err != nil {
		err = errors.Join(ErrArgError, ErrParseNumber(text))
		return
	}
	return
}

// emit appends a value of size bytes, recording a hole if it is not yet
// resolved.
func (as *assembly) emit(hole Hole, size uint64) {
	obj := as.obj
	if hole.Resolved() {
		obj.Data = internal.Append(obj.Data, size, hole.Result())
		return
	}

	hole.Address = uint64(len(obj.Data))
	hole.Size = size
	obj.Holes = append(obj.Holes, hole)
	obj.Data = internal.Append(obj.Data, size, 0)

	if as.Verbose {
		log.Printf("asm: hole at 0x%x: %v", hole.Address, hole.Segments)
	}
}
