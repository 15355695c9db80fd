// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package link

import (
	"errors"
	"log"
	"maps"
	"slices"

	"github.com/ezrec/vm64/asm"
	"github.com/ezrec/vm64/internal"
	"github.com/ezrec/vm64/machine"
)

const (
	HEADER_SIZE  = 10     // JMP, literal mode byte, 8 byte entry address.
	ENTRY_SYMBOL = "main" // Symbol the header jumps to.
)

// Linker combines object files into an executable image. After a
// successful Link, the linker can map image positions back to source lines.
type Linker struct {
	Verbose bool // If set, verbosely logs the linker actions.

	objs    []*asm.ObjectFile
	bases   []uint64
	globals map[string]asm.Symbol
	entry   uint64
}

// Link concatenates the object files after the image header, merges their
// exported symbols and patches every hole.
func (ln *Linker) Link(objs ...*asm.ObjectFile) (image []byte, err error) {
	ln.objs = nil
	ln.bases = nil
	ln.globals = map[string]asm.Symbol{}
	ln.entry = 0

	image = make([]byte, HEADER_SIZE)
	bases := make([]uint64, len(objs))
	for n, obj := range objs {
		if obj == nil {
			continue
		}
		bases[n] = uint64(len(image))
		image = append(image, obj.Data...)
		if ln.Verbose {
			log.Printf("link: object %d: %d bytes at 0x%x", n, len(obj.Data), bases[n])
		}
	}

	if len(image) == HEADER_SIZE {
		image = nil
		err = ErrEmptyResult
		return
	}

	defer func() {
		if err != nil {
			image = nil
		}
	}()

	ln.objs = objs
	ln.bases = bases

	err = ln.mergeGlobals()
	if err != nil {
		return
	}

	for n, obj := range objs {
		if obj == nil {
			continue
		}
		for _, hole := range obj.Holes {
			err = ln.patch(image, n, hole)
			if err != nil {
				return
			}
		}
	}

	main, err := ln.resolveEntry()
	if err != nil {
		return
	}

	ln.entry = main.Value
	copy(image, machine.Code{}.Op(machine.OP_JMP).Literal(main.Value))

	if ln.Verbose {
		log.Printf("link: %d byte image, entry 0x%x", len(image), main.Value)
	}

	return
}

// mergeGlobals builds the global symbol table from every object's exports.
func (ln *Linker) mergeGlobals() (err error) {
	for n, obj := range ln.objs {
		if obj == nil {
			continue
		}
		for _, name := range obj.Globals {
			sym, ok := obj.Symbols[name]
			if !ok {
				err = &ErrSymbol{Name: name, Object: n, Err: ErrMissingSymbol}
				return
			}
			_, exists := ln.globals[name]
			if exists {
				err = &ErrSymbol{Name: name, Object: n, Err: ErrSymbolRedefinition}
				return
			}
			ln.globals[name] = sym.Rebase(ln.bases[n])
			if ln.Verbose {
				log.Printf("link: global %v = 0x%x", name, ln.globals[name].Value)
			}
		}
	}
	return
}

// lookup resolves a name referenced from object n. The object's own
// symbols take precedence over the globals.
func (ln *Linker) lookup(n int, name string) (sym asm.Symbol, ok bool) {
	sym, ok = ln.objs[n].Symbols[name]
	if ok {
		sym = sym.Rebase(ln.bases[n])
		return
	}
	sym, ok = ln.globals[name]
	return
}

// patch resolves a hole of object n and writes its value into the image.
func (ln *Linker) patch(image []byte, n int, hole asm.Hole) (err error) {
	obj := ln.objs[n]

	if hole.Address+hole.Size > uint64(len(obj.Data)) || hole.Address+hole.Size < hole.Address {
		err = &ErrSymbol{Name: holeName(hole), Object: n, Err: ErrHoleRange}
		return
	}

	acc := asm.Hole{Value: hole.Value, FValue: hole.FValue, Floating: hole.Floating}
	for _, seg := range hole.Segments {
		sym, ok := ln.lookup(n, seg.Name)
		if !ok {
			err = &ErrSymbol{Name: seg.Name, Object: n, Err: ErrMissingSymbol}
			return
		}
		acc = acc.Add(sym, seg.Negate)
	}

	pos := ln.bases[n] + hole.Address
	if !internal.Write(image, pos, hole.Size, acc.Result()) {
		err = &ErrSymbol{Name: holeName(hole), Object: n, Err: ErrHoleRange}
		return
	}

	if ln.Verbose {
		log.Printf("link: patch 0x%x (%d bytes) = 0x%x", pos, hole.Size, acc.Result())
	}

	return
}

// holeName is the first unresolved symbol of a hole, if any.
func holeName(hole asm.Hole) string {
	if len(hole.Segments) == 0 {
		return ""
	}
	return hole.Segments[0].Name
}

// resolveEntry finds 'main' in the globals, else in the first object.
func (ln *Linker) resolveEntry() (sym asm.Symbol, err error) {
	sym, ok := ln.globals[ENTRY_SYMBOL]
	if !ok {
		first := slices.IndexFunc(ln.objs, func(obj *asm.ObjectFile) bool { return obj != nil })
		sym, ok = ln.objs[first].Symbols[ENTRY_SYMBOL]
		sym = sym.Rebase(ln.bases[first])
	}

	switch {
	case !ok:
		err = &ErrSymbol{Name: ENTRY_SYMBOL, Err: ErrMissingSymbol}
	case !sym.IsAddress:
		err = &ErrSymbol{Name: ENTRY_SYMBOL, Err: errors.Join(ErrMissingSymbol, ErrNotAddress)}
	}

	return
}

// Entry returns the image position of 'main' from the last Link.
func (ln *Linker) Entry() uint64 {
	return ln.entry
}

// Global returns an exported symbol, rebased into the image.
func (ln *Linker) Global(name string) (sym asm.Symbol, ok bool) {
	sym, ok = ln.globals[name]
	return
}

// Globals returns the exported symbol names, sorted.
func (ln *Linker) Globals() []string {
	return slices.Sorted(maps.Keys(ln.globals))
}

// Line returns the object file index and source line that emitted the
// image byte at pos.
func (ln *Linker) Line(pos uint64) (object int, info asm.LineInfo, ok bool) {
	for n, obj := range ln.objs {
		if obj == nil || pos < ln.bases[n] {
			continue
		}
		info, ok = obj.Line(pos - ln.bases[n])
		if ok {
			info.Offset += ln.bases[n]
			object = n
			return
		}
	}
	return
}
