// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"slices"
)

// LineInfo maps an offset in the object's data to the source line that
// emitted it.
type LineInfo struct {
	Offset uint64 // First byte emitted by the line.
	LineNo int    // Source line number, from 1.
	Line   string // Source text, comments stripped.
}

// ObjectFile is the output of a single assembly.
type ObjectFile struct {
	Symbols map[string]Symbol // All symbols, including assembler internal ones.
	Globals []string          // Exported symbol names, in declaration order.
	Holes   []Hole            // Unresolved expressions to patch at link time.
	Data    []byte            // Emitted code and data.
	Lines   []LineInfo        // Emitting lines, by ascending offset.
}

// Line returns the source line that emitted the byte at offset.
func (obj *ObjectFile) Line(offset uint64) (info LineInfo, ok bool) {
	if offset >= uint64(len(obj.Data)) {
		return
	}

	n, found := slices.BinarySearchFunc(obj.Lines, offset, func(li LineInfo, offset uint64) int {
		switch {
		case li.Offset < offset:
			return -1
		case li.Offset > offset:
			return 1
		}
		return 0
	})
	if !found {
		if n == 0 {
			return
		}
		n--
	}

	return obj.Lines[n], true
}

// IsGlobal returns true if name is exported.
func (obj *ObjectFile) IsGlobal(name string) bool {
	return slices.Contains(obj.Globals, name)
}
