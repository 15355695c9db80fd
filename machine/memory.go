// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"github.com/ezrec/vm64/internal"
)

// Memory is the flat, bounds checked memory of a machine.
type Memory []byte

// Read reads a little-endian value of size bytes at pos.
func (mem Memory) Read(pos uint64, size uint64) (value uint64, ok bool) {
	return internal.Read(mem, pos, size)
}

// Write writes the low size bytes of value at pos.
func (mem Memory) Write(pos uint64, size uint64, value uint64) (ok bool) {
	return internal.Write(mem, pos, size, value)
}

// Slice returns the n bytes at pos, without copying.
func (mem Memory) Slice(pos uint64, n uint64) (data []byte, ok bool) {
	if pos > uint64(len(mem)) || n > uint64(len(mem))-pos {
		return
	}
	return mem[pos : pos+n], true
}
