// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package internal holds the binary encoding primitives shared by the
// machine, the assembler and the linker.
package internal

import (
	"encoding/binary"
)

// Size codes.
const (
	SIZE_BYTE  = uint64(0) // 8 bits
	SIZE_WORD  = uint64(1) // 16 bits
	SIZE_DWORD = uint64(2) // 32 bits
	SIZE_QWORD = uint64(3) // 64 bits
)

// SizeBytes returns the number of bytes for a size code.
func SizeBytes(sizecode uint64) uint64 {
	return 1 << (sizecode & 3)
}

// SizeBits returns the number of bits for a size code.
func SizeBits(sizecode uint64) uint64 {
	return 8 << (sizecode & 3)
}

// SizeMask returns the mask of the valid bits for a size code.
func SizeMask(sizecode uint64) uint64 {
	return ^uint64(0) >> (64 - SizeBits(sizecode))
}

// SignMask returns the mask of the sign bit for a size code.
func SignMask(sizecode uint64) uint64 {
	return 1 << (SizeBits(sizecode) - 1)
}

// SizeCode returns the size code for a byte count of 1, 2, 4 or 8.
func SizeCode(size uint64) (sizecode uint64, ok bool) {
	switch size {
	case 1:
		return SIZE_BYTE, true
	case 2:
		return SIZE_WORD, true
	case 4:
		return SIZE_DWORD, true
	case 8:
		return SIZE_QWORD, true
	}
	return
}

// Truncate keeps only the bits of value that fit the size code.
func Truncate(value uint64, sizecode uint64) uint64 {
	return value & SizeMask(sizecode)
}

// IsNegative returns true if the sign bit for the size code is set.
func IsNegative(value uint64, sizecode uint64) bool {
	return value&SignMask(sizecode) != 0
}

// SignExtend extends the sign bit of a value of the given size code
// to the full 64 bits.
func SignExtend(value uint64, sizecode uint64) uint64 {
	value = Truncate(value, sizecode)
	if IsNegative(value, sizecode) {
		value |= ^SizeMask(sizecode)
	}
	return value
}

var mults = [8]uint64{0, 1, 2, 4, 8, 16, 32, 64}

// Mult returns the scale factor for a 3-bit multiplier code.
func Mult(code uint64) uint64 {
	return mults[code&7]
}

// MultCode returns the multiplier code for a scale factor.
func MultCode(mult uint64) (code uint64, ok bool) {
	for n, m := range mults {
		if m == mult {
			return uint64(n), true
		}
	}
	return
}

// Read reads a little-endian value of size bytes (1..8) at pos.
func Read(buf []byte, pos uint64, size uint64) (value uint64, ok bool) {
	if size == 0 || size > 8 || pos > uint64(len(buf)) || size > uint64(len(buf))-pos {
		return
	}

	var tmp [8]byte
	copy(tmp[:], buf[pos:pos+size])
	value = binary.LittleEndian.Uint64(tmp[:])
	ok = true
	return
}

// Write writes the low size bytes (1..8) of value at pos, little-endian.
func Write(buf []byte, pos uint64, size uint64, value uint64) (ok bool) {
	if size == 0 || size > 8 || pos > uint64(len(buf)) || size > uint64(len(buf))-pos {
		return
	}

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], value)
	copy(buf[pos:pos+size], tmp[:size])
	ok = true
	return
}

// Append appends the low size bytes (1..8) of value, little-endian.
func Append(buf []byte, size uint64, value uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], value)
	return append(buf, tmp[:min(size, 8)]...)
}
