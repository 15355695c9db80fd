// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"math/bits"

	"github.com/ezrec/vm64/internal"
)

// neg128 negates a 128-bit two's complement value.
func neg128(hi uint64, lo uint64) (uint64, uint64) {
	hi = ^hi
	if lo == 0 {
		hi++
	}
	return hi, -lo
}

// mulUnsigned returns the double width unsigned product as two halves.
func mulUnsigned(a uint64, b uint64, sizecode uint64) (lo uint64, hi uint64) {
	if sizecode == internal.SIZE_QWORD {
		hi, lo = bits.Mul64(a, b)
		return
	}
	p := a * b
	return internal.Truncate(p, sizecode), internal.Truncate(p>>internal.SizeBits(sizecode), sizecode)
}

// mulSigned returns the double width signed product as two halves.
func mulSigned(a uint64, b uint64, sizecode uint64) (lo uint64, hi uint64) {
	if sizecode == internal.SIZE_QWORD {
		ua, ub := a, b
		if int64(a) < 0 {
			ua = -a
		}
		if int64(b) < 0 {
			ub = -b
		}
		hi, lo = bits.Mul64(ua, ub)
		if (int64(a) < 0) != (int64(b) < 0) {
			hi, lo = neg128(hi, lo)
		}
		return
	}
	p := int64(internal.SignExtend(a, sizecode)) * int64(internal.SignExtend(b, sizecode))
	return internal.Truncate(uint64(p), sizecode), internal.Truncate(uint64(p>>internal.SizeBits(sizecode)), sizecode)
}

// dividend joins hi:lo of the given size into a 128-bit value.
func dividend(hi uint64, lo uint64, sizecode uint64, signed bool) (dhi uint64, dlo uint64) {
	if sizecode == internal.SIZE_QWORD {
		return hi, lo
	}
	dlo = hi<<internal.SizeBits(sizecode) | lo
	if signed {
		dlo = internal.SignExtend(dlo, sizecode+1)
		if int64(dlo) < 0 {
			dhi = ^uint64(0)
		}
	}
	return
}

// divUnsigned divides a 128-bit dividend, failing on a zero divisor or a
// quotient wider than the size code.
func divUnsigned(dhi uint64, dlo uint64, d uint64, sizecode uint64) (q uint64, r uint64, ok bool) {
	if d == 0 || dhi >= d {
		return
	}
	q, r = bits.Div64(dhi, dlo, d)
	if q > internal.SizeMask(sizecode) {
		return
	}
	ok = true
	return
}

// divSigned divides a signed 128-bit dividend, truncating toward zero.
// The remainder takes the sign of the dividend.
func divSigned(dhi uint64, dlo uint64, d uint64, sizecode uint64) (q uint64, r uint64, ok bool) {
	d = internal.SignExtend(d, sizecode)
	if d == 0 {
		return
	}

	neg := int64(dhi) < 0
	if neg {
		dhi, dlo = neg128(dhi, dlo)
	}
	dneg := int64(d) < 0
	if dneg {
		d = -d
	}
	if dhi >= d {
		return
	}

	uq, ur := bits.Div64(dhi, dlo, d)
	limit := internal.SignMask(sizecode)
	if neg != dneg {
		if uq > limit {
			return
		}
		q = -uq
	} else {
		if uq >= limit {
			return
		}
		q = uq
	}

	r = ur
	if neg {
		r = -ur
	}

	q = internal.Truncate(q, sizecode)
	r = internal.Truncate(r, sizecode)
	ok = true
	return
}
