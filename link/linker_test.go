// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package link

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/vm64/asm"
	"github.com/ezrec/vm64/internal"
	"github.com/ezrec/vm64/machine"
)

func assemble(t *testing.T, lines ...string) *asm.ObjectFile {
	as := &asm.Assembler{}
	obj, err := as.Assemble(strings.Join(lines, "\n"))
	require.NoError(t, err)
	return obj
}

func TestLinkStop(t *testing.T) {
	assert := assert.New(t)

	ln := &Linker{}
	image, err := ln.Link(assemble(t, "main: STOP"))
	require.NoError(t, err)

	expect := machine.Code{}.Op(machine.OP_JMP).Literal(HEADER_SIZE).Op(machine.OP_STOP)
	assert.Equal([]byte(expect), image)
	assert.Len(image, HEADER_SIZE+1)
	assert.Equal(uint64(HEADER_SIZE), ln.Entry())

	m := machine.NewMachine(rand.New(rand.NewPCG(1, 2)))
	require.True(t, m.Initialize(image))
	for m.Tick() {
	}
	assert.Equal(machine.ERROR_NONE, m.Error)
	assert.NoError(m.Err())
	assert.Equal(2, m.Ticks)
}

func TestLinkGlobals(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t,
		"GLOBAL foo",
		"pad:	NOP",
		"foo:	RET",
	)
	b := assemble(t,
		"main:	CALL foo",
		"	QWORD foo + 2, main",
		"	STOP",
	)

	ln := &Linker{}
	image, err := ln.Link(a, b)
	require.NoError(t, err)

	foo := uint64(HEADER_SIZE + 1)
	main := uint64(HEADER_SIZE + len(a.Data))

	sym, ok := ln.Global("foo")
	assert.True(ok)
	assert.Equal(asm.Symbol{Value: foo, IsAddress: true}, sym)
	assert.Equal([]string{"foo"}, ln.Globals())
	assert.Equal(main, ln.Entry())

	target, ok := internal.Read(image, main+2, 8)
	assert.True(ok)
	assert.Equal(foo, target)

	for n, expect := range []uint64{foo, foo + 2, main} {
		value, ok := internal.Read(image, main+10+uint64(n)*8, 8)
		assert.True(ok)
		assert.Equal(expect, value, n)
	}

	// Without the export, the reference cannot be resolved.
	a = assemble(t,
		"pad:	NOP",
		"foo:	RET",
	)
	image, err = ln.Link(a, b)
	assert.Nil(image)
	assert.ErrorIs(err, ErrMissingSymbol)
	var es *ErrSymbol
	if assert.ErrorAs(err, &es) {
		assert.Equal("foo", es.Name)
		assert.Equal(1, es.Object)
	}
}

func TestLinkLocalPrecedence(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t,
		"GLOBAL helper",
		"helper:	STOP",
	)
	b := assemble(t,
		"GLOBAL main",
		"main:	JMP helper",
		"helper:	NOP",
	)

	image, err := (&Linker{}).Link(a, b)
	require.NoError(t, err)

	main := uint64(HEADER_SIZE + len(a.Data))
	target, ok := internal.Read(image, main+2, 8)
	assert.True(ok)
	assert.Equal(main+10, target)
}

func TestLinkFloatingHole(t *testing.T) {
	assert := assert.New(t)

	obj := assemble(t,
		"main:	QWORD half + 1",
		"DEF half 0.5",
	)

	image, err := (&Linker{}).Link(obj)
	require.NoError(t, err)

	value, ok := internal.Read(image, HEADER_SIZE, 8)
	assert.True(ok)
	assert.Equal(math.Float64bits(1.5), value)
}

func TestLinkLines(t *testing.T) {
	assert := assert.New(t)

	a := assemble(t, "GLOBAL main", "main:	NOP", "	STOP")
	b := assemble(t, "", "other:	INC.q r0")

	ln := &Linker{}
	_, err := ln.Link(a, b)
	require.NoError(t, err)

	object, info, ok := ln.Line(HEADER_SIZE + 1)
	assert.True(ok)
	assert.Equal(0, object)
	assert.Equal(3, info.LineNo)
	assert.Equal(uint64(HEADER_SIZE+1), info.Offset)

	object, info, ok = ln.Line(HEADER_SIZE + 3)
	assert.True(ok)
	assert.Equal(1, object)
	assert.Equal(2, info.LineNo)

	_, _, ok = ln.Line(0)
	assert.False(ok)
}

func TestLinkErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := (&Linker{}).Link()
	assert.ErrorIs(err, ErrEmptyResult)

	_, err = (&Linker{}).Link(&asm.ObjectFile{})
	assert.ErrorIs(err, ErrEmptyResult)

	_, err = (&Linker{}).Link(assemble(t, "start: STOP"))
	assert.ErrorIs(err, ErrMissingSymbol)

	_, err = (&Linker{}).Link(assemble(t, "DEF main 3", "STOP"))
	assert.ErrorIs(err, ErrNotAddress)

	_, err = (&Linker{}).Link(
		assemble(t, "GLOBAL main", "main: STOP"),
		assemble(t, "GLOBAL main", "main: STOP"),
	)
	assert.ErrorIs(err, ErrSymbolRedefinition)

	_, err = (&Linker{}).Link(assemble(t, "GLOBAL absent", "main: STOP"))
	assert.ErrorIs(err, ErrMissingSymbol)

	bad := assemble(t, "main: QWORD later")
	bad.Holes[0].Address = 4
	_, err = (&Linker{}).Link(bad)
	assert.ErrorIs(err, ErrHoleRange)

	// A hand built hole with no symbols, outside of its data.
	_, err = (&Linker{}).Link(&asm.ObjectFile{
		Symbols: map[string]asm.Symbol{"main": {IsAddress: true}},
		Data:    []byte{byte(machine.OP_STOP)},
		Holes:   []asm.Hole{{Address: 5, Size: 8}},
	})
	assert.ErrorIs(err, ErrHoleRange)
	var es *ErrSymbol
	if assert.ErrorAs(err, &es) {
		assert.Equal("", es.Name)
	}

	// A hole with no symbols inside its data is a plain value.
	image, err := (&Linker{}).Link(&asm.ObjectFile{
		Symbols: map[string]asm.Symbol{"main": {IsAddress: true}},
		Data:    []byte{0, byte(machine.OP_STOP)},
		Holes:   []asm.Hole{{Address: 0, Size: 1, Value: 7}},
	})
	require.NoError(t, err)
	assert.Equal(byte(7), image[HEADER_SIZE])
}
