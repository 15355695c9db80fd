// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"errors"

	"github.com/ezrec/vm64/translate"
)

var f = translate.From

var (
	ErrArgCount           = errors.New(f("wrong number of arguments"))
	ErrMissingSize        = errors.New(f("missing size suffix"))
	ErrArgError           = errors.New(f("invalid argument"))
	ErrFormatError        = errors.New(f("invalid format"))
	ErrUsageError         = errors.New(f("invalid usage"))
	ErrUnknownOp          = errors.New(f("unknown instruction"))
	ErrEmptyFile          = errors.New(f("no code or data emitted"))
	ErrInvalidLabel       = errors.New(f("invalid label"))
	ErrSymbolRedefinition = errors.New(f("symbol redefined"))
	ErrUnknownSymbol      = errors.New(f("unknown symbol"))
)

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseNumber is a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is a $(...) expression that did not evaluate to a number.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSymbol names the symbol involved in a symbol error.
type ErrSymbol string

func (err ErrSymbol) Error() string {
	return f("symbol '%v'", string(err))
}

// ErrMnemonic is an unrecognized instruction or directive.
type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("mnemonic '%v'", string(err))
}

// ErrOperand is an operand that does not fit its position.
type ErrOperand string

func (err ErrOperand) Error() string {
	return f("operand '%v'", string(err))
}
