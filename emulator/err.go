// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"

	"github.com/ezrec/vm64/translate"
)

var f = translate.From

var (
	ErrSuspended = errors.New(f("machine suspended"))
	ErrTickLimit = errors.New(f("tick limit reached"))
	ErrNoSource  = errors.New(f("no source"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pos    uint64 // Image position of the faulting instruction.
	LineNo int    // Source line number, or 0 if unknown.
	Line   string // Source line text.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pos 0x%x %v", err.Pos, err.Err)
	}
	return f("line %d '%v' (pos 0x%x) %v", err.LineNo, err.Line, err.Pos, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrBuild indicates which source failed to assemble.
type ErrBuild struct {
	Source int // Index of the source text.
	Err    error
}

func (err *ErrBuild) Error() string {
	return f("source %d: %v", err.Source, err.Err)
}

func (err *ErrBuild) Unwrap() error {
	return err.Err
}
