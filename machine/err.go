// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"errors"

	"github.com/ezrec/vm64/translate"
)

var f = translate.From

// ErrorCode is the cause of a machine halt.
type ErrorCode int

const (
	ERROR_NONE              = ErrorCode(0) // Clean halt, or still running.
	ERROR_OUT_OF_BOUNDS     = ErrorCode(1) // Memory or decode access outside of memory.
	ERROR_UNDEFINED         = ErrorCode(2) // Unknown opcode or illegal mode.
	ERROR_ARITHMETIC        = ErrorCode(3) // Division by zero or quotient overflow.
	ERROR_UNHANDLED_SYSCALL = ErrorCode(4) // Syscall hook absent or failed.
	ERROR_ABORT             = ErrorCode(5) // Terminated by the host.
)

var (
	ErrOutOfBounds      = errors.New(f("out of bounds"))
	ErrUndefined        = errors.New(f("undefined behavior"))
	ErrArithmetic       = errors.New(f("arithmetic error"))
	ErrUnhandledSyscall = errors.New(f("unhandled syscall"))
	ErrAbort            = errors.New(f("abort"))
	ErrNotRunning       = errors.New(f("machine not running"))
	ErrImageSize        = errors.New(f("image too large"))
)

var errorCodeErr = map[ErrorCode]error{
	ERROR_OUT_OF_BOUNDS:     ErrOutOfBounds,
	ERROR_UNDEFINED:         ErrUndefined,
	ERROR_ARITHMETIC:        ErrArithmetic,
	ERROR_UNHANDLED_SYSCALL: ErrUnhandledSyscall,
	ERROR_ABORT:             ErrAbort,
}

// Err returns the sentinel error for the code, or nil for ERROR_NONE.
func (code ErrorCode) Err() error {
	return errorCodeErr[code]
}

func (code ErrorCode) String() string {
	if code == ERROR_NONE {
		return f("none")
	}
	err, ok := errorCodeErr[code]
	if !ok {
		return f("error %d", int(code))
	}
	return err.Error()
}

// ErrFault describes the instruction that halted the machine.
type ErrFault struct {
	Pos  uint64    // Position of the faulting instruction.
	Code ErrorCode // Cause.
}

func (err *ErrFault) Error() string {
	return f("fault at 0x%x: %v", err.Pos, err.Code)
}

func (err *ErrFault) Unwrap() error {
	return err.Code.Err()
}
