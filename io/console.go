// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"errors"
	"io"
)

// Console provides byte-level sequential I/O for the machine's syscalls.
// It wraps an io.Reader for input and an io.Writer for output.
//
// An Input that returns no data and no error, or ErrWouldBlock, is
// reported as ErrWouldBlock so the host can suspend the machine until
// more input arrives. A nil Input is at end of file, and a nil Output
// discards everything written.
type Console struct {
	Input  io.Reader
	Output io.Writer

	eof bool
}

// EOF is true once the input has reported end of file.
func (con *Console) EOF() bool {
	return con.eof
}

// Read reads up to len(p) bytes of input. It returns io.EOF or
// ErrWouldBlock only when no bytes were read.
func (con *Console) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}

	if con.eof || con.Input == nil {
		con.eof = true
		err = io.EOF
		return
	}

	n, err = con.Input.Read(p)
	switch {
	case n > 0:
		err = nil
	case errors.Is(err, io.EOF):
		con.eof = true
		err = io.EOF
	case err == nil, errors.Is(err, ErrWouldBlock):
		err = ErrWouldBlock
	}

	return
}

// ReadByte reads a single byte of input.
func (con *Console) ReadByte() (b byte, err error) {
	var one [1]byte
	_, err = con.Read(one[:])
	if err != nil {
		return
	}
	b = one[0]
	return
}

// Write writes all of p to the output.
func (con *Console) Write(p []byte) (n int, err error) {
	if con.Output == nil {
		return len(p), nil
	}
	return con.Output.Write(p)
}

// WriteByte writes a single byte to the output.
func (con *Console) WriteByte(b byte) (err error) {
	_, err = con.Write([]byte{b})
	return
}
