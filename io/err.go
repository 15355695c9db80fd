// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"errors"
	"io"

	"github.com/ezrec/vm64/translate"
)

var f = translate.From

var (
	// Console errors
	ErrWouldBlock = errors.New(f("input not ready"))
	ErrClosed     = errors.New(f("queue closed"))

	// EOF is returned when the console input has ended.
	EOF = io.EOF
)
