// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package link

import (
	"errors"

	"github.com/ezrec/vm64/translate"
)

var f = translate.From

var (
	ErrEmptyResult        = errors.New(f("nothing to link"))
	ErrSymbolRedefinition = errors.New(f("global symbol redefined"))
	ErrMissingSymbol      = errors.New(f("missing symbol"))
	ErrNotAddress         = errors.New(f("entry point is not an address"))
	ErrHoleRange          = errors.New(f("hole outside of object data"))
)

// ErrSymbol names the symbol that failed to link, and the object file
// index it was referenced from.
type ErrSymbol struct {
	Name   string
	Object int
	Err    error
}

func (err *ErrSymbol) Error() string {
	return f("object %d: symbol '%v': %v", err.Object, err.Name, err.Err)
}

func (err *ErrSymbol) Unwrap() error {
	return err.Err
}
