// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package link combines assembled object files into an executable image.
//
// The image starts with a 10 byte header that jumps to the global symbol
// 'main', followed by the data of each object file in order. Every hole
// left by the assembler is patched with its resolved value.
package link
