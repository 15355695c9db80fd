// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package machine implements the vm64 64-bit virtual processor.
//
// The machine has sixteen 64-bit general purpose registers (r0-r15, with r15
// used as the stack pointer), a flags register (zero, sign, parity, overflow
// and carry), and a single flat byte addressable memory holding the program
// image followed by the stack region.
//
// Execution is strictly sequential: each call to Tick fetches, decodes and
// executes exactly one instruction. Any decode or runtime failure halts the
// machine and records an ErrorCode; the machine never resumes on its own.
package machine
