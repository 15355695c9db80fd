// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator hosts a vm64 machine: it builds images from source,
// services the console syscalls and runs the machine.
//
// Syscalls take their code in r0:
//
//	SYS_READ    r1 address, r2 count; r0 = bytes read, 0 at end of input
//	SYS_WRITE   r1 address, r2 count; r0 = bytes written
//	SYS_EXIT    r1 exit code; halts cleanly
//	SYS_PUTCHAR low byte of r1
//	SYS_GETCHAR r0 = byte, or all ones at end of input
//
// When console input is not ready the machine is suspended, and the
// syscall is executed again after Resume.
package emulator
