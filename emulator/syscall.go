// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"log"

	"github.com/ezrec/vm64/io"
	"github.com/ezrec/vm64/machine"
)

const (
	SYSCALL_READ    = 0 // Read r2 bytes to r1.
	SYSCALL_WRITE   = 1 // Write r2 bytes from r1.
	SYSCALL_EXIT    = 2 // Halt with exit code r1.
	SYSCALL_PUTCHAR = 3 // Write the low byte of r1.
	SYSCALL_GETCHAR = 4 // Read a byte to r0.
)

var syscallNames = map[uint64]string{
	SYSCALL_READ:    "SYS_READ",
	SYSCALL_WRITE:   "SYS_WRITE",
	SYSCALL_EXIT:    "SYS_EXIT",
	SYSCALL_PUTCHAR: "SYS_PUTCHAR",
	SYSCALL_GETCHAR: "SYS_GETCHAR",
}

const failed = ^machine.Register(0)

// Syscall services a console request from the machine.
func (emu *Emulator) Syscall(m *machine.Machine) (ok bool) {
	code := uint64(m.Register[0])
	r1 := uint64(m.Register[1])
	r2 := uint64(m.Register[2])

	if emu.Verbose {
		log.Printf("emulator: syscall %d (0x%x, 0x%x)", code, r1, r2)
	}

	switch code {
	case SYSCALL_READ:
		buf, inRange := m.MemBytes(r1, r2)
		if !inRange {
			m.Fail(machine.ERROR_OUT_OF_BOUNDS)
			return true
		}
		n, err := emu.Console.Read(buf)
		if emu.wait(m, err) {
			return true
		}
		m.Register[0] = machine.Register(n)
		if err != nil && !errors.Is(err, io.EOF) {
			m.Register[0] = failed
		}
	case SYSCALL_WRITE:
		buf, inRange := m.MemBytes(r1, r2)
		if !inRange {
			m.Fail(machine.ERROR_OUT_OF_BOUNDS)
			return true
		}
		n, err := emu.Console.Write(buf)
		m.Register[0] = machine.Register(n)
		if err != nil {
			m.Register[0] = failed
		}
	case SYSCALL_EXIT:
		emu.ExitCode = r1
		m.Fail(machine.ERROR_NONE)
	case SYSCALL_PUTCHAR:
		err := emu.Console.WriteByte(byte(r1))
		if err != nil {
			m.Register[0] = failed
		}
	case SYSCALL_GETCHAR:
		b, err := emu.Console.ReadByte()
		if emu.wait(m, err) {
			return true
		}
		m.Register[0] = machine.Register(b)
		if err != nil {
			m.Register[0] = failed
		}
	default:
		return false
	}

	return true
}

// wait suspends the machine, rewound to the syscall, if the console is
// not ready.
func (emu *Emulator) wait(m *machine.Machine, err error) (waiting bool) {
	if !errors.Is(err, io.ErrWouldBlock) {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: suspended at 0x%x", m.OpPos)
	}

	m.Suspended = true
	m.Pos = m.OpPos
	return true
}
