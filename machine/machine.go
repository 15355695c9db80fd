// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"

	"github.com/ezrec/vm64/internal"
)

const (
	DEFAULT_STACK_SIZE = 64 * 1024 // Default stack region size.
	MAX_MEMORY         = 1 << 32   // Largest image plus stack accepted.
)

// SyscallHandler is implemented by the host environment. Syscall is
// invoked synchronously with the code in r0; it returns false if the
// request could not be handled.
type SyscallHandler interface {
	Syscall(m *Machine) bool
}

// Machine is the simulation context of the processor.
type Machine struct {
	Verbose   bool           // Set to enable verbose logging.
	StackSize uint64         // Bytes of stack appended to the image.
	Syscall   SyscallHandler // Host syscall hook.

	Register  [REG_COUNT]Register // Register file.
	Flags     Flags               // Flags register.
	Pos       uint64              // Program counter.
	OpPos     uint64              // Position of the instruction being executed.
	Running   bool                // Cleared on halt.
	Suspended bool                // Set by the host to pause execution.
	Error     ErrorCode           // Halt cause.

	Ticks int // Instructions executed since Initialize.

	memory Memory
	rand   *rand.Rand
}

// NewMachine creates a machine drawing its initial register contents from
// rng. A nil rng selects a randomly seeded source.
func NewMachine(rng *rand.Rand) (m *Machine) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	m = &Machine{
		StackSize: DEFAULT_STACK_SIZE,
		rand:      rng,
	}

	return
}

// Defines returns an iterator over the machine's assembler defines.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"STACK_SIZE": fmt.Sprintf("%d", m.StackSize),
		"MAX_MEMORY": fmt.Sprintf("%d", MAX_MEMORY),
	})
}

// Initialize loads an executable image, randomizes the registers and
// starts the machine at position 0. The stack pointer is set to the top of
// the stack region.
func (m *Machine) Initialize(image []byte) (ok bool) {
	total := uint64(len(image)) + m.StackSize
	if total < m.StackSize || total > MAX_MEMORY {
		if m.Verbose {
			log.Printf("machine: %v: %d bytes", ErrImageSize, total)
		}
		return
	}

	if m.rand == nil {
		m.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	m.memory = make(Memory, total)
	copy(m.memory, image)

	for n := range m.Register {
		m.Register[n] = Register(m.rand.Uint64())
	}
	m.Register[REG_SP] = Register(total)

	m.Flags = 0
	m.Pos = 0
	m.OpPos = 0
	m.Running = true
	m.Suspended = false
	m.Error = ERROR_NONE
	m.Ticks = 0

	if m.Verbose {
		log.Printf("machine: initialize %d byte image, %d bytes of memory", len(image), total)
	}

	return true
}

// Fail halts the machine. ERROR_NONE is a clean halt. Only the first halt
// cause is recorded.
func (m *Machine) Fail(code ErrorCode) {
	if !m.Running {
		return
	}

	if m.Verbose {
		log.Printf("machine: halt at 0x%x: %v", m.OpPos, code)
	}

	m.Running = false
	m.Error = code
}

// Terminate forces an immediate halt on behalf of the host.
func (m *Machine) Terminate() {
	m.Fail(ERROR_ABORT)
}

// Err returns the fault that halted the machine, if any.
func (m *Machine) Err() error {
	if m.Running || m.Error == ERROR_NONE {
		return nil
	}
	return &ErrFault{Pos: m.OpPos, Code: m.Error}
}

// GetRegister returns a register's value.
func (m *Machine) GetRegister(index int) (reg Register, ok bool) {
	if index < 0 || index >= REG_COUNT {
		return
	}
	return m.Register[index], true
}

// GetFlags returns the flags register.
func (m *Machine) GetFlags() Flags {
	return m.Flags
}

// MemSize returns the size of memory in bytes.
func (m *Machine) MemSize() uint64 {
	return uint64(len(m.memory))
}

// GetMem reads size (1, 2, 4 or 8) bytes of memory at pos.
func (m *Machine) GetMem(pos uint64, size uint64) (value uint64, ok bool) {
	return m.memory.Read(pos, size)
}

// SetMem writes size (1, 2, 4 or 8) bytes of memory at pos.
func (m *Machine) SetMem(pos uint64, size uint64, value uint64) (ok bool) {
	return m.memory.Write(pos, size, value)
}

// MemBytes returns a view of n bytes of memory at pos.
func (m *Machine) MemBytes(pos uint64, n uint64) (data []byte, ok bool) {
	return m.memory.Slice(pos, n)
}

// fetch reads size bytes at Pos and advances past them.
func (m *Machine) fetch(size uint64) (value uint64, code ErrorCode) {
	value, ok := m.memory.Read(m.Pos, size)
	if !ok {
		code = ERROR_OUT_OF_BOUNDS
		return
	}
	m.Pos += size
	return
}

// push writes a value below the stack pointer.
func (m *Machine) push(sizecode uint64, value uint64) (code ErrorCode) {
	sp := uint64(m.Register[REG_SP]) - internal.SizeBytes(sizecode)
	if !m.memory.Write(sp, internal.SizeBytes(sizecode), value) {
		return ERROR_OUT_OF_BOUNDS
	}
	m.Register[REG_SP] = Register(sp)
	return
}

// pop reads the value at the stack pointer and releases it.
func (m *Machine) pop(sizecode uint64) (value uint64, code ErrorCode) {
	sp := uint64(m.Register[REG_SP])
	value, ok := m.memory.Read(sp, internal.SizeBytes(sizecode))
	if !ok {
		code = ERROR_OUT_OF_BOUNDS
		return
	}
	m.Register[REG_SP] = Register(sp + internal.SizeBytes(sizecode))
	return
}

// Tick executes a single instruction. It returns whether the machine is
// still running.
func (m *Machine) Tick() (running bool) {
	if !m.Running || m.Suspended {
		return m.Running
	}

	m.OpPos = m.Pos

	op, code := m.fetch(1)
	if code == ERROR_NONE {
		if m.Verbose {
			text, _, ok := Disassemble(m.memory, m.OpPos)
			if !ok {
				text = OpCode(op).String()
			}
			log.Printf("%08x: %v", m.OpPos, text)
		}
		code = m.Execute(OpCode(op))
	}

	m.Ticks++

	if code != ERROR_NONE {
		m.Fail(code)
	}

	return m.Running
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text += fmt.Sprintf("  pos: %016X\n", m.Pos)
	text += fmt.Sprintf("flags: %v\n", m.Flags)
	for n, reg := range m.Register {
		name := fmt.Sprintf("r%d", n)
		if n == REG_SP {
			name = "sp"
		}
		val := uint64(reg)
		text += fmt.Sprintf("% 5s: %08X_%08X\n", name, val>>32, val&0xffffffff)
	}
	state := "running"
	switch {
	case m.Suspended:
		state = "suspended"
	case !m.Running:
		state = fmt.Sprintf("halted (%v)", m.Error)
	}
	text += fmt.Sprintf("state: %v\n", state)

	return
}
