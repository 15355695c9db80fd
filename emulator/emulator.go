// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"maps"
	"math/rand/v2"

	"github.com/ezrec/vm64/asm"
	"github.com/ezrec/vm64/internal"
	"github.com/ezrec/vm64/io"
	"github.com/ezrec/vm64/link"
	"github.com/ezrec/vm64/machine"
)

// Emulator state. Machine + console + the program's link map.
type Emulator struct {
	Verbose          bool // If set, enables verbose logging.
	*machine.Machine      // Reference to the machine simulation.

	Console  io.Console   // Console used by the syscalls.
	ExitCode uint64       // Code passed to SYS_EXIT.
	Linker   *link.Linker // Link map of the last Build.

	built []byte // Image of the last Build.
}

var _ machine.SyscallHandler = (*Emulator)(nil)

// NewEmulator creates a new emulator. Its machine draws initial register
// contents from rng; nil selects a randomly seeded source.
func NewEmulator(rng *rand.Rand) (emu *Emulator) {
	emu = &Emulator{
		Machine: machine.NewMachine(rng),
		Linker:  &link.Linker{},
	}

	emu.Machine.Syscall = emu

	return
}

// Defines returns an iterator over the symbols predefined for programs
// built by the emulator.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	syscalls := map[string]string{}
	for code, name := range syscallNames {
		syscalls[name] = fmt.Sprintf("%d", code)
	}
	return internal.IterSeq2Concat(maps.All(syscalls),
		emu.Machine.Defines(),
	)
}

// Assemble assembles each source with the emulator defines.
func (emu *Emulator) Assemble(sources ...string) (objs []*asm.ObjectFile, err error) {
	if len(sources) == 0 {
		err = ErrNoSource
		return
	}

	as := &asm.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		as.Predefine(name, value)
	}

	objs = make([]*asm.ObjectFile, len(sources))
	for n, source := range sources {
		objs[n], err = as.Assemble(source)
		if err != nil {
			objs = nil
			err = &ErrBuild{Source: n, Err: err}
			return
		}
	}

	return
}

// Build assembles each source and links them into an image.
func (emu *Emulator) Build(sources ...string) (image []byte, err error) {
	objs, err := emu.Assemble(sources...)
	if err != nil {
		return
	}

	emu.Linker.Verbose = emu.Verbose
	image, err = emu.Linker.Link(objs...)
	emu.built = image
	return
}

// Load resets the machine with an image. The link map of the last Build
// is only kept if it produced the image.
func (emu *Emulator) Load(image []byte) (err error) {
	emu.Machine.Verbose = emu.Verbose
	emu.ExitCode = 0

	if emu.built == nil || !bytes.Equal(image, emu.built) {
		emu.Linker = &link.Linker{}
		emu.built = nil
	}

	if !emu.Machine.Initialize(image) {
		err = machine.ErrImageSize
		return
	}

	return
}

// LineNo returns the source line of the instruction at pos, if known.
func (emu *Emulator) LineNo(pos uint64) (lineNo int, line string) {
	if emu.Linker == nil {
		return
	}
	_, info, ok := emu.Linker.Line(pos)
	if !ok {
		return
	}
	return info.LineNo, info.Line
}

// runtimeError locates the machine's halt cause, if any.
func (emu *Emulator) runtimeError() (err error) {
	err = emu.Machine.Err()
	if err == nil {
		return
	}

	lineNo, line := emu.LineNo(emu.OpPos)
	err = &ErrRuntime{Pos: emu.OpPos, LineNo: lineNo, Line: line, Err: err}
	return
}

// Tick performs a single tick of the emulator. It is done once the machine
// has halted; err is the halt cause if it was not clean. Ticking a machine
// that already halted, or was never loaded, returns machine.ErrNotRunning
// or the earlier halt cause.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	if !emu.Running {
		done = true
		err = emu.runtimeError()
		if err == nil {
			err = machine.ErrNotRunning
		}
		return
	}

	if emu.Machine.Tick() {
		return
	}

	done = true
	err = emu.runtimeError()
	return
}

// Resume continues a machine suspended waiting for console input.
func (emu *Emulator) Resume() {
	emu.Suspended = false
}

// Run ticks the machine until it halts, is suspended, or maxTicks
// instructions have run. A maxTicks of 0 is unlimited. Cancelling ctx
// terminates the machine.
func (emu *Emulator) Run(ctx context.Context, maxTicks int) (err error) {
	for ticks := 0; maxTicks == 0 || ticks < maxTicks; ticks++ {
		err = ctx.Err()
		if err != nil {
			emu.Terminate()
			return
		}

		if emu.Suspended {
			err = ErrSuspended
			return
		}

		var done bool
		done, err = emu.Tick()
		if done {
			return
		}
	}

	err = ErrTickLimit
	return
}
