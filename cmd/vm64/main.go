// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/k0kubun/pp/v3"

	"github.com/ezrec/vm64/emulator"
	"github.com/ezrec/vm64/machine"
)

func main() {
	var output string
	var execute string
	var dump bool
	var verbose bool
	var stack uint64
	var ticks int
	var seed uint64

	flag.StringVar(&output, "o", "", "Write the linked image to a file, do not execute")
	flag.StringVar(&execute, "x", "", "Execute an image file instead of assembling sources")
	flag.BoolVar(&dump, "dump", false, "Dump object files and the final machine state")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Uint64Var(&stack, "stack", 64*1024, "Stack size in bytes")
	flag.IntVar(&ticks, "ticks", 0, "Maximum instructions to execute, 0 for unlimited")
	flag.Uint64Var(&seed, "seed", 0, "Register randomization seed, 0 for random")

	flag.Parse()

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	emu := emulator.NewEmulator(rng)
	emu.Verbose = verbose
	emu.StackSize = stack

	var image []byte
	var err error

	switch {
	case len(execute) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}
		image, err = os.ReadFile(execute)
		if err != nil {
			log.Fatalf("%v: %v", execute, err)
		}
	case flag.NArg() != 0:
		image = build(emu, flag.Args(), dump)
	default:
		log.Fatalf("%v: No sources", os.Args[0])
	}

	if len(output) != 0 {
		err = os.WriteFile(output, image, 0o755)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	err = emu.Load(image)
	if err != nil {
		log.Fatal(err)
	}

	emu.Console.Input = os.Stdin
	emu.Console.Output = os.Stdout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for {
		err = emu.Run(ctx, ticks)
		if !errors.Is(err, emulator.ErrSuspended) {
			break
		}
		// Stdin is blocking; a suspension can only follow a short read.
		emu.Resume()
	}

	if dump {
		fmt.Fprint(os.Stderr, emu.Machine.String())
	}

	if err != nil {
		log.Fatal(err)
	}

	os.Exit(int(emu.ExitCode & 0xff))
}

// build assembles and links the source files.
func build(emu *emulator.Emulator, files []string, dump bool) (image []byte) {
	sources := make([]string, len(files))
	for n, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("%v: %v", file, err)
		}
		sources[n] = string(data)
	}

	objs, err := emu.Assemble(sources...)
	if err != nil {
		var eb *emulator.ErrBuild
		if errors.As(err, &eb) {
			log.Fatalf("%v: %v", files[eb.Source], eb.Err)
		}
		log.Fatal(err)
	}

	if dump {
		for n, obj := range objs {
			fmt.Fprintf(os.Stderr, "%v:\n", files[n])
			pp.Fprintln(os.Stderr, obj)
		}
	}

	emu.Linker.Verbose = emu.Verbose
	image, err = emu.Linker.Link(objs...)
	if err != nil {
		log.Fatal(err)
	}

	if dump {
		for _, name := range emu.Linker.Globals() {
			sym, _ := emu.Linker.Global(name)
			fmt.Fprintf(os.Stderr, "%016x %v\n", sym.Value, name)
		}
		listing(emu, image)
	}

	return
}

// listing disassembles the image to stderr, next to the source lines.
func listing(emu *emulator.Emulator, image []byte) {
	lastLine := -1
	for pos := uint64(0); pos < uint64(len(image)); {
		text, size, ok := machine.Disassemble(image, pos)
		if !ok {
			text = fmt.Sprintf("BYTE 0x%02x", image[pos])
			size = 1
		}

		var source string
		lineNo, line := emu.LineNo(pos)
		if lineNo != lastLine && lineNo != 0 {
			source = fmt.Sprintf("%5d: %v", lineNo, line)
			lastLine = lineNo
		}

		fmt.Fprintf(os.Stderr, "%08x  %-40v %v\n", pos, text, source)
		pos += size
	}
}
