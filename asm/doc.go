// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package asm is the line oriented assembler for the vm64 machine.
//
// Each source line holds optional labels, then one instruction or
// directive:
//
//	# comment
//	main:   MOV.q r0, 3             # immediate to register
//	.loop:  ADD.d r1, [r2*8 + table] # memory source
//	        JNZ .loop
//	        STOP
//	table:  QWORD 1, 2, 3, x4       # 1, 2, 3, 3, 3, 3
//
// A label beginning with '.' is local to the preceding static label, so
// '.loop' above is the symbol 'main_loop'.
//
// Expressions are sums of literals, symbols and $(starlark) terms.
// Terms that cannot be resolved while assembling are left as holes in the
// object file for the linker to patch.
package asm
