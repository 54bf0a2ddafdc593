package main

import (
	"context"
	"errors"
	"testing"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
)

// runSource assembles source, loads it and runs it unpaced until it faults.
func runSource(t *testing.T, source string) (*cpu.CPU, error) {
	t.Helper()

	machineCode, _, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}

	vm := cpu.NewCPU()
	if err := vm.Load(machineCode); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return vm, vm.Run(context.Background())
}

func TestFibonacciToBCD(t *testing.T) {
	source := `
	LD V0, 0
	LD V1, 1
	LD V3, 10
loop:
	LD V2, V0
	ADD V2, V1
	LD V0, V1
	LD V1, V2
	ADD V3, 0xFF
	SE V3, 0
	JP loop

	LD I, out
	LD B, V0
	LD V2, [I]
	.WORD 0x0000 ; stop

out:
	.BYTE 0, 0, 0
`
	vm, err := runSource(t, source)

	// the trailing data word is the program's way to stop
	if !errors.Is(err, cpu.ErrInvalidOpcode) {
		t.Fatalf("Expected invalid opcode fault, got %v", err)
	}

	var fault *cpu.Fault
	if !errors.As(err, &fault) || fault.Word != 0x0000 {
		t.Errorf("Expected fault on word 0x0000, got %v", err)
	}

	// fib(10) = 55, as BCD 0 5 5
	if vm.V[0] != 0 || vm.V[1] != 5 || vm.V[2] != 5 {
		t.Errorf("Expected BCD digits 0 5 5, got %v", vm.V[:3])
	}
	if vm.SP != 0 {
		t.Errorf("Expected SP to be 0, got %d", vm.SP)
	}
}

func TestRunawayRecursion(t *testing.T) {
	source := `
rec:
	CALL rec
`
	vm, err := runSource(t, source)
	if !errors.Is(err, cpu.ErrStackOverflow) {
		t.Fatalf("Expected stack overflow, got %v", err)
	}
	if vm.SP != cpu.StackDepth {
		t.Errorf("Expected SP to be %d, got %d", cpu.StackDepth, vm.SP)
	}
	if vm.PC != cpu.ProgramStart {
		t.Errorf("Expected PC at the faulting CALL, got 0x%03X", vm.PC)
	}
	if err := vm.Step(); !errors.Is(err, cpu.ErrHalted) {
		t.Errorf("Expected ErrHalted after fault, got %v", err)
	}
}
