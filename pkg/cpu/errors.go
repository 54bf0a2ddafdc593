package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrMemoryOutOfRange = errors.New("memory out of range")
	ErrProgramTooLarge  = errors.New("program too large")

	// ErrHalted is returned by Step after a fault has already been reported.
	ErrHalted = errors.New("cpu halted")
)

// Fault is a fatal execution error. Err is one of the sentinel errors above,
// so callers match it with errors.Is.
type Fault struct {
	Err     error
	Word    uint16
	PC      uint16
	HasWord bool
	Addr    int // offending address for ErrMemoryOutOfRange
}

func (f *Fault) Error() string {
	memory := errors.Is(f.Err, ErrMemoryOutOfRange)
	switch {
	case memory && f.HasWord:
		return fmt.Sprintf("%v: address 0x%04X, opcode 0x%04X at pc 0x%03X", f.Err, f.Addr, f.Word, f.PC)
	case memory:
		return fmt.Sprintf("%v: address 0x%04X at pc 0x%03X", f.Err, f.Addr, f.PC)
	case f.HasWord:
		return fmt.Sprintf("%v: opcode 0x%04X at pc 0x%03X", f.Err, f.Word, f.PC)
	}
	return fmt.Sprintf("%v at pc 0x%03X", f.Err, f.PC)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func newFault(err error, in Instruction) *Fault {
	return &Fault{Err: err, Word: in.Word, PC: in.PC, HasWord: true}
}

func memoryFault(in Instruction, addr int) *Fault {
	return &Fault{Err: ErrMemoryOutOfRange, Word: in.Word, PC: in.PC, HasWord: true, Addr: addr}
}
