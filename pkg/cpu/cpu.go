package cpu

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/disasm"
)

// StackDepth is the number of return addresses the call stack holds.
const StackDepth = 16

type CPU struct {
	V  [16]uint8
	I  uint16
	PC uint16

	Stack [StackDepth]uint16
	SP    uint8

	Memory  Memory
	Display Framebuffer

	// Timers is shared with the TimerTicker, which is the only thing that
	// decrements it.
	Timers *Timers
	Keypad Keypad
	Quirks Quirks

	// Waiting is set while a wait-for-key instruction is suspended. Step
	// executes nothing until a key press arrives or ResumeWithKey is called.
	Waiting bool
	waitReg uint8

	Halted bool
	// Fault is the error that halted the CPU.
	Fault error

	Cycles uint64

	random func() uint8
	logger *log.Logger
	trace  bool
}

// NewCPU returns a reset CPU with the glyph table loaded and no program.
func NewCPU(opts ...Option) *CPU {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &CPU{
		Timers: &Timers{},
		Keypad: o.Keypad,
		Quirks: o.Quirks,
		random: o.Random,
		logger: o.Logger,
		trace:  o.Trace,
	}
	c.Reset()
	return c
}

// Reset returns the CPU to its power-on state. Memory outside the glyph
// table is zeroed and the display is cleared.
func (c *CPU) Reset() {
	c.V = [16]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.Stack = [StackDepth]uint16{}
	c.SP = 0
	c.Memory = newMemory()
	c.Display.Clear()
	c.Timers.Reset()
	c.Waiting = false
	c.waitReg = 0
	c.Halted = false
	c.Fault = nil
	c.Cycles = 0
}

// Load resets the CPU and copies program into memory at ProgramStart.
func (c *CPU) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrProgramTooLarge, len(program), MaxProgramSize)
	}
	c.Reset()
	copy(c.Memory[ProgramStart:], program)
	return nil
}

// LoadFrom reads a raw program image from r and loads it.
func (c *CPU) LoadFrom(r io.Reader) error {
	program, err := io.ReadAll(io.LimitReader(r, MaxProgramSize+1))
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}
	return c.Load(program)
}

// Step performs one fetch-decode-execute cycle. The first fault halts the CPU
// and is returned; after that Step returns ErrHalted until Reset or Load.
// While Waiting, Step polls the keypad and executes nothing.
func (c *CPU) Step() error {
	if c.Halted {
		return ErrHalted
	}
	if c.Waiting {
		select {
		case k := <-c.Keypad.KeyPresses():
			c.ResumeWithKey(k)
		default:
		}
		return nil
	}

	keys := c.Keypad.Keys()

	pc := c.PC
	word, ok := c.Memory.Read16(pc)
	if !ok {
		return c.halt(&Fault{Err: ErrMemoryOutOfRange, PC: pc, Addr: int(pc)})
	}
	c.PC += 2

	in, err := Decode(word, pc)
	if err != nil {
		c.PC = pc
		return c.halt(err)
	}

	if c.trace && c.logger != nil {
		c.logger.Debug("Executing",
			log.Hex("pc", pc),
			log.Hex("opcode", word),
			log.String("instruction", disasm.Format(word)))
	}

	if err := c.execute(in, keys); err != nil {
		c.PC = pc
		return c.halt(err)
	}
	c.Cycles++
	return nil
}

func (c *CPU) halt(err error) error {
	c.Halted = true
	c.Fault = err

	if c.logger == nil {
		return err
	}
	if f, ok := err.(*Fault); ok && f.HasWord {
		c.logger.Error("CPU halted",
			log.Err(err),
			log.Hex("pc", c.PC),
			log.String("instruction", disasm.Format(f.Word)))
	} else {
		c.logger.Error("CPU halted", log.Err(err), log.Hex("pc", c.PC))
	}
	return err
}

// ResumeWithKey completes a pending wait-for-key instruction with key k.
// It reports whether the CPU was waiting.
func (c *CPU) ResumeWithKey(k uint8) bool {
	if !c.Waiting {
		return false
	}
	c.V[c.waitReg] = k & 0x0F
	c.Waiting = false
	return true
}

// beginKeyWait suspends the CPU on register x. Presses queued before the
// instruction ran are discarded.
func (c *CPU) beginKeyWait(x uint8) {
	c.Waiting = true
	c.waitReg = x
	presses := c.Keypad.KeyPresses()
	for {
		select {
		case <-presses:
		default:
			return
		}
	}
}

// waitKey blocks until a key press resumes a waiting CPU or ctx is done.
func (c *CPU) waitKey(ctx context.Context) error {
	select {
	case k := <-c.Keypad.KeyPresses():
		c.ResumeWithKey(k)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run steps the CPU as fast as possible until it halts or ctx is cancelled.
// Key waits block on the keypad. It returns the fault that halted the CPU,
// or nil on cancellation.
func (c *CPU) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if c.Waiting {
			if err := c.waitKey(ctx); err != nil {
				return nil
			}
			continue
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// RunUntilDone steps until the CPU halts or starts waiting for a key.
func (c *CPU) RunUntilDone() error {
	for !c.Halted && !c.Waiting {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles executes at most n cycles, stopping early on a fault or a key wait.
func (c *CPU) RunCycles(n int) error {
	for i := 0; i < n && !c.Waiting; i++ {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Registers renders the register file for diagnostics.
func (c *CPU) Registers() string {
	var sb strings.Builder
	for i, v := range c.V {
		switch {
		case i == 8:
			sb.WriteString("\n")
		case i > 0:
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "V%X=%02X", i, v)
	}
	fmt.Fprintf(&sb, "\nI=%03X PC=%03X SP=%d DT=%02X ST=%02X", c.I, c.PC, c.SP, c.Timers.Delay(), c.Timers.Sound())
	return sb.String()
}
