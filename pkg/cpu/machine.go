package cpu

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultHz is the instruction rate used when none is configured.
const DefaultHz = 500

// maxCatchUp bounds how many cycles one wakeup may run after a stall.
const maxCatchUp = 64

// Machine drives a CPU at a fixed instruction rate alongside its 60 Hz
// TimerTicker.
type Machine struct {
	CPU    *CPU
	Ticker *TimerTicker

	hz     int
	clock  clock.Clock
	onDraw func(Framebuffer)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithClock sets the clock used for both cycle pacing and the timers.
func WithClock(clk clock.Clock) MachineOption {
	return func(m *Machine) { m.clock = clk }
}

// OnDraw registers fn to receive a copy of the display after every cycle
// that changed it. fn runs on the engine goroutine.
func OnDraw(fn func(Framebuffer)) MachineOption {
	return func(m *Machine) { m.onDraw = fn }
}

// OnSound registers fn to be called whenever the sound signal changes.
func OnSound(fn func(active bool)) MachineOption {
	return func(m *Machine) { m.Ticker.OnSound(fn) }
}

// NewMachine wraps c. A non-positive hz selects DefaultHz.
func NewMachine(c *CPU, hz int, opts ...MachineOption) *Machine {
	if hz <= 0 {
		hz = DefaultHz
	}
	m := &Machine{
		CPU:   c,
		hz:    hz,
		clock: clock.New(),
	}
	m.Ticker = NewTimerTicker(c.Timers, nil)
	for _, opt := range opts {
		opt(m)
	}
	m.Ticker.clock = m.clock
	return m
}

// Hz returns the configured instruction rate.
func (m *Machine) Hz() int {
	return m.hz
}

// Run executes the CPU until it halts, ctx is cancelled or Stop is called.
// While the CPU waits for a key, Run blocks on the keypad and the timers keep
// running. It returns the fault that halted the CPU, or nil.
func (m *Machine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	m.Ticker.Start(ctx)
	defer m.Ticker.Stop()

	period := time.Second / time.Duration(m.hz)
	ticker := m.clock.Ticker(period)
	defer ticker.Stop()

	start := m.clock.Now()
	var executed int64

	for {
		if m.CPU.Waiting {
			if err := m.CPU.waitKey(ctx); err != nil {
				return nil
			}
			// cycles owed while suspended are forfeited
			start = m.clock.Now()
			executed = 0
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		due := int64(m.clock.Now().Sub(start) / period)
		n := due - executed
		if n > maxCatchUp {
			n = maxCatchUp
			executed = due - n
		}
		for ; n > 0 && !m.CPU.Waiting; n-- {
			err := m.CPU.Step()
			executed++
			if err != nil {
				if errors.Is(err, ErrHalted) {
					return m.CPU.Fault
				}
				return err
			}
			m.publishDisplay()
		}
	}
}

func (m *Machine) publishDisplay() {
	if !m.CPU.Display.Dirty() {
		return
	}
	m.CPU.Display.ClearDirty()
	if m.onDraw != nil {
		m.onDraw(m.CPU.Display.Snapshot())
	}
}

// Stop cancels a running Machine.
func (m *Machine) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
