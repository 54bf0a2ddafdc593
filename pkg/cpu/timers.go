package cpu

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	TimerHz     = 60
	TimerPeriod = time.Second / TimerHz
)

// Timers holds the delay and sound countdown registers. The engine reads and
// writes them; only the ticker decrements them.
type Timers struct {
	mu    sync.Mutex
	delay uint8
	sound uint8
}

func (t *Timers) Delay() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

func (t *Timers) SetDelay(v uint8) {
	t.mu.Lock()
	t.delay = v
	t.mu.Unlock()
}

func (t *Timers) Sound() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sound
}

func (t *Timers) SetSound(v uint8) {
	t.mu.Lock()
	t.sound = v
	t.mu.Unlock()
}

// SoundActive is the audio on/off signal.
func (t *Timers) SoundActive() bool {
	return t.Sound() > 0
}

// Tick decrements both timers by one, stopping at zero.
func (t *Timers) Tick() {
	t.TickN(1)
}

// TickN applies n ticks at once.
func (t *Timers) TickN(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	t.delay = countDown(t.delay, n)
	t.sound = countDown(t.sound, n)
	t.mu.Unlock()
}

func (t *Timers) Reset() {
	t.mu.Lock()
	t.delay, t.sound = 0, 0
	t.mu.Unlock()
}

func countDown(v uint8, n int) uint8 {
	if int(v) <= n {
		return 0
	}
	return v - uint8(n)
}

// TimerTicker decrements a Timers pair at 60 Hz of wall-clock time,
// independent of how often the engine steps.
type TimerTicker struct {
	timers  *Timers
	clock   clock.Clock
	onSound func(active bool)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the ticker goroutine while running
	start       time.Time
	applied     int64
	soundActive bool
}

// NewTimerTicker returns a stopped ticker for t. A nil clk uses the wall clock.
func NewTimerTicker(t *Timers, clk clock.Clock) *TimerTicker {
	if clk == nil {
		clk = clock.New()
	}
	return &TimerTicker{timers: t, clock: clk}
}

// OnSound registers fn to be called from the ticker goroutine whenever the
// sound-active signal changes. It must be set before Start.
func (tt *TimerTicker) OnSound(fn func(active bool)) {
	tt.onSound = fn
}

// Start launches the ticker goroutine. Starting a running ticker is a no-op.
func (tt *TimerTicker) Start(ctx context.Context) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	tt.cancel = cancel
	tt.done = make(chan struct{})
	tt.start = tt.clock.Now()
	tt.applied = 0
	tt.soundActive = tt.timers.SoundActive()

	ticker := tt.clock.Ticker(TimerPeriod)
	go tt.loop(ctx, ticker, tt.done)
}

// Stop halts the ticker and waits for its goroutine to exit.
func (tt *TimerTicker) Stop() {
	tt.mu.Lock()
	cancel, done := tt.cancel, tt.done
	tt.cancel = nil
	tt.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (tt *TimerTicker) loop(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tt.advance(tt.clock.Now())
		}
	}
}

// advance applies every tick due at now. Ticks are counted from start so a
// late wakeup catches up instead of losing time.
func (tt *TimerTicker) advance(now time.Time) {
	due := int64(now.Sub(tt.start) / TimerPeriod)
	if n := due - tt.applied; n > 0 {
		if n > 255 {
			n = 255
		}
		tt.timers.TickN(int(n))
		tt.applied = due
	}

	active := tt.timers.SoundActive()
	if active != tt.soundActive {
		tt.soundActive = active
		if tt.onSound != nil {
			tt.onSound(active)
		}
	}
}
