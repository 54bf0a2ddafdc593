package peripherals

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"gochip8/pkg/cpu"
)

// pressBuffer bounds the queued key-down events. Presses beyond it are
// dropped rather than blocking the host input loop.
const pressBuffer = 16

// autoRepeatGap separates terminal autorepeat from a fresh press. Taps of a
// held key closer together than this extend the hold without queueing a
// key-down event.
const autoRepeatGap = 75 * time.Millisecond

// keyLayout maps the host keyboard rows onto the hex keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keyLayout = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// KeyForRune returns the keypad key bound to a host character.
func KeyForRune(r rune) (uint8, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	k, ok := keyLayout[r]
	return k, ok
}

// Keypad is a host-driven implementation of cpu.Keypad. Frontends call
// Press and Release from their input loop; the CPU samples Keys once per
// cycle and consumes KeyPresses while waiting for a key.
type Keypad struct {
	mu      sync.Mutex
	state   cpu.KeyState
	presses chan uint8
	clock   clock.Clock

	// tap release timers, one per key
	releases  [cpu.NumKeys]*clock.Timer
	releaseAt [cpu.NumKeys]time.Time
	lastTap   [cpu.NumKeys]time.Time
}

var _ cpu.Keypad = (*Keypad)(nil)

// NewKeypad creates a keypad. A nil clock uses the wall clock.
func NewKeypad(clk clock.Clock) *Keypad {
	if clk == nil {
		clk = clock.New()
	}
	return &Keypad{
		presses: make(chan uint8, pressBuffer),
		clock:   clk,
	}
}

func (k *Keypad) Keys() cpu.KeyState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

func (k *Keypad) KeyPresses() <-chan uint8 {
	return k.presses
}

// Press marks key as held. A transition from up to down also queues a
// key-down event.
func (k *Keypad) Press(key uint8) {
	key &= 0xF
	k.mu.Lock()
	wasDown := k.state[key]
	k.state[key] = true
	k.mu.Unlock()

	if wasDown {
		return
	}
	select {
	case k.presses <- key:
	default:
	}
}

func (k *Keypad) Release(key uint8) {
	k.mu.Lock()
	k.state[key&0xF] = false
	k.mu.Unlock()
}

// Set presses or releases key.
func (k *Keypad) Set(key uint8, down bool) {
	if down {
		k.Press(key)
		return
	}
	k.Release(key)
}

func (k *Keypad) ReleaseAll() {
	k.mu.Lock()
	k.state = cpu.KeyState{}
	k.mu.Unlock()
}

// Tap presses key and releases it after hold. Terminals report key
// presses but never key releases, so the console frontend taps. Tapping a
// key that is still held restarts its hold and queues a new key-down event
// unless the tap looks like autorepeat.
func (k *Keypad) Tap(key uint8, hold time.Duration) {
	key &= 0xF
	now := k.clock.Now()

	k.mu.Lock()
	repeat := k.state[key] && now.Sub(k.lastTap[key]) < autoRepeatGap
	k.state[key] = true
	k.lastTap[key] = now
	k.releaseAt[key] = now.Add(hold)
	if t := k.releases[key]; t != nil {
		t.Reset(hold)
	} else {
		k.releases[key] = k.clock.AfterFunc(hold, func() { k.expire(key) })
	}
	k.mu.Unlock()

	if repeat {
		return
	}
	select {
	case k.presses <- key:
	default:
	}
}

// expire releases a tapped key once its latest hold has run out.
func (k *Keypad) expire(key uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.clock.Now().Before(k.releaseAt[key]) {
		return
	}
	k.state[key] = false
	k.releases[key] = nil
}
