package peripherals

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/retroenv/retrogolib/assert"

	"gochip8/pkg/cpu"
)

func TestKeyForRune(t *testing.T) {
	tests := []struct {
		r    rune
		want uint8
	}{
		{'1', 0x1}, {'4', 0xC}, {'q', 0x4}, {'R', 0xD},
		{'a', 0x7}, {'f', 0xE}, {'z', 0xA}, {'x', 0x0}, {'V', 0xF},
	}
	for _, tt := range tests {
		k, ok := KeyForRune(tt.r)
		assert.True(t, ok)
		assert.Equal(t, tt.want, k)
	}

	_, ok := KeyForRune('p')
	assert.False(t, ok)
}

func TestKeyLayoutCoversKeypad(t *testing.T) {
	seen := map[uint8]bool{}
	for _, k := range keyLayout {
		seen[k] = true
	}
	assert.Len(t, seen, cpu.NumKeys)
}

func TestKeypadPressRelease(t *testing.T) {
	k := NewKeypad(nil)

	k.Press(0x5)
	assert.True(t, k.Keys()[0x5])
	assert.Equal(t, uint8(0x5), <-k.KeyPresses())

	// holding a key does not queue another event
	k.Press(0x5)
	assert.Equal(t, 0, len(k.presses))

	k.Release(0x5)
	assert.False(t, k.Keys()[0x5])

	k.Set(0xA, true)
	k.Set(0xB, true)
	k.ReleaseAll()
	assert.Equal(t, cpu.KeyState{}, k.Keys())
}

func TestKeypadDropsWhenFull(t *testing.T) {
	k := NewKeypad(nil)
	for i := 0; i < pressBuffer+4; i++ {
		k.Press(uint8(i))
		k.Release(uint8(i))
	}
	assert.Equal(t, pressBuffer, len(k.presses))
}

func TestKeypadTap(t *testing.T) {
	mock := clock.NewMock()
	k := NewKeypad(mock)

	k.Tap(0x3, 100*time.Millisecond)
	assert.True(t, k.Keys()[0x3])

	mock.Add(100 * time.Millisecond)
	assert.True(t, waitReleased(k, 0x3))
}

// waitReleased polls until key is up. Mock timers run their functions on
// a separate goroutine.
func waitReleased(k *Keypad, key uint8) bool {
	for i := 0; i < 200; i++ {
		if !k.Keys()[key] {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestKeypadRetapExtendsHold(t *testing.T) {
	mock := clock.NewMock()
	k := NewKeypad(mock)

	k.Tap(0x5, 150*time.Millisecond)
	mock.Add(100 * time.Millisecond)
	k.Tap(0x5, 150*time.Millisecond)
	assert.Equal(t, 2, len(k.presses))

	// past the first hold but inside the second
	mock.Add(60 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, k.Keys()[0x5])

	mock.Add(100 * time.Millisecond)
	assert.True(t, waitReleased(k, 0x5))

	// a later tap arms a fresh release
	k.Tap(0x5, 50*time.Millisecond)
	assert.True(t, k.Keys()[0x5])
	assert.Equal(t, 3, len(k.presses))
	mock.Add(50 * time.Millisecond)
	assert.True(t, waitReleased(k, 0x5))
}

func TestKeypadAutoRepeatQueuesOnce(t *testing.T) {
	mock := clock.NewMock()
	k := NewKeypad(mock)

	for i := 0; i < 10; i++ {
		k.Tap(0x2, 150*time.Millisecond)
		mock.Add(30 * time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	assert.True(t, k.Keys()[0x2])
	assert.Equal(t, 1, len(k.presses))

	mock.Add(150 * time.Millisecond)
	assert.True(t, waitReleased(k, 0x2))
}

func TestKeypadTapReachesWaitingCPU(t *testing.T) {
	mock := clock.NewMock()
	k := NewKeypad(mock)
	c := cpu.NewCPU(cpu.WithKeypad(k))
	assert.NoError(t, c.Load([]byte{0xF3, 0x0A, 0xF4, 0x0A}))

	assert.NoError(t, c.Step())
	assert.True(t, c.Waiting)
	k.Tap(0x7, 150*time.Millisecond)
	assert.NoError(t, c.Step())
	assert.False(t, c.Waiting)
	assert.Equal(t, uint8(0x7), c.V[3])

	// second press of the same key inside the first hold
	mock.Add(100 * time.Millisecond)
	assert.NoError(t, c.Step())
	assert.True(t, c.Waiting)
	k.Tap(0x7, 150*time.Millisecond)
	assert.NoError(t, c.Step())
	assert.False(t, c.Waiting)
	assert.Equal(t, uint8(0x7), c.V[4])
}
