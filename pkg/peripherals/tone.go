package peripherals

import (
	"encoding/binary"
	"sync/atomic"
)

const (
	// DefaultSampleRate is the audio sample rate used by the desktop frontend.
	DefaultSampleRate = 44100
	// DefaultToneHz is the buzzer pitch.
	DefaultToneHz = 440

	bytesPerFrame = 4 // 16-bit signed little endian, two channels
	toneAmplitude = 0x1800
)

// Tone is an endless 16-bit stereo square wave stream. While inactive it
// yields silence, so a player can keep reading from it and the buzzer is
// switched with SetActive.
type Tone struct {
	sampleRate int
	freq       int
	pos        int
	active     atomic.Bool
}

func NewTone(sampleRate, freq int) *Tone {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if freq <= 0 {
		freq = DefaultToneHz
	}
	return &Tone{sampleRate: sampleRate, freq: freq}
}

func (t *Tone) SetActive(active bool) {
	t.active.Store(active)
}

func (t *Tone) Active() bool {
	return t.active.Load()
}

// Read fills p with whole frames.
func (t *Tone) Read(p []byte) (int, error) {
	n := len(p) / bytesPerFrame * bytesPerFrame
	active := t.active.Load()
	period := t.sampleRate / t.freq
	if period < 2 {
		period = 2
	}

	for i := 0; i < n; i += bytesPerFrame {
		var sample int16
		if active {
			sample = toneAmplitude
			if t.pos%period >= period/2 {
				sample = -toneAmplitude
			}
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(sample))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(sample))
		t.pos++
		if t.pos >= period {
			t.pos = 0
		}
	}
	return n, nil
}
