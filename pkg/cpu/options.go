package cpu

import (
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"
)

// Option configures a CPU created by NewCPU.
type Option func(*Options)

// Options holds the injectable collaborators of a CPU.
type Options struct {
	Quirks Quirks
	Keypad Keypad
	Random func() uint8
	Logger *log.Logger
	Trace  bool
}

func defaultOptions() Options {
	return Options{
		Keypad: noKeypad{},
		Random: func() uint8 { return uint8(rand.UintN(256)) },
	}
}

func WithQuirks(q Quirks) Option {
	return func(o *Options) { o.Quirks = q }
}

// WithKeypad sets the input collaborator. Without one no key is ever down
// and the wait-for-key instruction only resumes through ResumeWithKey.
func WithKeypad(k Keypad) Option {
	return func(o *Options) {
		if k != nil {
			o.Keypad = k
		}
	}
}

// WithRandom replaces the random byte source used by RND.
func WithRandom(fn func() uint8) Option {
	return func(o *Options) {
		if fn != nil {
			o.Random = fn
		}
	}
}

// WithLogger enables engine logging. A nil logger keeps the engine silent.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(o *Options) { o.Trace = enabled }
}
