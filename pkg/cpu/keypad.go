package cpu

// NumKeys is the size of the hex keypad.
const NumKeys = 16

// KeyState is a point-in-time view of which keys are held down.
type KeyState [NumKeys]bool

// Keypad is the input collaborator. Keys is sampled once per cycle;
// KeyPresses delivers key-down events for the wait-for-key instruction.
type Keypad interface {
	Keys() KeyState
	KeyPresses() <-chan uint8
}

type noKeypad struct{}

func (noKeypad) Keys() KeyState { return KeyState{} }
func (noKeypad) KeyPresses() <-chan uint8 { return nil }
