// Package gpio drives the actuators and watches the keypad with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/smart-home/internal/command"

// Outputs drives the light relay and the fan motor.
type Outputs interface {
	SetLight(on bool) error
	SetMotor(on bool) error

	// Close releases GPIO resources, leaving both actuators off.
	Close() error
}

// KeyHandler receives one call per debounced key press. It runs on the
// GPIO event goroutine and may block, for instance while the command queue
// is full; further presses wait in the kernel's event buffer meanwhile.
type KeyHandler func(code command.KeyCode)

// Pin definitions (BCM numbering)
const (
	PinLight    = 17
	PinMotor    = 27
	PinBuzzer   = 18
	PinKeyUp    = 5
	PinKeyDown  = 6
	PinKeyLeft  = 13
	PinKeyRight = 19
)

// Pins maps board functions to GPIO line offsets.
type Pins struct {
	Light    int
	Motor    int
	Buzzer   int
	KeyUp    int
	KeyDown  int
	KeyLeft  int
	KeyRight int
}

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		Light:    PinLight,
		Motor:    PinMotor,
		Buzzer:   PinBuzzer,
		KeyUp:    PinKeyUp,
		KeyDown:  PinKeyDown,
		KeyLeft:  PinKeyLeft,
		KeyRight: PinKeyRight,
	}
}

// KeyOffsets returns the keypad line offsets in Up, Down, Left, Right order.
func (p Pins) KeyOffsets() []int {
	return []int{p.KeyUp, p.KeyDown, p.KeyLeft, p.KeyRight}
}

// KeyFor maps a line offset to the key wired to it.
func (p Pins) KeyFor(offset int) (command.KeyCode, bool) {
	switch offset {
	case p.KeyUp:
		return command.KeyCodeUp, true
	case p.KeyDown:
		return command.KeyCodeDown, true
	case p.KeyLeft:
		return command.KeyCodeLeft, true
	case p.KeyRight:
		return command.KeyCodeRight, true
	}
	return 0, false
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
