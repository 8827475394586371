package gpio

import "github.com/sweeney/smart-home/internal/command"

// FakeOutputs is a test double that records actuator writes.
type FakeOutputs struct {
	// Light and Motor hold the last value written.
	Light bool
	Motor bool

	// LightWrites and MotorWrites record every value written, in order.
	LightWrites []bool
	MotorWrites []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by SetLight and SetMotor
	// without changing the recorded state.
	SetError error
}

// NewFakeOutputs creates a FakeOutputs with both actuators off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// SetLight records a light write.
func (f *FakeOutputs) SetLight(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Light = on
	f.LightWrites = append(f.LightWrites, on)
	return nil
}

// SetMotor records a motor write.
func (f *FakeOutputs) SetMotor(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Motor = on
	f.MotorWrites = append(f.MotorWrites, on)
	return nil
}

// Close marks the outputs as closed and turns both actuators off.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	f.Light = false
	f.Motor = false
	return nil
}

// Reset clears all recorded writes.
func (f *FakeOutputs) Reset() {
	*f = FakeOutputs{}
}

// FakeKeypad simulates key presses against a handler.
type FakeKeypad struct {
	pins    Pins
	handler KeyHandler
}

// NewFakeKeypad creates a keypad that delivers presses to handler.
func NewFakeKeypad(pins Pins, handler KeyHandler) *FakeKeypad {
	return &FakeKeypad{pins: pins, handler: handler}
}

// Edge simulates a falling edge on a line offset. Offsets not wired to a
// key are ignored, as on real hardware.
func (f *FakeKeypad) Edge(offset int) {
	if code, ok := f.pins.KeyFor(offset); ok {
		f.handler(code)
	}
}

// Press simulates a press of the given key.
func (f *FakeKeypad) Press(code command.KeyCode) {
	f.handler(code)
}
