//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives actuators on actual hardware using Linux GPIO character device.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	light *gpiocdev.Line
	motor *gpiocdev.Line
}

// NewRealOutputs requests the light and motor lines as outputs, initially off.
func NewRealOutputs(chipName string, pins Pins) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	light, err := chip.RequestLine(pins.Light, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request light pin %d: %w", pins.Light, err)
	}

	motor, err := chip.RequestLine(pins.Motor, gpiocdev.AsOutput(0))
	if err != nil {
		light.Close()
		chip.Close()
		return nil, fmt.Errorf("request motor pin %d: %w", pins.Motor, err)
	}

	return &RealOutputs{chip: chip, light: light, motor: motor}, nil
}

// SetLight switches the light relay.
func (o *RealOutputs) SetLight(on bool) error {
	if err := o.light.SetValue(level(on)); err != nil {
		return fmt.Errorf("set light: %w", err)
	}
	return nil
}

// SetMotor switches the fan motor.
func (o *RealOutputs) SetMotor(on bool) error {
	if err := o.motor.SetValue(level(on)); err != nil {
		return fmt.Errorf("set motor: %w", err)
	}
	return nil
}

// Close drives both outputs low, then returns the lines to input with
// pull-down so the relays stay released across a reboot.
func (o *RealOutputs) Close() error {
	var errs []error

	for name, line := range map[string]*gpiocdev.Line{"light": o.light, "motor": o.motor} {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release %s pin: %w", name, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealKeys watches the four keypad lines for presses.
type RealKeys struct {
	lines *gpiocdev.Lines
}

// WatchKeys requests the keypad lines with pull-ups and falling-edge
// detection. Keys short the line to ground, so a falling edge is a press.
// The kernel debounces each line for the given period.
func WatchKeys(chipName string, pins Pins, debounce time.Duration, handler KeyHandler) (*RealKeys, error) {
	lines, err := gpiocdev.RequestLines(chipName, pins.KeyOffsets(),
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if code, ok := pins.KeyFor(evt.Offset); ok {
				handler(code)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("request key pins %v: %w", pins.KeyOffsets(), err)
	}
	return &RealKeys{lines: lines}, nil
}

// Close stops watching.
func (k *RealKeys) Close() error {
	if k.lines == nil {
		return nil
	}
	return k.lines.Close()
}

// LineBuzzer drives an active buzzer on a plain GPIO line.
// An active buzzer has its own oscillator, so the note frequency is ignored.
type LineBuzzer struct {
	line *gpiocdev.Line
}

// NewLineBuzzer requests the buzzer line as an output, initially silent.
func NewLineBuzzer(chipName string, pin int) (*LineBuzzer, error) {
	line, err := gpiocdev.RequestLine(chipName, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}
	return &LineBuzzer{line: line}, nil
}

// Start sounds the buzzer.
func (b *LineBuzzer) Start(freqHz uint) error {
	return b.line.SetValue(level(freqHz > 0))
}

// Stop silences the buzzer.
func (b *LineBuzzer) Stop() error {
	return b.line.SetValue(0)
}

// Close silences the buzzer and releases the line.
func (b *LineBuzzer) Close() error {
	b.line.SetValue(0)
	return b.line.Close()
}
