package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// PWMBuzzer drives a passive buzzer from a Linux PWM channel exported under
// /sys/class/pwm, e.g. /sys/class/pwm/pwmchip0/pwm0.
type PWMBuzzer struct {
	dir string
}

// NewPWMBuzzer checks that the channel is exported and silences it.
func NewPWMBuzzer(dir string) (*PWMBuzzer, error) {
	if _, err := os.Stat(filepath.Join(dir, "enable")); err != nil {
		return nil, fmt.Errorf("pwm channel %s: %w", dir, err)
	}
	b := &PWMBuzzer{dir: dir}
	if err := b.Stop(); err != nil {
		return nil, err
	}
	return b, nil
}

// Start plays a square wave at freqHz with 50% duty. Zero means silence.
func (b *PWMBuzzer) Start(freqHz uint) error {
	if freqHz == 0 {
		return b.Stop()
	}
	period := uint64(1_000_000_000) / uint64(freqHz)
	// duty_cycle must never exceed period, so clear it before changing period.
	steps := []struct {
		attr  string
		value uint64
	}{
		{"duty_cycle", 0},
		{"period", period},
		{"duty_cycle", period / 2},
		{"enable", 1},
	}
	for _, s := range steps {
		if err := b.write(s.attr, s.value); err != nil {
			return err
		}
	}
	return nil
}

// Stop silences the buzzer.
func (b *PWMBuzzer) Stop() error {
	return b.write("enable", 0)
}

// Close silences the buzzer.
func (b *PWMBuzzer) Close() error {
	return b.Stop()
}

func (b *PWMBuzzer) write(attr string, value uint64) error {
	p := filepath.Join(b.dir, attr)
	if err := os.WriteFile(p, []byte(strconv.FormatUint(value, 10)), 0o644); err != nil {
		return fmt.Errorf("pwm %s: %w", attr, err)
	}
	return nil
}
