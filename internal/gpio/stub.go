//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(chipName string, pins Pins) (*RealOutputs, error) {
	return nil, errUnsupported
}

// SetLight is not implemented on non-Linux platforms.
func (o *RealOutputs) SetLight(on bool) error { return errUnsupported }

// SetMotor is not implemented on non-Linux platforms.
func (o *RealOutputs) SetMotor(on bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (o *RealOutputs) Close() error { return nil }

// RealKeys is not available on non-Linux platforms.
type RealKeys struct{}

// WatchKeys returns an error on non-Linux platforms.
func WatchKeys(chipName string, pins Pins, debounce time.Duration, handler KeyHandler) (*RealKeys, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (k *RealKeys) Close() error { return nil }

// LineBuzzer is not available on non-Linux platforms.
type LineBuzzer struct{}

// NewLineBuzzer returns an error on non-Linux platforms.
func NewLineBuzzer(chipName string, pin int) (*LineBuzzer, error) {
	return nil, errUnsupported
}

// Start is not implemented on non-Linux platforms.
func (b *LineBuzzer) Start(freqHz uint) error { return errUnsupported }

// Stop is not implemented on non-Linux platforms.
func (b *LineBuzzer) Stop() error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (b *LineBuzzer) Close() error { return nil }
