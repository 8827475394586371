// Package device holds the appliance's current actuator/network state and the
// per-cycle sensor snapshot.
// This package has NO external dependencies (no GPIO, MQTT or OS access).
package device

import "unicode/utf8"

// MaxStatusText is the largest status text kept, in bytes.
const MaxStatusText = 63

// StatusText is a bounded free-form status string set by the network
// "mqtt_control" command. The zero value means "unset".
type StatusText string

// NewStatusText truncates s to MaxStatusText bytes without splitting a rune.
func NewStatusText(s string) StatusText {
	if len(s) <= MaxStatusText {
		return StatusText(s)
	}
	cut := MaxStatusText
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return StatusText(s[:cut])
}

// IsSet reports whether any text has been stored.
func (t StatusText) IsSet() bool {
	return t != ""
}

// State is the single record of actuator and network state.
// It is a value type; copies handed to readers never alias the store.
type State struct {
	LightOn          bool
	MotorOn          bool
	AutoMode         bool
	NetworkConnected bool
	StatusText       StatusText
}

// SensorSnapshot holds readings taken within one control cycle.
type SensorSnapshot struct {
	TemperatureC   float64
	HumidityPct    float64
	IlluminanceLux float64
	GasPPM         float32
}

// OnOff renders a flag the way the cloud model and display expect it.
func OnOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
