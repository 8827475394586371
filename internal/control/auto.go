package control

import "github.com/sweeney/smart-home/internal/device"

// Default auto-mode thresholds.
const (
	DefaultLightBelowLux  = 50.0
	DefaultFanAboveTempC  = 35.0
	DefaultFanAboveHumPct = 80.0
)

// AutoRules decide actuator state from readings while auto mode is on.
type AutoRules struct {
	// LightBelowLux turns the light on when illuminance drops below it.
	LightBelowLux float64
	// FanAboveTempC and FanAboveHumPct turn the fan on when either reading
	// exceeds its limit.
	FanAboveTempC  float64
	FanAboveHumPct float64
}

// DefaultAutoRules returns the stock thresholds.
func DefaultAutoRules() AutoRules {
	return AutoRules{
		LightBelowLux:  DefaultLightBelowLux,
		FanAboveTempC:  DefaultFanAboveTempC,
		FanAboveHumPct: DefaultFanAboveHumPct,
	}
}

// Light returns the wanted light state for a snapshot.
func (r AutoRules) Light(snap device.SensorSnapshot) bool {
	return snap.IlluminanceLux < r.LightBelowLux
}

// Fan returns the wanted fan state for a snapshot.
func (r AutoRules) Fan(snap device.SensorSnapshot) bool {
	return snap.TemperatureC > r.FanAboveTempC || snap.HumidityPct > r.FanAboveHumPct
}
