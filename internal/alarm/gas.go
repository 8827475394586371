package alarm

import (
	"errors"
	"fmt"
	"math"
)

// MQ-2 power-law constants: ppm = CurveA * (rs/r0)^CurveB.
const (
	CurveA = 613.9
	CurveB = -2.074

	// SupplyVoltage is the sensor heater/divider supply.
	SupplyVoltage = 5.0

	// DefaultLoadResistance is RL in kΩ.
	DefaultLoadResistance = 1.0

	// DefaultCalibrationPPM is the concentration assumed in clean air at calibration time.
	DefaultCalibrationPPM = 20.0
)

// ErrCalibrationVoltage is returned when the calibration reading cannot
// produce a finite, positive baseline.
var ErrCalibrationVoltage = errors.New("alarm: calibration voltage out of range")

// Baseline is the sensor resistance in clean air (R0). It is computed once
// at startup and never changes afterwards.
type Baseline float64

// Gauge converts sensor voltages to ppm against a fixed baseline.
type Gauge struct {
	baseline       Baseline
	loadResistance float64
}

// Calibrate derives the baseline from one clean-air voltage reading.
func Calibrate(voltage float32, loadResistance, calibrationPPM float64) (Baseline, error) {
	v := float64(voltage)
	if v <= 0 || v >= SupplyVoltage || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %.3fV", ErrCalibrationVoltage, v)
	}
	if loadResistance <= 0 {
		loadResistance = DefaultLoadResistance
	}
	if calibrationPPM <= 0 {
		calibrationPPM = DefaultCalibrationPPM
	}
	rs := sensorResistance(v, loadResistance)
	r0 := rs / math.Pow(calibrationPPM/CurveA, 1/CurveB)
	return Baseline(r0), nil
}

// NewGauge returns a gauge for the given baseline.
func NewGauge(baseline Baseline, loadResistance float64) *Gauge {
	if loadResistance <= 0 {
		loadResistance = DefaultLoadResistance
	}
	return &Gauge{baseline: baseline, loadResistance: loadResistance}
}

// Baseline returns the calibrated R0.
func (g *Gauge) Baseline() Baseline {
	return g.baseline
}

// PPM converts a sensed voltage to a concentration.
func (g *Gauge) PPM(voltage float32) float32 {
	return PPM(voltage, g.baseline, g.loadResistance)
}

// PPM is the pure concentration function of (voltage, baseline). A zero
// voltage (failed ADC read) yields 0; a voltage at or above the supply
// saturates to +Inf.
func PPM(voltage float32, baseline Baseline, loadResistance float64) float32 {
	v := float64(voltage)
	if v <= 0 || baseline <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= SupplyVoltage {
		return float32(math.Inf(1))
	}
	rs := sensorResistance(v, loadResistance)
	return float32(CurveA * math.Pow(rs/float64(baseline), CurveB))
}

func sensorResistance(v, loadResistance float64) float64 {
	return (SupplyVoltage - v) / v * loadResistance
}

// ADC describes the converter feeding the gas sensor.
type ADC struct {
	VRef       float64
	Resolution int
}

// DefaultADC is a 10-bit converter referenced to 3.3 V.
var DefaultADC = ADC{VRef: 3.3, Resolution: 1024}

// Voltage converts a raw ADC count to volts.
func (a ADC) Voltage(raw int) float32 {
	if a.Resolution <= 0 {
		return 0
	}
	return float32(float64(raw) * a.VRef / float64(a.Resolution))
}
