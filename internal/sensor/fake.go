package sensor

import "errors"

// Sample is one scripted set of readings.
type Sample struct {
	TemperatureC   float64
	HumidityPct    float64
	IlluminanceLux float64
	GasVoltage     float32
}

// FakeReader is a test double that returns scripted readings.
// Each ReadGasVoltage call advances to the next sample, so a control cycle
// (climate, light, gas) sees one consistent sample. When samples run out
// the last one repeats.
type FakeReader struct {
	Samples []Sample

	index int

	// ClimateError, LightError and GasError, if set, are returned by the
	// corresponding read.
	ClimateError error
	LightError   error
	GasError     error

	// Reads counts calls per sensor.
	ClimateReads int
	LightReads   int
	GasReads     int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

func (f *FakeReader) current() (Sample, error) {
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}
	return f.Samples[f.index], nil
}

// ReadTemperatureHumidity returns the current sample's climate values.
func (f *FakeReader) ReadTemperatureHumidity() (float64, float64, error) {
	f.ClimateReads++
	if f.ClimateError != nil {
		return 0, 0, f.ClimateError
	}
	s, err := f.current()
	if err != nil {
		return 0, 0, err
	}
	return s.TemperatureC, s.HumidityPct, nil
}

// ReadIlluminance returns the current sample's illuminance.
func (f *FakeReader) ReadIlluminance() (float64, error) {
	f.LightReads++
	if f.LightError != nil {
		return 0, f.LightError
	}
	s, err := f.current()
	if err != nil {
		return 0, err
	}
	return s.IlluminanceLux, nil
}

// ReadGasVoltage returns the current sample's gas voltage and advances.
func (f *FakeReader) ReadGasVoltage() (float32, error) {
	f.GasReads++
	if f.GasError != nil {
		return 0, f.GasError
	}
	s, err := f.current()
	if err != nil {
		return 0, err
	}
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.GasVoltage, nil
}
