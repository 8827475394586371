package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sweeney/smart-home/internal/alarm"
)

// Paths locates the sysfs attributes for each sensor.
type Paths struct {
	// Temperature is an hwmon temp*_input file in millidegrees (sht3x).
	Temperature string
	// Humidity is an hwmon humidity*_input file in milli-percent (sht3x).
	Humidity string
	// Illuminance is an IIO in_illuminance_raw or _input file (bh1750).
	Illuminance string
	// IlluminanceScale is the optional IIO scale file; empty means 1.0.
	IlluminanceScale string
	// GasRaw is an IIO in_voltageN_raw file for the gas sensor ADC channel.
	GasRaw string
}

// SysfsReader reads sensors through kernel drivers' sysfs files.
type SysfsReader struct {
	paths Paths
	adc   alarm.ADC
}

// NewSysfsReader checks that the required files exist and returns a reader.
func NewSysfsReader(paths Paths, adc alarm.ADC) (*SysfsReader, error) {
	for name, p := range map[string]string{
		"temperature": paths.Temperature,
		"humidity":    paths.Humidity,
		"illuminance": paths.Illuminance,
		"gas":         paths.GasRaw,
	} {
		if p == "" {
			return nil, fmt.Errorf("sensor %s: path not configured", name)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("sensor %s: %w", name, err)
		}
	}
	return &SysfsReader{paths: paths, adc: adc}, nil
}

// ReadTemperatureHumidity reads both climate attributes.
func (r *SysfsReader) ReadTemperatureHumidity() (float64, float64, error) {
	milliC, err := readNumber(r.paths.Temperature)
	if err != nil {
		return 0, 0, fmt.Errorf("read temperature: %w", err)
	}
	milliRH, err := readNumber(r.paths.Humidity)
	if err != nil {
		return 0, 0, fmt.Errorf("read humidity: %w", err)
	}
	return milliC / 1000, milliRH / 1000, nil
}

// ReadIlluminance reads the light sensor, applying the IIO scale if configured.
func (r *SysfsReader) ReadIlluminance() (float64, error) {
	raw, err := readNumber(r.paths.Illuminance)
	if err != nil {
		return 0, fmt.Errorf("read illuminance: %w", err)
	}
	if r.paths.IlluminanceScale == "" {
		return raw, nil
	}
	scale, err := readNumber(r.paths.IlluminanceScale)
	if err != nil {
		return 0, fmt.Errorf("read illuminance scale: %w", err)
	}
	return raw * scale, nil
}

// ReadGasVoltage reads the ADC count and converts it to volts.
func (r *SysfsReader) ReadGasVoltage() (float32, error) {
	raw, err := readNumber(r.paths.GasRaw)
	if err != nil {
		return 0, fmt.Errorf("read gas adc: %w", err)
	}
	return r.adc.Voltage(int(raw)), nil
}

func readNumber(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
