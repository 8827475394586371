// Package sensor reads the environmental sensors with hardware abstraction.
// The sysfs implementation reads Linux hwmon/IIO attribute files.
// The fake implementation allows testing without hardware.
package sensor

// Reader samples every sensor the controller needs.
type Reader interface {
	// ReadTemperatureHumidity returns °C and %RH.
	ReadTemperatureHumidity() (float64, float64, error)
	// ReadIlluminance returns lux.
	ReadIlluminance() (float64, error)
	// ReadGasVoltage returns the gas sensor divider voltage.
	ReadGasVoltage() (float32, error)
}
