// Package config loads daemon settings from configs/config.yml, applying
// defaults and SMARTHOME_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/control"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/gpio"
	"github.com/sweeney/smart-home/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. SMARTHOME_MQTT_BROKER.
const EnvPrefix = "SMARTHOME"

// Buzzer drivers.
const (
	BuzzerGPIO = "gpio"
	BuzzerPWM  = "pwm"
	BuzzerNone = "none"
)

// Config is the full daemon configuration.
type Config struct {
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
	Control  ControlConfig `mapstructure:"control" yaml:"control"`
	Alarm    AlarmConfig   `mapstructure:"alarm" yaml:"alarm"`
	GPIO     GPIOConfig    `mapstructure:"gpio" yaml:"gpio"`
	Sensors  SensorConfig  `mapstructure:"sensors" yaml:"sensors"`
	Voice    VoiceConfig   `mapstructure:"voice" yaml:"voice"`
	MQTT     MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
	HTTP     HTTPConfig    `mapstructure:"http" yaml:"http"`
}

type ControlConfig struct {
	CycleTimeout       time.Duration `mapstructure:"cycle_timeout" yaml:"cycle_timeout"`
	QueueCapacity      int           `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	AutoLightBelowLux  float64       `mapstructure:"auto_light_below_lux" yaml:"auto_light_below_lux"`
	AutoFanAboveTempC  float64       `mapstructure:"auto_fan_above_temp_c" yaml:"auto_fan_above_temp_c"`
	AutoFanAboveHumPct float64       `mapstructure:"auto_fan_above_humidity_pct" yaml:"auto_fan_above_humidity_pct"`
}

type AlarmConfig struct {
	ThresholdPPM   float64 `mapstructure:"threshold_ppm" yaml:"threshold_ppm"`
	LoadResistance float64 `mapstructure:"load_resistance" yaml:"load_resistance"`
	CalibrationPPM float64 `mapstructure:"calibration_ppm" yaml:"calibration_ppm"`
	ADCVRef        float64 `mapstructure:"adc_vref" yaml:"adc_vref"`
	ADCResolution  int     `mapstructure:"adc_resolution" yaml:"adc_resolution"`
	// Buzzer selects the driver: gpio (on/off line), pwm (sysfs PWM) or none.
	Buzzer string `mapstructure:"buzzer" yaml:"buzzer"`
	PWMDir string `mapstructure:"pwm_dir" yaml:"pwm_dir"`
}

type GPIOConfig struct {
	Chip     string        `mapstructure:"chip" yaml:"chip"`
	Light    int           `mapstructure:"light" yaml:"light"`
	Motor    int           `mapstructure:"motor" yaml:"motor"`
	Buzzer   int           `mapstructure:"buzzer" yaml:"buzzer"`
	KeyUp    int           `mapstructure:"key_up" yaml:"key_up"`
	KeyDown  int           `mapstructure:"key_down" yaml:"key_down"`
	KeyLeft  int           `mapstructure:"key_left" yaml:"key_left"`
	KeyRight int           `mapstructure:"key_right" yaml:"key_right"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Pins converts the line numbers to gpio.Pins.
func (g GPIOConfig) Pins() gpio.Pins {
	return gpio.Pins{
		Light:    g.Light,
		Motor:    g.Motor,
		Buzzer:   g.Buzzer,
		KeyUp:    g.KeyUp,
		KeyDown:  g.KeyDown,
		KeyLeft:  g.KeyLeft,
		KeyRight: g.KeyRight,
	}
}

type SensorConfig struct {
	Temperature      string `mapstructure:"temperature" yaml:"temperature"`
	Humidity         string `mapstructure:"humidity" yaml:"humidity"`
	Illuminance      string `mapstructure:"illuminance" yaml:"illuminance"`
	IlluminanceScale string `mapstructure:"illuminance_scale" yaml:"illuminance_scale"`
	GasRaw           string `mapstructure:"gas_raw" yaml:"gas_raw"`
}

// VoiceConfig configures the voice module UART. An empty Device disables it.
type VoiceConfig struct {
	Device string `mapstructure:"device" yaml:"device"`
	Baud   int    `mapstructure:"baud" yaml:"baud"`
}

// MQTTConfig configures the cloud link. An empty Broker disables it.
type MQTTConfig struct {
	Broker         string        `mapstructure:"broker" yaml:"broker"`
	DeviceID       string        `mapstructure:"device_id" yaml:"device_id"`
	ClientID       string        `mapstructure:"client_id" yaml:"client_id"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	ServiceID      string        `mapstructure:"service_id" yaml:"service_id"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" yaml:"publish_timeout"`
	RetryAfter     time.Duration `mapstructure:"retry_after" yaml:"retry_after"`
	Backlog        int           `mapstructure:"backlog" yaml:"backlog"`
}

// HTTPConfig configures the status server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

func setDefaults(v *viper.Viper) {
	pins := gpio.DefaultPins()
	auto := control.DefaultAutoRules()

	v.SetDefault("log_level", "info")

	v.SetDefault("control.cycle_timeout", dispatch.DefaultWait)
	v.SetDefault("control.queue_capacity", dispatch.DefaultCapacity)
	v.SetDefault("control.auto_light_below_lux", auto.LightBelowLux)
	v.SetDefault("control.auto_fan_above_temp_c", auto.FanAboveTempC)
	v.SetDefault("control.auto_fan_above_humidity_pct", auto.FanAboveHumPct)

	v.SetDefault("alarm.threshold_ppm", float64(alarm.DefaultThreshold))
	v.SetDefault("alarm.load_resistance", alarm.DefaultLoadResistance)
	v.SetDefault("alarm.calibration_ppm", alarm.DefaultCalibrationPPM)
	v.SetDefault("alarm.adc_vref", alarm.DefaultADC.VRef)
	v.SetDefault("alarm.adc_resolution", alarm.DefaultADC.Resolution)
	v.SetDefault("alarm.buzzer", BuzzerGPIO)
	v.SetDefault("alarm.pwm_dir", "/sys/class/pwm/pwmchip0/pwm0")

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.light", pins.Light)
	v.SetDefault("gpio.motor", pins.Motor)
	v.SetDefault("gpio.buzzer", pins.Buzzer)
	v.SetDefault("gpio.key_up", pins.KeyUp)
	v.SetDefault("gpio.key_down", pins.KeyDown)
	v.SetDefault("gpio.key_left", pins.KeyLeft)
	v.SetDefault("gpio.key_right", pins.KeyRight)
	v.SetDefault("gpio.debounce", 20*time.Millisecond)

	v.SetDefault("sensors.temperature", "/sys/class/hwmon/hwmon0/temp1_input")
	v.SetDefault("sensors.humidity", "/sys/class/hwmon/hwmon0/humidity1_input")
	v.SetDefault("sensors.illuminance", "/sys/bus/iio/devices/iio:device0/in_illuminance_raw")
	v.SetDefault("sensors.illuminance_scale", "")
	v.SetDefault("sensors.gas_raw", "/sys/bus/iio/devices/iio:device1/in_voltage4_raw")

	v.SetDefault("voice.device", "/dev/ttyS1")
	v.SetDefault("voice.baud", 9600)

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.device_id", "smart-home")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.service_id", telemetry.DefaultServiceID)
	v.SetDefault("mqtt.connect_timeout", 10*time.Second)
	v.SetDefault("mqtt.publish_timeout", 5*time.Second)
	v.SetDefault("mqtt.retry_after", 30*time.Second)
	v.SetDefault("mqtt.backlog", 8)

	v.SetDefault("http.addr", ":80")
}

// Load reads the config file at path. An empty path searches ./configs and
// the working directory for config.yml and falls back to defaults if none
// exists. Environment variables override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Control.CycleTimeout <= 0:
		return errors.New("config: control.cycle_timeout must be positive")
	case c.Control.QueueCapacity <= 0:
		return errors.New("config: control.queue_capacity must be positive")
	case c.Alarm.ThresholdPPM <= 0:
		return errors.New("config: alarm.threshold_ppm must be positive")
	case c.Alarm.ADCResolution <= 0:
		return errors.New("config: alarm.adc_resolution must be positive")
	case c.GPIO.Debounce < 0:
		return errors.New("config: gpio.debounce must not be negative")
	case c.MQTT.Broker != "" && c.MQTT.DeviceID == "":
		return errors.New("config: mqtt.device_id is required when a broker is set")
	}
	switch c.Alarm.Buzzer {
	case BuzzerGPIO, BuzzerPWM, BuzzerNone:
	default:
		return fmt.Errorf("config: unknown alarm.buzzer %q", c.Alarm.Buzzer)
	}
	return nil
}

// AutoRules returns the auto-mode thresholds.
func (c Config) AutoRules() control.AutoRules {
	return control.AutoRules{
		LightBelowLux:  c.Control.AutoLightBelowLux,
		FanAboveTempC:  c.Control.AutoFanAboveTempC,
		FanAboveHumPct: c.Control.AutoFanAboveHumPct,
	}
}

// ADC returns the gas sensor converter settings.
func (c Config) ADC() alarm.ADC {
	return alarm.ADC{VRef: c.Alarm.ADCVRef, Resolution: c.Alarm.ADCResolution}
}

// Dump renders the effective configuration as YAML with secrets masked.
func Dump(c Config) ([]byte, error) {
	if c.MQTT.Password != "" {
		c.MQTT.Password = "********"
	}
	return yaml.Marshal(c)
}
