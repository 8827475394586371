package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/smart-home/internal/device"
	"github.com/sweeney/smart-home/internal/display"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Device        DeviceJSON    `json:"device"`
	Sensors       SensorsJSON   `json:"sensors"`
	Alarm         AlarmJSON     `json:"alarm"`
	Menu          MenuJSON      `json:"menu"`
	Panel         display.Panel `json:"panel"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"counts"`
	Config        ConfigJSON    `json:"config"`
}

// DeviceJSON is the JSON representation of device state.
type DeviceJSON struct {
	Light      string `json:"light"`
	Motor      string `json:"motor"`
	Auto       string `json:"auto"`
	StatusText string `json:"status_text,omitempty"`
}

// SensorsJSON is the JSON representation of the last sensor snapshot.
type SensorsJSON struct {
	TemperatureC   float64 `json:"temperature_c"`
	HumidityPct    float64 `json:"humidity_pct"`
	IlluminanceLux float64 `json:"illuminance_lux"`
	GasPPM         float64 `json:"gas_ppm"`
}

// AlarmJSON reports the gas alarm.
type AlarmJSON struct {
	State     string  `json:"state"`
	Threshold float32 `json:"threshold_ppm"`
	Trips     int     `json:"trips"`
	Baseline  float64 `json:"baseline_r0"`
}

// MenuJSON reports the panel menu selection.
type MenuJSON struct {
	Index int    `json:"index"`
	Item  string `json:"item"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	DeviceID  string `json:"device_id"`
}

// CountsJSON is the JSON representation of running totals.
type CountsJSON struct {
	KeyCommands     int `json:"key_commands"`
	VoiceCommands   int `json:"voice_commands"`
	NetworkCommands int `json:"network_commands"`
	Timeouts        int `json:"timeouts"`
	Reports         int `json:"reports"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	CycleMs      int64   `json:"cycle_ms"`
	GasThreshold float32 `json:"gas_threshold_ppm"`
	Broker       string  `json:"broker"`
	HTTPAddr     string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Device: DeviceJSON{
			Light:      device.OnOff(snap.State.LightOn),
			Motor:      device.OnOff(snap.State.MotorOn),
			Auto:       device.OnOff(snap.State.AutoMode),
			StatusText: string(snap.State.StatusText),
		},
		Sensors: SensorsJSON{
			TemperatureC:   finite(snap.Sensors.TemperatureC),
			HumidityPct:    finite(snap.Sensors.HumidityPct),
			IlluminanceLux: finite(snap.Sensors.IlluminanceLux),
			GasPPM:         round3(float64(snap.Sensors.GasPPM)),
		},
		Alarm: AlarmJSON{
			State:     string(snap.Alarm),
			Threshold: snap.Config.GasThreshold,
			Trips:     snap.Counts.AlarmTrips,
			Baseline:  finite(snap.Baseline),
		},
		Menu:          MenuJSON{Index: snap.MenuIndex, Item: snap.MenuItem},
		Panel:         display.Build(snap.State, snap.Sensors, snap.MQTTConnected),
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			DeviceID:  snap.Config.DeviceID,
		},
		Counts: CountsJSON{
			KeyCommands:     snap.Counts.KeyCommands,
			VoiceCommands:   snap.Counts.VoiceCommands,
			NetworkCommands: snap.Counts.NetworkCommands,
			Timeouts:        snap.Counts.Timeouts,
			Reports:         snap.Counts.Reports,
		},
		Config: ConfigJSON{
			CycleMs:      snap.Config.CycleMs,
			GasThreshold: snap.Config.GasThreshold,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
}

// round3 keeps float32 noise out of the JSON (12.345000267 -> 12.345).
func round3(v float64) float64 {
	return finite(math.Round(v*1000) / 1000)
}

// finite clamps values encoding/json cannot represent. A saturated gas
// reading comes out of the sensor curve as +Inf.
func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat32
	case math.IsInf(v, -1):
		return -math.MaxFloat32
	}
	return v
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
