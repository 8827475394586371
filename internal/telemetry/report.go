// Package telemetry builds the outbound property report from device state
// and the current sensor snapshot.
package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/sweeney/smart-home/internal/device"
)

// DefaultServiceID is the service the appliance reports properties under.
const DefaultServiceID = "IntelligentCookpit"

// Report is one cycle's telemetry, already formatted for the cloud model.
type Report struct {
	Illumination string `json:"illumination"`
	Temperature  string `json:"temperature"`
	Humidity     string `json:"humidity"`
	Gas          string `json:"gas"`
	MotorStatus  string `json:"motorStatus"`
	LightStatus  string `json:"lightStatus"`
	AutoStatus   string `json:"autoStatus"`
	StatusText   string `json:"MqttTest,omitempty"`
}

// BuildReport formats state and snapshot. It has no side effects.
func BuildReport(state device.State, snap device.SensorSnapshot) Report {
	return Report{
		Illumination: fmt.Sprintf("%.2f", snap.IlluminanceLux),
		Temperature:  fmt.Sprintf("%.2f", snap.TemperatureC),
		Humidity:     fmt.Sprintf("%.2f", snap.HumidityPct),
		Gas:          fmt.Sprintf("%.3f", snap.GasPPM),
		MotorStatus:  device.OnOff(state.MotorOn),
		LightStatus:  device.OnOff(state.LightOn),
		AutoStatus:   device.OnOff(state.AutoMode),
		StatusText:   string(state.StatusText),
	}
}

// Payload is the property-report envelope.
type Payload struct {
	Services []Service `json:"services"`
}

// Service carries one service's properties.
type Service struct {
	ServiceID  string `json:"service_id"`
	Properties Report `json:"properties"`
}

// FormatPayload wraps r in the property-report envelope.
// An empty serviceID selects DefaultServiceID.
func FormatPayload(serviceID string, r Report) ([]byte, error) {
	if serviceID == "" {
		serviceID = DefaultServiceID
	}
	return json.Marshal(Payload{
		Services: []Service{{ServiceID: serviceID, Properties: r}},
	})
}
