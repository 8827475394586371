package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/sweeney/smart-home/internal/device"
)

func TestBuildReport(t *testing.T) {
	state := device.State{LightOn: true, MotorOn: false, AutoMode: false, NetworkConnected: true}
	snap := device.SensorSnapshot{TemperatureC: 25.5, HumidityPct: 60.0, IlluminanceLux: 300.0, GasPPM: 42.0}

	r := BuildReport(state, snap)

	checks := []struct {
		field, got, want string
	}{
		{"lightStatus", r.LightStatus, "ON"},
		{"motorStatus", r.MotorStatus, "OFF"},
		{"autoStatus", r.AutoStatus, "OFF"},
		{"temperature", r.Temperature, "25.50"},
		{"humidity", r.Humidity, "60.00"},
		{"illumination", r.Illumination, "300.00"},
		{"gas", r.Gas, "42.000"},
		{"MqttTest", r.StatusText, ""},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestBuildReportIsPure(t *testing.T) {
	state := device.State{AutoMode: true, StatusText: "A1"}
	snap := device.SensorSnapshot{TemperatureC: 3.14159, GasPPM: 0.0004}

	a := BuildReport(state, snap)
	b := BuildReport(state, snap)
	if a != b {
		t.Errorf("same inputs gave different reports: %+v vs %+v", a, b)
	}
	if a.Temperature != "3.14" {
		t.Errorf("temperature = %q, want 3.14", a.Temperature)
	}
	if a.Gas != "0.000" {
		t.Errorf("gas = %q, want 0.000", a.Gas)
	}
	if a.AutoStatus != "ON" || a.StatusText != "A1" {
		t.Errorf("auto/status = %q/%q, want ON/A1", a.AutoStatus, a.StatusText)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	r := BuildReport(
		device.State{LightOn: true},
		device.SensorSnapshot{TemperatureC: 25.5, HumidityPct: 60, IlluminanceLux: 300, GasPPM: 42},
	)
	data, err := FormatPayload("", r)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	want := `{"services":[{"service_id":"IntelligentCookpit","properties":{` +
		`"illumination":"300.00","temperature":"25.50","humidity":"60.00","gas":"42.000",` +
		`"motorStatus":"OFF","lightStatus":"ON","autoStatus":"OFF"}}]}`
	if string(data) != want {
		t.Errorf("payload mismatch\n got: %s\nwant: %s", data, want)
	}
}

func TestFormatPayloadIncludesStatusTextWhenSet(t *testing.T) {
	r := BuildReport(device.State{StatusText: "B3"}, device.SensorSnapshot{})
	data, err := FormatPayload("Kitchen", r)
	if err != nil {
		t.Fatal(err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Services) != 1 {
		t.Fatalf("services = %d, want 1", len(p.Services))
	}
	if p.Services[0].ServiceID != "Kitchen" {
		t.Errorf("service_id = %q, want Kitchen", p.Services[0].ServiceID)
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	props := raw["services"].([]any)[0].(map[string]any)["properties"].(map[string]any)
	if props["MqttTest"] != "B3" {
		t.Errorf("MqttTest = %v, want B3", props["MqttTest"])
	}
}
