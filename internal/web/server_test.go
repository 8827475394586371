package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/device"
	"github.com/sweeney/smart-home/internal/logger"
	"github.com/sweeney/smart-home/internal/metrics"
	"github.com/sweeney/smart-home/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *metrics.Metrics) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		CycleMs:      3000,
		GasThreshold: 100,
		Broker:       "tcp://192.168.1.200:1883",
		DeviceID:     "dev-42",
		HTTPAddr:     ":80",
	}
	tr := status.NewTracker(start, cfg)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := New(":0", tr, reg, logger.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		tr.Close()
	})
	return ts, tr, m
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Render(
		device.State{LightOn: true, StatusText: device.NewStatusText("away")},
		device.SensorSnapshot{TemperatureC: 21, HumidityPct: 40, IlluminanceLux: 90, GasPPM: 4},
		true,
	)
	tr.RecordCommand(command.OriginNetwork)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Device.Light != "ON" {
		t.Errorf("Device.Light: got %q, want ON", sj.Status.Device.Light)
	}
	if sj.Status.Device.StatusText != "away" {
		t.Errorf("Device.StatusText: got %q, want away", sj.Status.Device.StatusText)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.NetworkCommands != 1 {
		t.Errorf("Counts.NetworkCommands: got %d, want 1", sj.Status.Counts.NetworkCommands)
	}
	if sj.Status.Config.CycleMs != 3000 {
		t.Errorf("Config.CycleMs: got %d, want 3000", sj.Status.Config.CycleMs)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Render(device.State{MotorOn: true}, device.SensorSnapshot{TemperatureC: 37}, false)
	tr.SetAlarm(alarm.StateTripped, 1)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"dev-42", "37.0C", `class="high"`, "TRIPPED (1 trips)"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.ObserveCycle(device.State{LightOn: true}, device.SensorSnapshot{TemperatureC: 19.5}, false)
	m.CommandApplied("key", "KEY_DOWN")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"smarthome_temperature_celsius 19.5",
		`smarthome_commands_total{kind="KEY_DOWN",origin="key"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNoMetricsWithoutGatherer(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	defer tr.Close()
	ts := httptest.NewServer(New(":0", tr, nil, logger.Nop()).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	sj1 := getStatus(t, ts.URL)
	if sj1.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.Render(device.State{MotorOn: true}, device.SensorSnapshot{}, true)

	sj2 := getStatus(t, ts.URL)
	if !sj2.Status.Ready {
		t.Error("expected Ready=true after first frame")
	}
	if sj2.Status.Device.Motor != "ON" {
		t.Errorf("Device.Motor: got %q, want ON", sj2.Status.Device.Motor)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) status.StatusJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read ws: %v", err)
	}
	if env.Type != TypeStatus {
		t.Fatalf("envelope type: got %q, want %q", env.Type, TypeStatus)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(env.Data, &sj); err != nil {
		t.Fatalf("decode envelope data: %v", err)
	}
	return sj
}

func TestWebsocketStreamsFrames(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readEnvelope(t, conn)
	if first.Status.Ready {
		t.Error("initial frame should not be ready")
	}

	// The handler subscribes before sending the initial frame, so this
	// render is delivered.
	tr.Render(device.State{AutoMode: true}, device.SensorSnapshot{HumidityPct: 88}, false)

	next := readEnvelope(t, conn)
	if next.Status.Device.Auto != "ON" {
		t.Errorf("Device.Auto: got %q, want ON", next.Status.Device.Auto)
	}
	if next.Status.Sensors.HumidityPct != 88 {
		t.Errorf("HumidityPct: got %v, want 88", next.Status.Sensors.HumidityPct)
	}
}
