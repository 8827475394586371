package display

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/smart-home/internal/device"
	"github.com/sweeney/smart-home/internal/logger"
)

func TestBuild(t *testing.T) {
	state := device.State{LightOn: true, AutoMode: true, StatusText: device.NewStatusText("dinner")}
	snap := device.SensorSnapshot{TemperatureC: 36.2, HumidityPct: 55, IlluminanceLux: 321.4, GasPPM: 7.25}

	p := Build(state, snap, true)

	if p.Temperature != "36.2C" || p.Humidity != "55.0%" || p.Illuminance != "321lx" {
		t.Errorf("readings = %q %q %q", p.Temperature, p.Humidity, p.Illuminance)
	}
	if p.Gas != "7.2ppm" && p.Gas != "7.3ppm" {
		t.Errorf("gas = %q", p.Gas)
	}
	if p.Light != "ON" || p.Motor != "OFF" {
		t.Errorf("actuators = %s %s", p.Light, p.Motor)
	}
	if p.Mode != "AUTO" || p.Network != "ONLINE" || p.Status != "dinner" {
		t.Errorf("mode/network/status = %s %s %s", p.Mode, p.Network, p.Status)
	}
	if !p.TempHigh {
		t.Error("36.2C should flag high temperature")
	}
}

func TestBuildDefaults(t *testing.T) {
	p := Build(device.State{}, device.SensorSnapshot{TemperatureC: 35}, false)
	if p.TempHigh {
		t.Error("35C exactly is not high")
	}
	if p.Mode != "MANUAL" || p.Network != "OFFLINE" || p.Status != "--" {
		t.Errorf("defaults = %s %s %s", p.Mode, p.Network, p.Status)
	}
}

func TestLines(t *testing.T) {
	p := Build(device.State{}, device.SensorSnapshot{TemperatureC: 40}, false)
	lines := p.Lines()
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(lines))
	}
	if !strings.Contains(lines[0], "HIGH") {
		t.Errorf("first line %q should carry HIGH", lines[0])
	}
	if lines[4] != "msg --" {
		t.Errorf("status line = %q", lines[4])
	}
}

func TestLogRendererLogsOnChange(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewLogRenderer(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	state := device.State{}
	snap := device.SensorSnapshot{TemperatureC: 20}
	r.Render(state, snap, false)
	r.Render(state, snap, false)
	if logs.Len() != 1 {
		t.Fatalf("logs = %d after identical frames, want 1", logs.Len())
	}

	state.LightOn = true
	r.Render(state, snap, false)
	if logs.Len() != 2 {
		t.Errorf("logs = %d after change, want 2", logs.Len())
	}
}

func TestMulti(t *testing.T) {
	a, b := &FakeRenderer{}, &FakeRenderer{}
	Multi{a, b}.Render(device.State{MotorOn: true}, device.SensorSnapshot{}, true)

	for i, f := range []*FakeRenderer{a, b} {
		last, ok := f.Last()
		if !ok || !last.State.MotorOn || !last.Connected {
			t.Errorf("renderer %d got %+v, %v", i, last, ok)
		}
	}
}
