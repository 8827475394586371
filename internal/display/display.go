// Package display models the on-device panel and renders it.
package display

import (
	"fmt"
	"sync"

	"github.com/sweeney/smart-home/internal/device"
	"github.com/sweeney/smart-home/internal/logger"
)

// TempHighC is the temperature above which the panel flags a warning.
const TempHighC = 35.0

// Renderer draws one frame of device state.
type Renderer interface {
	Render(state device.State, snap device.SensorSnapshot, connected bool)
}

// Panel is the text content of one frame.
type Panel struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Illuminance string `json:"illuminance"`
	Gas         string `json:"gas"`
	Light       string `json:"light"`
	Motor       string `json:"motor"`
	Mode        string `json:"mode"`
	Network     string `json:"network"`
	Status      string `json:"status"`
	TempHigh    bool   `json:"temp_high"`
}

// Build lays out a frame.
func Build(state device.State, snap device.SensorSnapshot, connected bool) Panel {
	p := Panel{
		Temperature: fmt.Sprintf("%.1fC", snap.TemperatureC),
		Humidity:    fmt.Sprintf("%.1f%%", snap.HumidityPct),
		Illuminance: fmt.Sprintf("%.0flx", snap.IlluminanceLux),
		Gas:         fmt.Sprintf("%.1fppm", snap.GasPPM),
		Light:       device.OnOff(state.LightOn),
		Motor:       device.OnOff(state.MotorOn),
		Mode:        "MANUAL",
		Network:     "OFFLINE",
		Status:      "--",
		TempHigh:    snap.TemperatureC > TempHighC,
	}
	if state.AutoMode {
		p.Mode = "AUTO"
	}
	if connected {
		p.Network = "ONLINE"
	}
	if state.StatusText.IsSet() {
		p.Status = string(state.StatusText)
	}
	return p
}

// Lines returns the panel as display rows.
func (p Panel) Lines() []string {
	temp := "T " + p.Temperature
	if p.TempHigh {
		temp += " HIGH"
	}
	return []string{
		temp + "  H " + p.Humidity,
		"L " + p.Illuminance + "  G " + p.Gas,
		"light " + p.Light + "  fan " + p.Motor,
		p.Mode + "  " + p.Network,
		"msg " + p.Status,
	}
}

// LogRenderer writes the panel to the log whenever its content changes.
type LogRenderer struct {
	log *logger.Logger

	mu   sync.Mutex
	last Panel
	seen bool
}

// NewLogRenderer creates a renderer that logs through log.
func NewLogRenderer(log *logger.Logger) *LogRenderer {
	return &LogRenderer{log: log}
}

// Render logs the frame unless it matches the previous one.
func (r *LogRenderer) Render(state device.State, snap device.SensorSnapshot, connected bool) {
	p := Build(state, snap, connected)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen && p == r.last {
		return
	}
	r.last, r.seen = p, true
	r.log.Infow("panel",
		"temperature", p.Temperature,
		"humidity", p.Humidity,
		"illuminance", p.Illuminance,
		"gas", p.Gas,
		"light", p.Light,
		"motor", p.Motor,
		"mode", p.Mode,
		"network", p.Network,
		"status", p.Status,
		"temp_high", p.TempHigh,
	)
}

// Multi renders to several renderers in order.
type Multi []Renderer

// Render forwards the frame to every renderer.
func (m Multi) Render(state device.State, snap device.SensorSnapshot, connected bool) {
	for _, r := range m {
		r.Render(state, snap, connected)
	}
}

// Frame is one recorded render call.
type Frame struct {
	State     device.State
	Snapshot  device.SensorSnapshot
	Connected bool
}

// FakeRenderer is a test double that records frames.
type FakeRenderer struct {
	Frames []Frame
}

// Render records the frame.
func (f *FakeRenderer) Render(state device.State, snap device.SensorSnapshot, connected bool) {
	f.Frames = append(f.Frames, Frame{State: state, Snapshot: snap, Connected: connected})
}

// Last returns the most recent frame.
func (f *FakeRenderer) Last() (Frame, bool) {
	if len(f.Frames) == 0 {
		return Frame{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}
