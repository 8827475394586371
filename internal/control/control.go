// Package control runs the appliance's main loop: wait for a command, apply
// it, sample the sensors, check the gas alarm, refresh the display and send
// telemetry. The loop goroutine is the only writer of device state.
package control

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/device"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/logger"
	"github.com/sweeney/smart-home/internal/metrics"
	"github.com/sweeney/smart-home/internal/telemetry"
)

// EventSource yields the next queued command, or dispatch.ErrTimeout.
type EventSource interface {
	Wait(ctx context.Context, timeout time.Duration) (dispatch.Event, error)
}

// Sensors samples the environment.
type Sensors interface {
	ReadTemperatureHumidity() (float64, float64, error)
	ReadIlluminance() (float64, error)
	ReadGasVoltage() (float32, error)
}

// Actuators drives the light and the fan motor.
type Actuators interface {
	SetLight(on bool) error
	SetMotor(on bool) error
}

// Siren plays the alarm tone score. It blocks until the score finishes.
type Siren interface {
	Play(ctx context.Context) error
}

// VoiceReplier announces a reading on the voice module.
type VoiceReplier interface {
	Reply(m command.Metric, value float64) error
}

// Display draws the current state.
type Display interface {
	Render(state device.State, snap device.SensorSnapshot, connected bool)
}

// Network sends telemetry upstream.
type Network interface {
	IsConnected() bool
	Publish(report telemetry.Report) error
}

// Gauge converts the gas sensor voltage to ppm.
type Gauge interface {
	PPM(voltage float32) float32
}

// Recorder receives loop bookkeeping for the status page.
type Recorder interface {
	SetAlarm(state alarm.State, trips int)
	SetMenu(index int, item string)
	RecordCommand(origin command.Origin)
	RecordTimeout()
	RecordReport()
}

// Config tunes the loop.
type Config struct {
	// CycleTimeout bounds each wait for a command. Zero means dispatch.DefaultWait.
	CycleTimeout time.Duration
	// Auto holds the auto-mode thresholds.
	Auto AutoRules
}

// Deps are the loop's collaborators. Voice, Metrics, Recorder, Store and
// Now are optional.
type Deps struct {
	Events    EventSource
	Sensors   Sensors
	Actuators Actuators
	Siren     Siren
	Voice     VoiceReplier
	Display   Display
	Network   Network
	Alarm     *alarm.Machine
	Gauge     Gauge
	Store     *device.Store
	Metrics   *metrics.Metrics
	Recorder  Recorder
	Log       *logger.Logger
	Now       func() time.Time
}

// Loop is the control loop.
type Loop struct {
	cfg       Config
	events    EventSource
	sensors   Sensors
	actuators Actuators
	siren     Siren
	voice     VoiceReplier
	display   Display
	network   Network
	alarm     *alarm.Machine
	gauge     Gauge
	store     *device.Store
	metrics   *metrics.Metrics
	rec       Recorder
	log       *logger.Logger
	now       func() time.Time
	menu      Menu
}

// New builds a loop. The menu starts on the light entry.
func New(cfg Config, d Deps) *Loop {
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = dispatch.DefaultWait
	}
	l := &Loop{
		cfg:       cfg,
		events:    d.Events,
		sensors:   d.Sensors,
		actuators: d.Actuators,
		siren:     d.Siren,
		voice:     d.Voice,
		display:   d.Display,
		network:   d.Network,
		alarm:     d.Alarm,
		gauge:     d.Gauge,
		store:     d.Store,
		metrics:   d.Metrics,
		rec:       d.Recorder,
		log:       d.Log,
		now:       d.Now,
	}
	if l.store == nil {
		l.store = device.NewStore()
	}
	if l.rec == nil {
		l.rec = nopRecorder{}
	}
	if l.log == nil {
		l.log = logger.Nop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	l.rec.SetMenu(l.menu.Index(), l.menu.Selected().String())
	l.rec.SetAlarm(l.alarm.State(), l.alarm.Trips())
	return l
}

// State returns a copy of the current device state.
func (l *Loop) State() device.State {
	return l.store.State()
}

// Menu returns the current menu selection.
func (l *Loop) Menu() MenuItem {
	return l.menu.Selected()
}

// Run steps the loop until ctx is cancelled. It returns nil on shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Infow("control loop started", "cycle_timeout", l.cfg.CycleTimeout)
	for {
		if err := l.Step(ctx); err != nil {
			if ctx.Err() != nil {
				l.log.Infow("control loop stopped")
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration. A wait that times out still samples, evaluates
// and reports. The only error returned is ctx's.
func (l *Loop) Step(ctx context.Context) error {
	ev, err := l.events.Wait(ctx, l.cfg.CycleTimeout)
	var wrote written
	switch {
	case err == nil:
		if wrote, err = l.apply(ctx, ev); err != nil {
			return err
		}
	case errors.Is(err, dispatch.ErrTimeout):
		l.metrics.WaitTimedOut()
		l.rec.RecordTimeout()
	default:
		return err
	}

	start := l.now()
	snap, ok := l.sample()

	tripped, err := l.checkAlarm(ctx, snap.GasPPM)
	if err != nil {
		return err
	}

	l.applyAuto(snap, ok, wrote)

	connected := l.network.IsConnected()
	l.store.SetNetworkConnected(connected)
	state := l.store.State()
	report := telemetry.BuildReport(state, snap)
	l.display.Render(state, snap, connected)
	l.publish(connected, report)

	l.metrics.ObserveCycle(state, snap, tripped)
	l.metrics.CycleWork(float64(l.now().Sub(start)) / float64(time.Millisecond))
	return nil
}

// sampled records which sensors read cleanly this cycle.
type sampled struct {
	climate bool
	light   bool
	gas     bool
}

func (l *Loop) sample() (device.SensorSnapshot, sampled) {
	var snap device.SensorSnapshot
	var ok sampled

	temp, humi, err := l.sensors.ReadTemperatureHumidity()
	if err != nil {
		l.sensorFailed("climate", err)
		temp, humi = 0, 0
	} else {
		ok.climate = true
	}
	snap.TemperatureC, snap.HumidityPct = temp, humi

	lux, err := l.sensors.ReadIlluminance()
	if err != nil {
		l.sensorFailed("light", err)
		lux = 0
	} else {
		ok.light = true
	}
	snap.IlluminanceLux = lux

	v, err := l.sensors.ReadGasVoltage()
	if err != nil {
		l.sensorFailed("gas", err)
	} else {
		ok.gas = true
		snap.GasPPM = l.gauge.PPM(v)
	}
	return snap, ok
}

func (l *Loop) sensorFailed(name string, err error) {
	l.log.Warnw("sensor read failed", "sensor", name, "error", err)
	l.metrics.SensorFailed(name)
}

// checkAlarm feeds the reading to the alarm machine and plays the tone score
// on the first crossing. It reports whether the alarm is tripped.
func (l *Loop) checkAlarm(ctx context.Context, ppm float32) (bool, error) {
	action := l.alarm.Evaluate(ppm)
	l.rec.SetAlarm(l.alarm.State(), l.alarm.Trips())
	if action == alarm.ActionTrigger {
		l.log.Warnw("gas alarm", "ppm", ppm, "threshold", l.alarm.Threshold())
		l.metrics.AlarmTripped()
		if err := l.soundAlarm(ctx); err != nil {
			return true, err
		}
	}
	return l.alarm.State() == alarm.StateTripped, nil
}

// soundAlarm blocks for the whole score. Buzzer faults are logged; only
// cancellation is returned.
func (l *Loop) soundAlarm(ctx context.Context) error {
	if err := l.siren.Play(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Warnw("alarm playback failed", "error", err)
	}
	return nil
}

// applyAuto drives the actuators from readings while auto mode is on.
// Rules whose inputs failed to read this cycle are skipped, as are fields
// a command wrote this cycle.
func (l *Loop) applyAuto(snap device.SensorSnapshot, ok sampled, wrote written) {
	if !l.store.State().AutoMode {
		return
	}
	if ok.light && !wrote.light {
		if want := l.cfg.Auto.Light(snap); l.store.SetLight(want) {
			l.log.Infow("auto light", "on", want, "lux", snap.IlluminanceLux)
			l.driveLight(want)
		}
	}
	if ok.climate && !wrote.motor {
		if want := l.cfg.Auto.Fan(snap); l.store.SetMotor(want) {
			l.log.Infow("auto fan", "on", want, "temperature", snap.TemperatureC, "humidity", snap.HumidityPct)
			l.driveMotor(want)
		}
	}
}

func (l *Loop) publish(connected bool, report telemetry.Report) {
	if !connected {
		l.metrics.ReportPublished(metrics.ResultSkipped)
		return
	}
	if err := l.network.Publish(report); err != nil {
		l.log.Warnw("report publish failed", "error", err)
		l.metrics.ReportPublished(metrics.ResultFailed)
		return
	}
	l.metrics.ReportPublished(metrics.ResultSent)
	l.rec.RecordReport()
}

func (l *Loop) driveLight(on bool) {
	if err := l.actuators.SetLight(on); err != nil {
		l.log.Warnw("set light failed", "on", on, "error", err)
	}
}

func (l *Loop) driveMotor(on bool) {
	if err := l.actuators.SetMotor(on); err != nil {
		l.log.Warnw("set motor failed", "on", on, "error", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) SetAlarm(alarm.State, int)    {}
func (nopRecorder) SetMenu(int, string)          {}
func (nopRecorder) RecordCommand(command.Origin) {}
func (nopRecorder) RecordTimeout()               {}
func (nopRecorder) RecordReport()                {}
