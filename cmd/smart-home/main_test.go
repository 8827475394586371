package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/config"
	"github.com/sweeney/smart-home/internal/control"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/gpio"
	"github.com/sweeney/smart-home/internal/logger"
	"github.com/sweeney/smart-home/internal/mqtt"
	"github.com/sweeney/smart-home/internal/sensor"
	"github.com/sweeney/smart-home/internal/status"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type daemon struct {
	events  *dispatch.Dispatcher
	sensors *sensor.FakeReader
	outputs *gpio.FakeOutputs
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	loop    *control.Loop
}

func newDaemon(t *testing.T) *daemon {
	t.Helper()
	d := &daemon{
		events:  dispatch.New(4),
		sensors: sensor.NewFakeReader(sensor.Sample{TemperatureC: 21, HumidityPct: 40, IlluminanceLux: 200, GasVoltage: 1.0}),
		outputs: gpio.NewFakeOutputs(),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{DeviceID: "test"}),
	}
	t.Cleanup(d.tracker.Close)
	d.pub.Connected = true

	gauge, err := calibrate(d.sensors, config.AlarmConfig{})
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	d.loop = control.New(control.Config{CycleTimeout: 5 * time.Millisecond, Auto: control.DefaultAutoRules()}, control.Deps{
		Events:    d.events,
		Sensors:   d.sensors,
		Actuators: d.outputs,
		Siren:     alarm.NewPlayer(&alarm.FakeBuzzer{}, func(context.Context, time.Duration) error { return nil }),
		Display:   d.tracker,
		Network:   d.pub,
		Alarm:     alarm.NewMachine(alarm.DefaultThreshold),
		Gauge:     gauge,
		Recorder:  d.tracker,
	})
	return d
}

func systemEventNames(pub *mqtt.FakePublisher) []string {
	var names []string
	for _, e := range pub.SystemEvents {
		names = append(names, e.Event)
	}
	return names
}

func TestServeShutdownOnSignal(t *testing.T) {
	for _, tt := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			d := newDaemon(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sig := make(chan os.Signal, 1)

			done := make(chan error, 1)
			go func() {
				done <- serve(ctx, cancel, d.loop, d.pub, d.tracker, sig, fixedClock(time.Now()), logger.Nop())
			}()

			time.Sleep(30 * time.Millisecond)
			sig <- tt.sig

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("serve = %v, want nil", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("serve did not return after signal")
			}

			names := systemEventNames(d.pub)
			if len(names) != 2 || names[0] != "STARTUP" || names[1] != "SHUTDOWN" {
				t.Fatalf("system events = %v, want [STARTUP SHUTDOWN]", names)
			}
			shutdown := d.pub.SystemEvents[1]
			if shutdown.Reason != tt.want || !shutdown.Retained {
				t.Errorf("shutdown = %+v, want retained with reason %s", shutdown, tt.want)
			}

			var payload status.StatusJSON
			if err := json.Unmarshal(d.pub.SystemPayloads[1], &payload); err != nil {
				t.Fatalf("shutdown payload: %v", err)
			}
			if payload.Status.Event != "SHUTDOWN" || payload.Status.Reason != tt.want {
				t.Errorf("payload event=%q reason=%q", payload.Status.Event, payload.Status.Reason)
			}
			if len(d.pub.Reports) == 0 {
				t.Error("loop published no reports while running")
			}
		})
	}
}

func TestServeAppliesQueuedCommands(t *testing.T) {
	d := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)

	handler := keyHandler(ctx, d.events, logger.Nop(), nil)
	handler(command.KeyCodeDown)

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cancel, d.loop, d.pub, d.tracker, sig, time.Now, logger.Nop())
	}()

	deadline := time.After(2 * time.Second)
	for !d.tracker.Snapshot().State.LightOn {
		select {
		case <-deadline:
			t.Fatal("KeyDown never switched the light on")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("serve = %v", err)
	}
	if !d.outputs.Light {
		t.Error("light output should be on")
	}
}

func TestServeOffline(t *testing.T) {
	d := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGINT

	if err := serve(ctx, cancel, d.loop, offline{}, d.tracker, sig, time.Now, logger.Nop()); err != nil {
		t.Fatalf("serve = %v", err)
	}
	if d.tracker.Snapshot().MQTTConnected {
		t.Error("tracker should show MQTT disconnected")
	}
}

func TestServeSystemPublishFailure(t *testing.T) {
	d := newDaemon(t)
	d.pub.PublishSystemError = errors.New("broker down")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM

	if err := serve(ctx, cancel, d.loop, d.pub, d.tracker, sig, time.Now, logger.Nop()); err != nil {
		t.Errorf("serve = %v, want nil despite publish failure", err)
	}
}

func TestKeyHandlerRejectsUnknownCode(t *testing.T) {
	events := dispatch.New(1)
	handler := keyHandler(context.Background(), events, logger.Nop(), nil)

	handler(command.KeyCode(99))
	if events.Len() != 0 {
		t.Errorf("queue length = %d, want 0", events.Len())
	}

	handler(command.KeyCodeLeft)
	ev, err := events.Wait(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ev.Origin != command.OriginKey || ev.Command != command.KeyLeft {
		t.Errorf("event = %+v, want key KeyLeft", ev)
	}
}

func TestKeyHandlerGivesUpOnCancel(t *testing.T) {
	events := dispatch.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	handler := keyHandler(ctx, events, logger.Nop(), nil)

	handler(command.KeyCodeUp)
	cancel()

	returned := make(chan struct{})
	go func() {
		handler(command.KeyCodeDown)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on a full queue after cancel")
	}
}

func TestKeyHandlerBlocksWhileQueueFull(t *testing.T) {
	events := dispatch.New(1)
	handler := keyHandler(context.Background(), events, logger.Nop(), nil)
	handler(command.KeyCodeUp)

	returned := make(chan struct{})
	go func() {
		handler(command.KeyCodeDown)
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("handler returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := events.Wait(context.Background(), time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("handler still blocked after the queue drained")
	}
	ev, err := events.Wait(context.Background(), time.Second)
	if err != nil || ev.Command != command.KeyDown {
		t.Errorf("queued event = %+v, %v; want KeyDown", ev, err)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT = %q", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM = %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP = %q, want UNKNOWN", got)
	}
}

func TestCalibrate(t *testing.T) {
	r := sensor.NewFakeReader(sensor.Sample{GasVoltage: 1.2})
	gauge, err := calibrate(r, config.AlarmConfig{})
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if got := gauge.PPM(1.2); got < 19.99 || got > 20.01 {
		t.Errorf("PPM at calibration voltage = %v, want 20", got)
	}

	bad := sensor.NewFakeReader(sensor.Sample{GasVoltage: 0})
	if _, err := calibrate(bad, config.AlarmConfig{}); !errors.Is(err, alarm.ErrCalibrationVoltage) {
		t.Errorf("err = %v, want ErrCalibrationVoltage", err)
	}

	broken := sensor.NewFakeReader(sensor.Sample{})
	broken.GasError = errors.New("adc gone")
	if _, err := calibrate(broken, config.AlarmConfig{}); err == nil {
		t.Error("expected read error")
	}
}

func TestOpenBuzzerNone(t *testing.T) {
	cfg := config.Config{Alarm: config.AlarmConfig{Buzzer: config.BuzzerNone}}
	b, closeFn, err := openBuzzer(cfg)
	if err != nil {
		t.Fatalf("openBuzzer: %v", err)
	}
	if err := b.Start(4000); err != nil {
		t.Errorf("Start: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestPrintReadings(t *testing.T) {
	r := sensor.NewFakeReader(sensor.Sample{TemperatureC: 25.5, HumidityPct: 60, IlluminanceLux: 300, GasVoltage: 1.65})
	var buf bytes.Buffer
	if err := printReadings(&buf, r); err != nil {
		t.Fatalf("printReadings: %v", err)
	}
	want := "Temperature: 25.50C, Humidity: 60.00%, Illuminance: 300.00lx, Gas: 1.650V\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	r.ClimateError = errors.New("crc")
	if err := printReadings(&buf, r); err == nil || !strings.Contains(err.Error(), "climate") {
		t.Errorf("err = %v, want climate read error", err)
	}
}
