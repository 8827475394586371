// Command smart-home runs the appliance controller: it reads the sensors,
// takes commands from the keypad, the voice module and MQTT, drives the
// actuators and the gas alarm, and reports telemetry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/config"
	"github.com/sweeney/smart-home/internal/control"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/display"
	"github.com/sweeney/smart-home/internal/gpio"
	"github.com/sweeney/smart-home/internal/logger"
	"github.com/sweeney/smart-home/internal/metrics"
	"github.com/sweeney/smart-home/internal/mqtt"
	"github.com/sweeney/smart-home/internal/sensor"
	"github.com/sweeney/smart-home/internal/status"
	"github.com/sweeney/smart-home/internal/telemetry"
	"github.com/sweeney/smart-home/internal/voice"
	"github.com/sweeney/smart-home/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yml (default: search ./configs and .)")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	printState := flag.Bool("print-state", false, "Read the sensors once, print them and exit")

	flag.Parse()

	if err := run(*configPath, *printConfig, *printState); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, printConfig, printState bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if printConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			return fmt.Errorf("dump config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	log := logger.Get(cfg.LogLevel)
	defer log.Sync()

	sensors, err := sensor.NewSysfsReader(sensor.Paths{
		Temperature:      cfg.Sensors.Temperature,
		Humidity:         cfg.Sensors.Humidity,
		Illuminance:      cfg.Sensors.Illuminance,
		IlluminanceScale: cfg.Sensors.IlluminanceScale,
		GasRaw:           cfg.Sensors.GasRaw,
	}, cfg.ADC())
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}

	if printState {
		return printReadings(os.Stdout, sensors)
	}

	gauge, err := calibrate(sensors, cfg.Alarm)
	if err != nil {
		return fmt.Errorf("calibrate gas sensor: %w", err)
	}
	log.Infow("gas sensor calibrated", "r0", float64(gauge.Baseline()))

	pins := cfg.GPIO.Pins()
	outputs, err := gpio.NewRealOutputs(cfg.GPIO.Chip, pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer outputs.Close()

	buzzer, closeBuzzer, err := openBuzzer(cfg)
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer closeBuzzer()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	events := dispatch.New(cfg.Control.QueueCapacity)

	tracker := status.NewTracker(time.Now(), status.Config{
		CycleMs:      cfg.Control.CycleTimeout.Milliseconds(),
		GasThreshold: float32(cfg.Alarm.ThresholdPPM),
		Broker:       cfg.MQTT.Broker,
		DeviceID:     cfg.MQTT.DeviceID,
		HTTPAddr:     cfg.HTTP.Addr,
	})
	defer tracker.Close()
	tracker.SetBaseline(float64(gauge.Baseline()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var link uplink = offline{}
	if cfg.MQTT.Broker != "" {
		handler := mqtt.NewCommandHandler(ctx, events, log.Named("mqtt"), m)
		pub, err := mqtt.NewRealPublisher(mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			DeviceID:       cfg.MQTT.DeviceID,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ServiceID:      cfg.MQTT.ServiceID,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
			PublishTimeout: cfg.MQTT.PublishTimeout,
			RetryAfter:     cfg.MQTT.RetryAfter,
			BacklogSize:    cfg.MQTT.Backlog,
		}, handler, log.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer pub.Close()
		link = pub
	} else {
		log.Infow("mqtt disabled, telemetry will not be sent")
	}

	deps := control.Deps{
		Events:    events,
		Sensors:   sensors,
		Actuators: outputs,
		Siren:     alarm.NewPlayer(buzzer, alarm.Sleep),
		Display:   display.Multi{display.NewLogRenderer(log.Named("display")), tracker},
		Network:   link,
		Alarm:     alarm.NewMachine(float32(cfg.Alarm.ThresholdPPM)),
		Gauge:     gauge,
		Metrics:   m,
		Recorder:  tracker,
		Log:       log.Named("control"),
	}

	if cfg.Voice.Device != "" {
		port, err := voice.Open(cfg.Voice.Device, cfg.Voice.Baud)
		if err != nil {
			log.Warnw("voice module unavailable", "device", cfg.Voice.Device, "err", err)
		} else {
			defer port.Close()
			deps.Voice = voice.NewReplier(port)
			receiver := voice.NewReceiver(port, events, log.Named("voice"), m)
			go func() {
				if err := receiver.Run(ctx); err != nil {
					log.Warnw("voice receiver stopped", "err", err)
				}
			}()
		}
	}

	keys, err := gpio.WatchKeys(cfg.GPIO.Chip, pins, cfg.GPIO.Debounce, keyHandler(ctx, events, log.Named("keys"), m))
	if err != nil {
		return fmt.Errorf("watch keys: %w", err)
	}
	defer keys.Close()

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, reg, log.Named("web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	loop := control.New(control.Config{
		CycleTimeout: cfg.Control.CycleTimeout,
		Auto:         cfg.AutoRules(),
	}, deps)

	log.Infow("started",
		"cycle", cfg.Control.CycleTimeout,
		"threshold_ppm", cfg.Alarm.ThresholdPPM,
		"broker", cfg.MQTT.Broker,
		"voice", cfg.Voice.Device,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return serve(ctx, cancel, loop, link, tracker, sigCh, time.Now, log)
}

// uplink is the MQTT side as seen by the daemon.
type uplink interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// offline stands in for MQTT when no broker is configured.
type offline struct{}

func (offline) Publish(telemetry.Report) error      { return nil }
func (offline) PublishSystem(mqtt.SystemEvent) error { return nil }
func (offline) Close() error                         { return nil }
func (offline) IsConnected() bool                    { return false }

// serve announces startup, runs the loop until a signal arrives or the loop
// fails, then announces shutdown. cancel stops the loop and every producer.
func serve(ctx context.Context, cancel context.CancelFunc, loop *control.Loop, link uplink, tracker *status.Tracker, sig <-chan os.Signal, now func() time.Time, log *logger.Logger) error {
	publishLifecycle(link, tracker, now, "STARTUP", "", log)

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var err error
	reason := ""
	select {
	case s := <-sig:
		reason = signalName(s)
		log.Infow("shutting down", "signal", s.String())
		cancel()
		err = <-done
	case err = <-done:
		reason = "LOOP_EXIT"
		cancel()
		if err != nil {
			err = fmt.Errorf("control loop: %w", err)
		}
	}

	publishLifecycle(link, tracker, now, "SHUTDOWN", reason, log)
	return err
}

func publishLifecycle(link uplink, tracker *status.Tracker, now func() time.Time, event, reason string, log *logger.Logger) {
	tracker.SetMQTTConnected(link.IsConnected())
	snap := tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := link.PublishSystem(e); err != nil {
		log.Warnw("failed to publish system event", "event", event, "err", err)
		return
	}
	log.Infow("published system event", "event", event, "reason", reason)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// keyHandler maps key presses onto dispatcher events. It runs on the GPIO
// event goroutine and blocks there while the queue is full.
func keyHandler(ctx context.Context, events *dispatch.Dispatcher, log *logger.Logger, m *metrics.Metrics) gpio.KeyHandler {
	return func(code command.KeyCode) {
		cmd, ok := command.FromKey(code)
		if !ok {
			log.Debugw("unknown key", "code", code)
			m.InputRejected(string(command.OriginKey))
			return
		}
		if err := events.Push(ctx, dispatch.Event{Origin: command.OriginKey, Command: cmd}); err != nil {
			log.Debugw("key press dropped", "command", cmd.String(), "err", err)
		}
	}
}

// calibrate takes one clean-air gas reading and fixes the sensor baseline.
func calibrate(r sensor.Reader, cfg config.AlarmConfig) (*alarm.Gauge, error) {
	v, err := r.ReadGasVoltage()
	if err != nil {
		return nil, err
	}
	baseline, err := alarm.Calibrate(v, cfg.LoadResistance, cfg.CalibrationPPM)
	if err != nil {
		return nil, err
	}
	return alarm.NewGauge(baseline, cfg.LoadResistance), nil
}

// openBuzzer returns the configured buzzer driver and its release func.
func openBuzzer(cfg config.Config) (alarm.Buzzer, func() error, error) {
	switch cfg.Alarm.Buzzer {
	case config.BuzzerPWM:
		b, err := gpio.NewPWMBuzzer(cfg.Alarm.PWMDir)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.BuzzerNone:
		return silentBuzzer{}, func() error { return nil }, nil
	default:
		b, err := gpio.NewLineBuzzer(cfg.GPIO.Chip, cfg.GPIO.Buzzer)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
}

type silentBuzzer struct{}

func (silentBuzzer) Start(uint) error { return nil }
func (silentBuzzer) Stop() error      { return nil }

// printReadings reads every sensor once.
func printReadings(w io.Writer, r sensor.Reader) error {
	temp, humi, err := r.ReadTemperatureHumidity()
	if err != nil {
		return fmt.Errorf("read climate: %w", err)
	}
	lux, err := r.ReadIlluminance()
	if err != nil {
		return fmt.Errorf("read illuminance: %w", err)
	}
	v, err := r.ReadGasVoltage()
	if err != nil {
		return fmt.Errorf("read gas: %w", err)
	}
	fmt.Fprintf(w, "Temperature: %.2fC, Humidity: %.2f%%, Illuminance: %.2flx, Gas: %.3fV\n", temp, humi, lux, v)
	return nil
}
