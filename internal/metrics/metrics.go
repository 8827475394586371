// Package metrics exposes controller state and activity as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/smart-home/internal/device"
)

const namespace = "smarthome"

// Metrics groups every collector the controller updates. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	illuminance prometheus.Gauge
	gas         prometheus.Gauge

	actuator  *prometheus.GaugeVec
	connected prometheus.Gauge
	alarm     prometheus.Gauge

	commands        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	alarmTrips      prometheus.Counter
	publishes       *prometheus.CounterVec
	waitTimeouts    prometheus.Counter
	sensorErrors    *prometheus.CounterVec
	cycleDurationMs prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "temperature_celsius",
			Help: "Last sampled temperature",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "humidity_percent",
			Help: "Last sampled relative humidity",
		}),
		illuminance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "illuminance_lux",
			Help: "Last sampled illuminance",
		}),
		gas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "gas_ppm",
			Help: "Last computed gas concentration",
		}),
		actuator: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "actuator_on",
			Help: "1 if the actuator or mode is on",
		}, []string{"actuator"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "network_connected",
			Help: "1 if the cloud link was up this cycle",
		}),
		alarm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "alarm_tripped",
			Help: "1 while the gas alarm is tripped",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total",
			Help: "Commands applied by origin and kind",
		}, []string{"origin", "kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rejected_inputs_total",
			Help: "Raw inputs that normalized to no command",
		}, []string{"origin"}),
		alarmTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "alarm_trips_total",
			Help: "Gas alarm trip transitions",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "report_publishes_total",
			Help: "Telemetry reports by outcome",
		}, []string{"result"}),
		waitTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "wait_timeouts_total",
			Help: "Control cycles that ran without a command",
		}),
		sensorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sensor_errors_total",
			Help: "Failed sensor reads by sensor",
		}, []string{"sensor"}),
		cycleDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "cycle_work_milliseconds",
			Help:    "Time spent in a control cycle after the wait returned",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		}),
	}

	reg.MustRegister(
		m.temperature, m.humidity, m.illuminance, m.gas,
		m.actuator, m.connected, m.alarm,
		m.commands, m.rejected, m.alarmTrips, m.publishes,
		m.waitTimeouts, m.sensorErrors, m.cycleDurationMs,
	)
	return m
}

// Publish outcomes.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// ObserveCycle records the state at the end of a cycle.
func (m *Metrics) ObserveCycle(state device.State, snap device.SensorSnapshot, tripped bool) {
	if m == nil {
		return
	}
	m.temperature.Set(snap.TemperatureC)
	m.humidity.Set(snap.HumidityPct)
	m.illuminance.Set(snap.IlluminanceLux)
	m.gas.Set(float64(snap.GasPPM))
	m.actuator.WithLabelValues("light").Set(boolFloat(state.LightOn))
	m.actuator.WithLabelValues("motor").Set(boolFloat(state.MotorOn))
	m.actuator.WithLabelValues("auto").Set(boolFloat(state.AutoMode))
	m.connected.Set(boolFloat(state.NetworkConnected))
	m.alarm.Set(boolFloat(tripped))
}

// CommandApplied counts a command taken off the queue.
func (m *Metrics) CommandApplied(origin, kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(origin, kind).Inc()
}

// InputRejected counts a raw input that did not normalize.
func (m *Metrics) InputRejected(origin string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(origin).Inc()
}

// AlarmTripped counts a trip transition.
func (m *Metrics) AlarmTripped() {
	if m == nil {
		return
	}
	m.alarmTrips.Inc()
}

// ReportPublished counts a publish attempt outcome.
func (m *Metrics) ReportPublished(result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result).Inc()
}

// WaitTimedOut counts a cycle without a command.
func (m *Metrics) WaitTimedOut() {
	if m == nil {
		return
	}
	m.waitTimeouts.Inc()
}

// SensorFailed counts a failed read.
func (m *Metrics) SensorFailed(sensor string) {
	if m == nil {
		return
	}
	m.sensorErrors.WithLabelValues(sensor).Inc()
}

// CycleWork records how long the non-waiting part of a cycle took.
func (m *Metrics) CycleWork(ms float64) {
	if m == nil {
		return
	}
	m.cycleDurationMs.Observe(ms)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
