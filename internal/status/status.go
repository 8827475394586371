// Package status provides a thread-safe status tracker for the smart-home daemon.
// It is read by HTTP handlers, and every rendered frame is fanned out to
// live subscribers.
package status

import (
	"sync"
	"time"

	"github.com/btittelbach/pubsub"

	"github.com/sweeney/smart-home/internal/alarm"
	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/device"
)

// Topic is the pubsub topic carrying Snapshot values.
const Topic = "status"

// Config contains daemon configuration for display.
type Config struct {
	CycleMs      int64
	GasThreshold float32
	Broker       string
	DeviceID     string
	HTTPAddr     string
}

// Counts are running totals since start.
type Counts struct {
	KeyCommands     int
	VoiceCommands   int
	NetworkCommands int
	Timeouts        int
	Reports         int
	AlarmTrips      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         device.State
	Sensors       device.SensorSnapshot
	Alarm         alarm.State
	MenuIndex     int
	MenuItem      string
	Ready         bool
	Baseline      float64
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	ps   *pubsub.PubSub
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Alarm:     alarm.StateClear,
			Config:    cfg,
		},
		ps:  pubsub.New(4),
		now: time.Now,
	}
}

// Render records a frame and notifies subscribers.
// Called by the control loop once per cycle.
func (t *Tracker) Render(state device.State, snap device.SensorSnapshot, connected bool) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Sensors = snap
	t.snap.MQTTConnected = connected
	t.snap.Ready = true
	t.mu.Unlock()

	t.ps.Pub(t.Snapshot(), Topic)
}

// SetAlarm records the alarm machine's state and trip count.
func (t *Tracker) SetAlarm(state alarm.State, trips int) {
	t.mu.Lock()
	t.snap.Alarm = state
	t.snap.Counts.AlarmTrips = trips
	t.mu.Unlock()
}

// SetMenu records the panel menu selection.
func (t *Tracker) SetMenu(index int, item string) {
	t.mu.Lock()
	t.snap.MenuIndex = index
	t.snap.MenuItem = item
	t.mu.Unlock()
}

// SetBaseline records the gas sensor calibration.
func (t *Tracker) SetBaseline(r0 float64) {
	t.mu.Lock()
	t.snap.Baseline = r0
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// RecordCommand counts an applied command by origin.
func (t *Tracker) RecordCommand(origin command.Origin) {
	t.mu.Lock()
	switch origin {
	case command.OriginKey:
		t.snap.Counts.KeyCommands++
	case command.OriginVoice:
		t.snap.Counts.VoiceCommands++
	case command.OriginNetwork:
		t.snap.Counts.NetworkCommands++
	}
	t.mu.Unlock()
}

// RecordTimeout counts a cycle with no event.
func (t *Tracker) RecordTimeout() {
	t.mu.Lock()
	t.snap.Counts.Timeouts++
	t.mu.Unlock()
}

// RecordReport counts a published report.
func (t *Tracker) RecordReport() {
	t.mu.Lock()
	t.snap.Counts.Reports++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

// Subscribe returns a channel that receives a Snapshot after every frame.
// Subscribers must keep reading until they call Unsubscribe.
func (t *Tracker) Subscribe() chan interface{} {
	return t.ps.Sub(Topic)
}

// Unsubscribe detaches ch and drains anything still queued on it.
func (t *Tracker) Unsubscribe(ch chan interface{}) {
	go t.ps.Unsub(ch, Topic)
	for range ch {
	}
}

// Close shuts down the fan-out; all subscriber channels are closed.
func (t *Tracker) Close() {
	t.ps.Shutdown()
}
