package mqtt

import (
	"sync"

	"github.com/sweeney/smart-home/internal/telemetry"
)

// FakePublisher stands in for the broker link in tests. It records what
// would have been sent, formatted exactly as the real link would send it.
// Methods are safe to call from several goroutines; read the recorded
// slices only once those goroutines have stopped.
type FakePublisher struct {
	mu sync.Mutex

	Reports  []telemetry.Report
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError and PublishSystemError make the matching call fail
	// without recording anything.
	PublishError       error
	PublishSystemError error

	Connected bool
	Closed    bool

	// ServiceID is used when formatting payloads; empty means the default.
	ServiceID string
}

// NewFakePublisher returns a disconnected fake.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats and records a property report.
func (f *FakePublisher) Publish(report telemetry.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := telemetry.FormatPayload(f.ServiceID, report)
	if err != nil {
		return err
	}
	f.Reports = append(f.Reports, report)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem formats and records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// LastReport returns the most recent report.
func (f *FakePublisher) LastReport() (telemetry.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Reports) == 0 {
		return telemetry.Report{}, false
	}
	return f.Reports[len(f.Reports)-1], true
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close records the call.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset forgets everything recorded and clears injected errors.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reports, f.Payloads = nil, nil
	f.SystemEvents, f.SystemPayloads = nil, nil
	f.PublishError, f.PublishSystemError = nil, nil
	f.Connected, f.Closed = false, false
}
