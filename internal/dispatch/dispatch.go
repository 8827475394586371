// Package dispatch serializes commands from all producers into the single
// control goroutine.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/smart-home/internal/command"
)

// DefaultCapacity matches the appliance's message queue length.
const DefaultCapacity = 16

// DefaultWait is the control-cycle wait bound.
const DefaultWait = 3 * time.Second

// ErrTimeout is returned by Wait when no event arrived in time.
var ErrTimeout = errors.New("dispatch: wait timed out")

// Event is one normalized command together with where it came from.
type Event struct {
	Origin  command.Origin
	Command command.Command
}

// Dispatcher is a bounded FIFO shared by producers and the control loop.
// Push is safe for concurrent use; Wait is meant for one consumer.
type Dispatcher struct {
	ch chan Event
}

// New returns a dispatcher holding at most capacity pending events.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Dispatcher{ch: make(chan Event, capacity)}
}

// Push enqueues ev, blocking while the queue is full. It only gives up
// when ctx is done, in which case the event was not enqueued.
func (d *Dispatcher) Push(ctx context.Context, ev Event) error {
	select {
	case d.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait returns the oldest pending event, or ErrTimeout once timeout has
// elapsed with nothing queued. If ctx ends first its error is returned.
func (d *Dispatcher) Wait(ctx context.Context, timeout time.Duration) (Event, error) {
	// Already-queued events win over an expired timer or context.
	select {
	case ev := <-d.ch:
		return ev, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-d.ch:
		return ev, nil
	case <-timer.C:
		return Event{}, ErrTimeout
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Len reports how many events are queued.
func (d *Dispatcher) Len() int {
	return len(d.ch)
}

// Cap reports the queue capacity.
func (d *Dispatcher) Cap() int {
	return cap(d.ch)
}
