package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/logger"
)

// Sink accepts normalized events.
type Sink interface {
	Push(ctx context.Context, ev dispatch.Event) error
}

// RejectCounter is told about codes that map to no command.
type RejectCounter interface {
	InputRejected(origin string)
}

// Read error handling defaults.
const (
	DefaultRetryDelay    = time.Second
	DefaultMaxReadErrors = 10
)

// Receiver decodes frames from the module and pushes the matching commands.
type Receiver struct {
	dec     *Decoder
	sink    Sink
	log     *logger.Logger
	rejects RejectCounter

	// RetryDelay is the pause after a failed read. MaxReadErrors
	// consecutive failures stop the receiver.
	RetryDelay    time.Duration
	MaxReadErrors int
}

// NewReceiver creates a receiver reading from r. rejects may be nil.
func NewReceiver(r io.Reader, sink Sink, log *logger.Logger, rejects RejectCounter) *Receiver {
	return &Receiver{
		dec:           NewDecoder(r),
		sink:          sink,
		log:           log,
		rejects:       rejects,
		RetryDelay:    DefaultRetryDelay,
		MaxReadErrors: DefaultMaxReadErrors,
	}
}

// Run receives until ctx is cancelled or the port closes. Closing the port
// is what unblocks a pending read, so callers close it after cancelling.
// A closed port or cancelled context returns nil. Other read errors are
// logged and retried; only a run of MaxReadErrors of them is returned.
func (r *Receiver) Run(ctx context.Context) error {
	failures := 0
	for {
		code, err := r.dec.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			failures++
			if failures >= r.MaxReadErrors {
				return fmt.Errorf("voice receive: %d consecutive errors: %w", failures, err)
			}
			r.log.Warnw("voice read failed, retrying", "err", err, "failures", failures)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.RetryDelay):
			}
			continue
		}
		failures = 0

		cmd, ok := command.FromVoice(code)
		if !ok {
			r.log.Warnw("unknown voice code", "code", uint8(code))
			if r.rejects != nil {
				r.rejects.InputRejected(string(command.OriginVoice))
			}
			continue
		}

		r.log.Debugw("voice command", "command", cmd.String())
		if err := r.sink.Push(ctx, dispatch.Event{Origin: command.OriginVoice, Command: cmd}); err != nil {
			return nil
		}
	}
}

// Replier sends readings back for the module to speak.
type Replier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewReplier creates a replier writing to w.
func NewReplier(w io.Writer) *Replier {
	return &Replier{w: w}
}

// Reply announces one reading.
func (p *Replier) Reply(m command.Metric, value float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(EncodeReading(m, value)); err != nil {
		return fmt.Errorf("voice reply %s: %w", m, err)
	}
	return nil
}
