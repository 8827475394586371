package mqtt

import (
	"context"

	"github.com/sweeney/smart-home/internal/command"
	"github.com/sweeney/smart-home/internal/dispatch"
	"github.com/sweeney/smart-home/internal/logger"
)

// Sink accepts normalized events.
type Sink interface {
	Push(ctx context.Context, ev dispatch.Event) error
}

// RejectCounter is told about payloads that map to no command.
type RejectCounter interface {
	InputRejected(origin string)
}

// CommandHandler turns inbound command messages into dispatcher events.
type CommandHandler struct {
	ctx     context.Context
	sink    Sink
	log     *logger.Logger
	rejects RejectCounter
}

// NewCommandHandler creates a handler. Pushes block under backpressure
// until ctx is cancelled. rejects may be nil.
func NewCommandHandler(ctx context.Context, sink Sink, log *logger.Logger, rejects RejectCounter) *CommandHandler {
	return &CommandHandler{ctx: ctx, sink: sink, log: log, rejects: rejects}
}

// Handle normalizes one message. It returns the request id to
// acknowledge, if the topic carried one.
func (h *CommandHandler) Handle(topic string, payload []byte) (string, bool) {
	rid, hasID := RequestID(topic)

	cmd, err := command.ParseNetwork(payload)
	if err != nil {
		h.log.Infow("dropping network command", "topic", topic, "err", err)
		if h.rejects != nil {
			h.rejects.InputRejected(string(command.OriginNetwork))
		}
		return rid, hasID
	}

	h.log.Debugw("network command", "command", cmd.String(), "request_id", rid)
	if err := h.sink.Push(h.ctx, dispatch.Event{Origin: command.OriginNetwork, Command: cmd}); err != nil {
		h.log.Warnw("network command not queued", "command", cmd.String(), "err", err)
	}
	return rid, hasID
}
