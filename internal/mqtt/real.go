package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/smart-home/internal/logger"
	"github.com/sweeney/smart-home/internal/telemetry"
)

// Config describes the broker connection.
type Config struct {
	Broker         string
	DeviceID       string
	ClientID       string
	Username       string
	Password       string
	ServiceID      string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	// RetryAfter is how long a failed report keeps the link marked down
	// while the socket stays open.
	RetryAfter  time.Duration
	BacklogSize int
}

// RealPublisher publishes to an actual MQTT broker and feeds inbound
// commands to a CommandHandler.
type RealPublisher struct {
	client  paho.Client
	cfg     Config
	handler *CommandHandler
	log     *logger.Logger

	// failedAt is the unix-nano time of the last failed report, or zero.
	// It is cleared by a successful connect or report, and expires after
	// RetryAfter so a stalled publish on an open socket is retried.
	failedAt atomic.Int64
	now      func() time.Time
	// connects counts successful (re)connects.
	connects atomic.Int64

	mu      sync.Mutex
	pending *backlog
}

// NewRealPublisher creates a publisher connected to the given broker.
// handler may be nil, in which case no command subscription is made.
func NewRealPublisher(cfg Config, handler *CommandHandler, log *logger.Logger) (*RealPublisher, error) {
	p := newPublisher(cfg, handler, log)
	cfg = p.cfg

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(2 * time.Minute).
		SetBinaryWill(SystemTopic(cfg.DeviceID), will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("mqtt connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		// SetConnectRetry keeps trying in the background.
		log.Warnw("mqtt connect still pending", "broker", cfg.Broker, "timeout", cfg.ConnectTimeout)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// newPublisher applies defaults and builds a publisher without a client.
func newPublisher(cfg Config, handler *CommandHandler, log *logger.Logger) *RealPublisher {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.ServiceID == "" {
		cfg.ServiceID = telemetry.DefaultServiceID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = cfg.DeviceID
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = 30 * time.Second
	}
	return &RealPublisher{
		cfg:     cfg,
		handler: handler,
		log:     log,
		now:     time.Now,
		pending: newBacklog(cfg.BacklogSize),
	}
}

func (p *RealPublisher) onConnect(c paho.Client) {
	n := p.connects.Add(1)
	p.failedAt.Store(0)
	p.log.Infow("mqtt connected", "broker", p.cfg.Broker, "connects", n)

	if p.handler != nil {
		token := c.Subscribe(CommandTopic(p.cfg.DeviceID), 0, p.onMessage)
		if token.WaitTimeout(p.cfg.PublishTimeout) && token.Error() != nil {
			p.log.Errorw("mqtt subscribe failed", "topic", CommandTopic(p.cfg.DeviceID), "err", token.Error())
		}
	}

	p.mu.Lock()
	held := p.pending.drain()
	p.mu.Unlock()
	for _, msg := range held {
		if err := p.send(msg); err != nil {
			p.log.Warnw("mqtt replay failed", "topic", msg.topic, "err", err)
		}
	}

	if n > 1 {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err != nil {
			p.log.Warnw("mqtt reconnect event failed", "err", err)
		}
	}
}

func (p *RealPublisher) onMessage(c paho.Client, msg paho.Message) {
	rid, ok := p.handler.Handle(msg.Topic(), msg.Payload())
	if !ok {
		return
	}
	token := c.Publish(ResponseTopic(p.cfg.DeviceID, rid), 0, false, FormatCommandResponse())
	// Waiting on a token inside a message handler can stall the router.
	go func() {
		if !token.WaitTimeout(p.cfg.PublishTimeout) {
			p.log.Warnw("mqtt command response timeout", "request_id", rid)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("mqtt command response failed", "request_id", rid, "err", err)
		}
	}()
}

// IsConnected reports whether the link is open and not within RetryAfter
// of a failed report.
func (p *RealPublisher) IsConnected() bool {
	if !p.client.IsConnectionOpen() {
		return false
	}
	failed := p.failedAt.Load()
	if failed == 0 {
		return true
	}
	return p.now().Sub(time.Unix(0, failed)) >= p.cfg.RetryAfter
}

// Publish sends a property report. Reports are never queued.
func (p *RealPublisher) Publish(report telemetry.Report) error {
	payload, err := telemetry.FormatPayload(p.cfg.ServiceID, report)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	err = p.send(outbound{topic: ReportTopic(p.cfg.DeviceID), payload: payload})
	if err != nil {
		p.failedAt.Store(p.now().UnixNano())
		p.log.Warnw("mqtt report failed, holding off", "retry_after", p.cfg.RetryAfter, "err", err)
		return err
	}
	p.failedAt.Store(0)
	return nil
}

// PublishSystem sends a system lifecycle event, holding it for replay if
// the link is down.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should arrive
	msg := outbound{topic: SystemTopic(p.cfg.DeviceID), payload: payload, qos: 1, retained: event.Retained}
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		if p.pending.push(msg) {
			p.log.Warnw("mqtt backlog full, dropping oldest", "capacity", len(p.pending.buf))
		}
		p.mu.Unlock()
		return nil
	}
	return p.send(msg)
}

func (p *RealPublisher) send(msg outbound) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(p.cfg.PublishTimeout) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
