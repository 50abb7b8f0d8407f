package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultDialTimeout bounds connecting to the broker when the caller's
// context has no earlier deadline.
const DefaultDialTimeout = 5 * time.Second

// Publisher sends events to the reservation events queue on the default
// exchange.  Each Publish opens its own connection, so a broker outage
// only affects the call in flight.  Errors are logged and returned;
// callers treat them as non-fatal.
type Publisher struct {
	url         string
	log         *zap.Logger
	dialTimeout time.Duration
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log.Named("publisher"), dialTimeout: DefaultDialTimeout}
}

// connectTimeout is the dial budget for one publish: the configured
// timeout, cut short by the context deadline.
func (p *Publisher) connectTimeout(ctx context.Context) time.Duration {
	d := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// Publish marshals ev and delivers it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	timeout := p.connectTimeout(ctx)
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	// DefaultDial applies the timeout to both the TCP connect and the AMQP handshake
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EventsQueue, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.String("event", string(ev.Type)), zap.Error(err))
		return err
	}
	p.log.Debug("event published", zap.String("event", string(ev.Type)), zap.Uint64("reservation_id", ev.ReservationID))
	return nil
}

// declare ensures the durable events queue exists (idempotent).
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil)
	return err
}
