package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// NotificationFile is the file, relative to the consumer's directory, that
// guest notifications are appended to.
const NotificationFile = "notifications.log"

// Consumer listens to the events queue and appends one notification line
// per event.  Delivery to guests (email etc.) is left to whatever tails the
// notification log.
type Consumer struct {
	url string
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

// NewConsumer returns a Consumer that writes notifications under dir.
func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log.Named("consumer")}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event body and appends its notification line.
func (c *Consumer) Handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return errors.New("event missing type or reservation id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, NotificationFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open notification file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatNotification(ev) + "\n"); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	c.log.Info("notification recorded", zap.String("event", string(ev.Type)), zap.Uint64("reservation_id", ev.ReservationID))
	return nil
}

// FormatNotification renders ev as a single human-friendly line.
func FormatNotification(ev Event) string {
	var what string
	switch ev.Type {
	case ReservationCreated:
		what = "Reservation received, awaiting review"
	case ReservationStatusChanged:
		what = "Reservation " + ev.Status
	case InvoiceIssued:
		what = "Payment received, invoice " + ev.InvoiceNumber + " issued"
	case ReservationCompleted:
		what = "Stay completed"
	case ReservationDeleted:
		what = "Reservation cancelled"
	default:
		what = string(ev.Type)
	}
	return fmt.Sprintf("[%s] %s | reservation_id=%d | guest_id=%d | room_id=%d | stay=%s..%s | total=%d | status=%s/%s",
		ev.OccurredAt.Format(time.RFC3339), what, ev.ReservationID, ev.GuestID, ev.RoomID,
		ev.CheckIn, ev.CheckOut, ev.TotalCost, ev.Status, ev.PaymentStatus)
}
