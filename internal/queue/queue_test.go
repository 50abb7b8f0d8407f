package queue

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/model"
)

func sampleReservation() *model.Reservation {
	return &model.Reservation{
		ID: 5, GuestID: 3, RoomID: 1,
		CheckIn:  model.NewDate(2025, time.March, 1),
		CheckOut: model.NewDate(2025, time.March, 4),
		TotalCost: 30000, TotalNights: 3,
		Status: model.StatusApproved, PaymentStatus: model.PaymentPaid,
	}
}

func TestNewEventSnapshotsReservation(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	ev := NewEvent(InvoiceIssued, sampleReservation(), at)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, InvoiceIssued, ev.Type)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())
	assert.Equal(t, "2025-03-01", ev.CheckIn)
	assert.Equal(t, "2025-03-04", ev.CheckOut)
	assert.Equal(t, "PAID", ev.PaymentStatus)
	assert.NotEqual(t, ev.ID, NewEvent(InvoiceIssued, sampleReservation(), at).ID)
}

func TestHandleAppendsNotification(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("amqp://unused", dir, zap.NewNop())

	ev := NewEvent(InvoiceIssued, sampleReservation(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ev.InvoiceNumber = "INV-abc"
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(filepath.Join(dir, NotificationFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "invoice INV-abc issued")
	assert.Contains(t, lines[0], "reservation_id=5")
	assert.Contains(t, lines[0], "stay=2025-03-01..2025-03-04")
}

func TestHandleRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", t.TempDir(), zap.NewNop())
	assert.Error(t, c.Handle([]byte("not json")))
	assert.Error(t, c.Handle([]byte(`{"type":""}`)))
}

func TestFormatNotificationPerType(t *testing.T) {
	ev := NewEvent(ReservationStatusChanged, sampleReservation(), time.Now())
	assert.Contains(t, FormatNotification(ev), "Reservation APPROVED")
	ev.Type = ReservationCompleted
	assert.Contains(t, FormatNotification(ev), "Stay completed")
	ev.Type = ReservationCreated
	assert.Contains(t, FormatNotification(ev), "awaiting review")
}

func TestPublishGivesUpWithinContextDeadline(t *testing.T) {
	// accepts TCP connections but never speaks AMQP
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	p := NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Publish(ctx, NewEvent(ReservationCreated, sampleReservation(), time.Now()))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishConnectTimeout(t *testing.T) {
	p := NewPublisher("amqp://localhost/", zap.NewNop())
	assert.Equal(t, DefaultDialTimeout, p.connectTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.LessOrEqual(t, p.connectTimeout(ctx), time.Second)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.ErrorIs(t, p.Publish(expired, NewEvent(ReservationCreated, sampleReservation(), time.Now())), context.DeadlineExceeded)
}
