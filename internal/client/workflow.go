package client

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/oceanview/resort-booking/internal/model"
)

// ApprovalWorkflow lets staff review pending reservations.  Local records
// only change once the server confirms the write.
type ApprovalWorkflow struct {
	API *Client
}

// Pending lists reservations that still need a decision.
func (w *ApprovalWorkflow) Pending(ctx context.Context) ([]model.Reservation, error) {
	return w.API.Reservations(ctx, ReservationQuery{Status: model.StatusPending})
}

// Approve moves res to APPROVED.  On failure res is returned unchanged
// with the error.
func (w *ApprovalWorkflow) Approve(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	return w.decide(ctx, res, model.StatusApproved)
}

// Reject moves res to REJECTED.  On failure res is returned unchanged
// with the error.
func (w *ApprovalWorkflow) Reject(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	return w.decide(ctx, res, model.StatusRejected)
}

func (w *ApprovalWorkflow) decide(ctx context.Context, res model.Reservation, to model.ReservationStatus) (model.Reservation, error) {
	if err := res.CheckReview(to); err != nil {
		return res, err
	}
	updated, err := w.API.SetStatus(ctx, res.ID, to, res.Version)
	if err != nil {
		return res, err
	}
	return *updated, nil
}

// Card is the payment instrument sent with a payment.  The server only
// checks its shape.
type Card struct {
	CardHolder string `json:"cardHolder"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// ErrInvoiceNotReady means the reservation has not been paid yet.  It is
// an expected outcome, not a failure.
var ErrInvoiceNotReady = errors.New("invoice not available yet")

// PaymentWorkflow pays approved reservations and fetches their invoices.
type PaymentWorkflow struct {
	API *Client
}

// Pay captures payment for res.  It refuses locally unless res is
// APPROVED and UNPAID; on any failure res is returned unchanged.
func (w *PaymentWorkflow) Pay(ctx context.Context, res model.Reservation, card Card) (model.Reservation, error) {
	if err := res.CheckPayment(); err != nil {
		return res, err
	}
	updated, _, err := w.API.MarkPaid(ctx, res.ID, card, res.Version)
	if err != nil {
		return res, err
	}
	return *updated, nil
}

// Invoice returns the invoice for a reservation, or ErrInvoiceNotReady
// while it is unpaid.
func (w *PaymentWorkflow) Invoice(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	inv, err := w.API.Invoice(ctx, reservationID)
	if IsNotFound(err) {
		return nil, ErrInvoiceNotReady
	}
	return inv, err
}

// Overview is what the staff dashboard screen shows.
type Overview struct {
	Stats   *model.DashboardStats
	Pending []model.Reservation
	Recent  []model.Reservation
}

// LoadOverview fetches the dashboard figures, pending reservations and
// the most recent reservations concurrently.
func LoadOverview(ctx context.Context, api *Client, recent int) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Stats, err = api.DashboardStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Pending, err = api.Reservations(gctx, ReservationQuery{Status: model.StatusPending})
		return err
	})
	g.Go(func() error {
		all, err := api.Reservations(gctx, ReservationQuery{})
		if err != nil {
			return err
		}
		if recent > 0 && len(all) > recent {
			all = all[:recent]
		}
		out.Recent = all
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}
	return &out, nil
}
