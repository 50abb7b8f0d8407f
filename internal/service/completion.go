package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
)

// CompleteDue moves every approved and paid reservation whose check-out
// date is on or before today to COMPLETED and returns how many moved.  A
// zero today means the resort's current date.  Reservations changed by a
// concurrent writer are skipped.
func (s *ReservationService) CompleteDue(ctx context.Context, sess access.Session, today model.Date) (int, error) {
	if err := sess.Require(access.CompleteReservations); err != nil {
		return 0, err
	}
	if today.IsZero() {
		today = s.Today()
	}
	due, err := s.reservations.ListDueForCompletion(ctx, today)
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range due {
		res := &due[i]
		if !res.DueForCompletion(today) {
			continue
		}
		updated, err := s.reservations.UpdateStatus(ctx, res.ID, model.StatusApproved, model.StatusCompleted, res.Version)
		if err != nil {
			if isStale(err) {
				s.log.Debug("skipping reservation changed during completion", zap.Uint64("reservation_id", res.ID))
				continue
			}
			return completed, err
		}
		completed++
		s.publish(ctx, queue.ReservationCompleted, updated, "")
	}
	if completed > 0 {
		s.log.Info("reservations completed", zap.Int("count", completed), zap.Stringer("as_of", today))
	}
	return completed, nil
}
