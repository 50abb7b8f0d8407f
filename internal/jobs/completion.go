// Package jobs runs the background work of the service on a gocron
// scheduler.
package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/model"
)

// Completer is satisfied by *service.ReservationService.
type Completer interface {
	CompleteDue(ctx context.Context, sess access.Session, today model.Date) (int, error)
}

// Scheduler owns the gocron scheduler and its jobs.
type Scheduler struct {
	sched gocron.Scheduler
	log   *zap.Logger
}

// NewCompletionScheduler schedules the daily completion sweep on the
// crontab expression schedule, evaluated in loc.  Six-field expressions are
// read with a leading seconds field.  Each run is bounded by timeout and
// never overlaps the previous one.
func NewCompletionScheduler(schedule string, loc *time.Location, svc Completer, timeout time.Duration, log *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	log = log.Named("jobs")
	withSeconds := len(strings.Fields(schedule)) == 6
	_, err = sched.NewJob(
		gocron.CronJob(schedule, withSeconds),
		gocron.NewTask(func() { RunCompletion(svc, timeout, log) }),
		gocron.WithName("complete-due-reservations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return &Scheduler{sched: sched, log: log}, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.sched.Jobs())))
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }

// RunCompletion performs one completion sweep as the system identity.
func RunCompletion(svc Completer, timeout time.Duration, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := svc.CompleteDue(ctx, access.System, model.Date{})
	if err != nil {
		log.Error("completion sweep failed", zap.Error(err))
		return
	}
	log.Info("completion sweep finished", zap.Int("completed", n))
}
