package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/model"
)

// DashboardService aggregates headline numbers for staff.
type DashboardService struct {
	stats StatsStore
}

func NewDashboardService(stats StatsStore) *DashboardService {
	return &DashboardService{stats: stats}
}

// Stats runs the independent aggregate queries concurrently.  Total
// revenue is the sum of the per-day timeline.
func (s *DashboardService) Stats(ctx context.Context, sess access.Session) (*model.DashboardStats, error) {
	if err := sess.Require(access.ViewDashboard); err != nil {
		return nil, err
	}
	var out model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalRooms, err = s.stats.CountRooms(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalGuests, err = s.stats.CountUsersByRole(gctx, model.RoleGuest)
		return err
	})
	g.Go(func() (err error) {
		out.StaffCapacity, err = s.stats.CountUsersByRole(gctx, model.RoleStaff, model.RoleAdmin)
		return err
	})
	g.Go(func() (err error) {
		out.TotalReservations, err = s.stats.CountReservations(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.RevenueTimeline, err = s.stats.RevenueByDay(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range out.RevenueTimeline {
		out.TotalRevenue += p.Amount
	}
	return &out, nil
}
