package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/repository"
	"github.com/oceanview/resort-booking/internal/storetest"
)

var admin = access.Session{UserID: 1, Role: model.RoleAdmin}

func TestCatalogRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	typ := st.AddRoomType("Suite")
	svc := NewCatalogService(st.Rooms, st.RoomTypes, zap.NewNop())

	in := RoomInput{Name: "Ocean Suite", RoomTypeID: typ.ID, Rate: 12000, Capacity: 2, Images: []string{"a.jpg"}}
	rm, err := svc.CreateRoom(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoomAvailable, rm.Status)

	in.Status = "MAINTENANCE"
	in.Rate = 15000
	rm, err = svc.UpdateRoom(ctx, admin, rm.ID, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoomMaintenance, rm.Status)

	rooms, err := svc.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(15000), rooms[0].Rate)

	require.NoError(t, svc.DeleteRoom(ctx, admin, rm.ID))
	_, err = svc.Room(ctx, rm.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalogRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	svc := NewCatalogService(st.Rooms, st.RoomTypes, zap.NewNop())

	_, err := svc.CreateRoom(ctx, admin, RoomInput{Name: "", RoomTypeID: 1, Rate: 0, Capacity: 1,
		Images: []string{"1", "2", "3", "4"}})
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "rate")
	assert.Contains(t, verr.Fields, "images")

	_, err = svc.CreateRoom(ctx, admin, RoomInput{Name: "X", RoomTypeID: 1, Rate: 1 << 62, Capacity: 1})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rate")

	_, err = svc.CreateRoom(ctx, admin, RoomInput{Name: "X", RoomTypeID: 99, Rate: 1, Capacity: 1})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "roomTypeId")
}

func TestCatalogWritesNeedAdmin(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	svc := NewCatalogService(st.Rooms, st.RoomTypes, zap.NewNop())
	staff := access.Session{UserID: 2, Role: model.RoleStaff}

	_, err := svc.CreateRoomType(ctx, staff, RoomTypeInput{Name: "Villa"})
	assert.ErrorIs(t, err, access.ErrDenied)

	typ, err := svc.CreateRoomType(ctx, admin, RoomTypeInput{Name: "Villa", Type: "Luxury"})
	require.NoError(t, err)
	_, err = svc.CreateRoomType(ctx, admin, RoomTypeInput{Name: "Villa"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	st.AddRoom("Villa 1", 30000, model.RoomAvailable)
	assert.ErrorIs(t, svc.DeleteRoomType(ctx, admin, typ.ID), repository.ErrConflict)
}

func TestDeletingBookedRoomConflicts(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	guest := st.AddUser("ann", model.RoleGuest)
	rm := st.AddRoom("Ocean Suite", 10000, model.RoomAvailable)
	st.PutReservation(model.Reservation{GuestID: guest.ID, RoomID: rm.ID,
		CheckIn: model.NewDate(2025, time.March, 1), CheckOut: model.NewDate(2025, time.March, 2),
		Status: model.StatusPending, PaymentStatus: model.PaymentUnpaid})

	svc := NewCatalogService(st.Rooms, st.RoomTypes, zap.NewNop())
	assert.ErrorIs(t, svc.DeleteRoom(ctx, admin, rm.ID), repository.ErrConflict)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	svc := NewUserService(st.Users, zap.NewNop())

	_, err := svc.Create(ctx, admin, UserInput{Name: "Sam", Email: "sam@example.com", Role: "STAFF"})
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")

	u, err := svc.Create(ctx, admin, UserInput{Name: "Sam", Email: "sam@example.com", Password: "s3cretpass", Role: "STAFF"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, u.Role)

	_, err = svc.Create(ctx, admin, UserInput{Name: "Sam2", Email: "sam@example.com", Password: "s3cretpass", Role: "GUEST"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	_, err = svc.Create(ctx, admin, UserInput{Name: "X", Email: "x@example.com", Password: "s3cretpass", Role: "OWNER"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	u, err = svc.Update(ctx, admin, u.ID, UserInput{Name: "Samantha", Email: "sam@example.com", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, "Samantha", u.Name)

	_, err = svc.List(ctx, access.Session{UserID: u.ID, Role: model.RoleStaff})
	assert.ErrorIs(t, err, access.ErrDenied)

	require.NoError(t, svc.Delete(ctx, admin, u.ID))
	_, err = svc.Get(ctx, admin, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	guest := st.AddUser("ann", model.RoleGuest)
	st.AddUser("bob", model.RoleGuest)
	st.AddUser("sam", model.RoleStaff)
	st.AddUser("ada", model.RoleAdmin)
	rm := st.AddRoom("Ocean Suite", 10000, model.RoomAvailable)
	st.AddRoom("Garden Room", 8000, model.RoomAvailable)

	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	for i, at := range []time.Time{day1, day1, day2} {
		r := st.PutReservation(model.Reservation{GuestID: guest.ID, RoomID: rm.ID,
			CheckIn:  model.NewDate(2025, time.April, 1+2*i),
			CheckOut: model.NewDate(2025, time.April, 2+2*i),
			TotalCost: 10000, TotalNights: 1, Status: model.StatusApproved, PaymentStatus: model.PaymentUnpaid})
		_, err := st.Reservations.MarkPaid(ctx, r.ID, r.Version, &model.Invoice{
			Number: "INV-" + string(rune('A'+i)), GuestID: guest.ID, TotalPrice: r.TotalCost, InvoiceDate: at,
			PaymentStatus: model.PaymentPaid,
		})
		require.NoError(t, err)
	}

	svc := NewDashboardService(st.Stats)
	stats, err := svc.Stats(ctx, access.Session{UserID: 3, Role: model.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalRooms)
	assert.Equal(t, int64(2), stats.TotalGuests)
	assert.Equal(t, int64(2), stats.StaffCapacity)
	assert.Equal(t, int64(3), stats.TotalReservations)
	assert.Equal(t, int64(30000), stats.TotalRevenue)
	assert.Equal(t, []model.RevenuePoint{{Date: "2025-03-01", Amount: 20000}, {Date: "2025-03-02", Amount: 10000}},
		stats.RevenueTimeline)

	_, err = svc.Stats(ctx, access.Session{UserID: guest.ID, Role: model.RoleGuest})
	assert.ErrorIs(t, err, access.ErrDenied)
}
