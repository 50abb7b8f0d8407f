package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/oceanview/resort-booking/internal/model"
)

type RepositorySuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	ctx  context.Context
	now  time.Time
}

func (s *RepositorySuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db, s.mock = db, mock
	s.ctx = context.Background()
	s.now = time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *RepositorySuite) reservationRepo() *ReservationRepo {
	r := NewReservationRepo(s.db)
	r.now = func() time.Time { return s.now }
	return r
}

func (s *RepositorySuite) reservationRow(id uint64, status model.ReservationStatus, pay model.PaymentStatus, version uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "guest_id", "room_id", "check_in", "check_out", "total_cost", "total_nights",
		"notes", "guest_address", "guest_phone", "status", "payment_status", "version", "created_at", "updated_at",
	}).AddRow(id, 3, 1, "2025-03-01", "2025-03-04", 30000, 3,
		nil, "1 Beach Rd", "+94771234567", string(status), string(pay), version, s.now, s.now)
}

func (s *RepositorySuite) newReservation() *model.Reservation {
	return &model.Reservation{
		GuestID: 3, RoomID: 1,
		CheckIn:  model.NewDate(2025, time.March, 1),
		CheckOut: model.NewDate(2025, time.March, 4),
		TotalCost: 30000, TotalNights: 3,
		GuestAddress: "1 Beach Rd", GuestPhone: "+94771234567",
		Status: model.StatusPending, PaymentStatus: model.PaymentUnpaid,
	}
}

func (s *RepositorySuite) TestCreateIfAvailableInsertsWhenFree() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT status FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("AVAILABLE"))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(1, "2025-03-04", "2025-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	s.mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(7, 1))
	s.mock.ExpectCommit()

	res := s.newReservation()
	s.Require().NoError(s.reservationRepo().CreateIfAvailable(s.ctx, res))
	s.Equal(uint64(7), res.ID)
	s.Equal(uint64(1), res.Version)
	s.Equal(s.now, res.CreatedAt)
}

func (s *RepositorySuite) TestCreateIfAvailableRejectsOverlap() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("AVAILABLE"))
	s.mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	s.mock.ExpectRollback()

	err := s.reservationRepo().CreateIfAvailable(s.ctx, s.newReservation())
	s.ErrorIs(err, ErrUnavailable)
}

func (s *RepositorySuite) TestCreateIfAvailableRejectsMaintenance() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("MAINTENANCE"))
	s.mock.ExpectRollback()

	err := s.reservationRepo().CreateIfAvailable(s.ctx, s.newReservation())
	s.ErrorIs(err, ErrUnavailable)
}

func (s *RepositorySuite) TestCreateIfAvailableUnknownRoom() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	s.mock.ExpectRollback()

	err := s.reservationRepo().CreateIfAvailable(s.ctx, s.newReservation())
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestUpdateStatusSucceeds() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE reservations SET status = \?, version = version \+ 1`).
		WithArgs("APPROVED", sqlmock.AnyArg(), 5, "PENDING", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(`FROM reservations WHERE id = \?`).WithArgs(5).
		WillReturnRows(s.reservationRow(5, model.StatusApproved, model.PaymentUnpaid, 2))
	s.mock.ExpectCommit()

	got, err := s.reservationRepo().UpdateStatus(s.ctx, 5, model.StatusPending, model.StatusApproved, 1)
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, got.Status)
	s.Equal(uint64(2), got.Version)
	s.Equal("2025-03-01", got.CheckIn.String())
	s.Empty(got.Notes)
}

func (s *RepositorySuite) TestUpdateStatusStaleVersion() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT 1 FROM reservations WHERE id = \?`).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	s.mock.ExpectRollback()

	_, err := s.reservationRepo().UpdateStatus(s.ctx, 5, model.StatusPending, model.StatusApproved, 1)
	s.ErrorIs(err, ErrVersionConflict)
}

func (s *RepositorySuite) TestUpdateStatusMissingRow() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT 1 FROM reservations`).WillReturnError(sql.ErrNoRows)
	s.mock.ExpectRollback()

	_, err := s.reservationRepo().UpdateStatus(s.ctx, 5, model.StatusPending, model.StatusApproved, 1)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestMarkPaidWritesInvoiceInSameTransaction() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE reservations SET payment_status = 'PAID'`).
		WithArgs(sqlmock.AnyArg(), 5, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs("INV-1", 5, 3, "Ann", "Ocean Suite", 30000, sqlmock.AnyArg(), "PAID").
		WillReturnResult(sqlmock.NewResult(11, 1))
	s.mock.ExpectQuery(`FROM reservations WHERE id = \?`).
		WillReturnRows(s.reservationRow(5, model.StatusApproved, model.PaymentPaid, 3))
	s.mock.ExpectCommit()

	inv := &model.Invoice{Number: "INV-1", GuestID: 3, GuestName: "Ann", RoomName: "Ocean Suite",
		TotalPrice: 30000, InvoiceDate: s.now, PaymentStatus: model.PaymentPaid}
	got, err := s.reservationRepo().MarkPaid(s.ctx, 5, 2, inv)
	s.Require().NoError(err)
	s.Equal(model.PaymentPaid, got.PaymentStatus)
	s.Equal(uint64(11), inv.ID)
	s.Equal(uint64(5), inv.ReservationID)
}

func (s *RepositorySuite) TestMarkPaidInvoiceFailureRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE reservations SET payment_status`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO invoices`).WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})
	s.mock.ExpectRollback()

	_, err := s.reservationRepo().MarkPaid(s.ctx, 5, 2, &model.Invoice{Number: "INV-1"})
	s.ErrorIs(err, ErrConflict)
}

func (s *RepositorySuite) TestListBuildsFilter() {
	s.mock.ExpectQuery(`FROM reservations WHERE guest_id = \? AND status = \? ORDER BY`).
		WithArgs(3, "PENDING").
		WillReturnRows(s.reservationRow(5, model.StatusPending, model.PaymentUnpaid, 1))

	got, err := s.reservationRepo().List(s.ctx, ReservationFilter{GuestID: 3, Status: model.StatusPending})
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *RepositorySuite) TestListDueForCompletion() {
	s.mock.ExpectQuery(`status = 'APPROVED' AND payment_status = 'PAID' AND check_out <= \?`).
		WithArgs("2025-03-04").
		WillReturnRows(s.reservationRow(5, model.StatusApproved, model.PaymentPaid, 3))

	got, err := s.reservationRepo().ListDueForCompletion(s.ctx, model.NewDate(2025, time.March, 4))
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *RepositorySuite) TestRoomScanSpreadsImagesAndAmenities() {
	rows := sqlmock.NewRows([]string{
		"id", "name", "room_type_id", "rate", "capacity", "status", "description",
		"image1", "image2", "image3", "amenities", "created_at", "updated_at",
	}).AddRow(1, "Ocean Suite", 2, 10000, 2, "AVAILABLE", "Sea view",
		"a.jpg", nil, "c.jpg", `["wifi","minibar"]`, s.now, s.now)
	s.mock.ExpectQuery(`FROM rooms WHERE id = \?`).WithArgs(1).WillReturnRows(rows)

	rm, err := NewRoomRepo(s.db).GetByID(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal([]string{"a.jpg", "c.jpg"}, rm.Images)
	s.Equal([]string{"wifi", "minibar"}, rm.Amenities)
	s.Equal(model.RoomAvailable, rm.Status)
}

func (s *RepositorySuite) TestRoomDeleteReferenced() {
	s.mock.ExpectExec(`DELETE FROM rooms`).WithArgs(1).
		WillReturnError(&mysql.MySQLError{Number: mysqlRowIsReferenced})

	s.ErrorIs(NewRoomRepo(s.db).Delete(s.ctx, 1), ErrConflict)
}

func (s *RepositorySuite) TestRoomDeleteMissing() {
	s.mock.ExpectExec(`DELETE FROM rooms`).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))

	s.ErrorIs(NewRoomRepo(s.db).Delete(s.ctx, 9), ErrNotFound)
}

func (s *RepositorySuite) TestUserCreateDuplicateEmail() {
	s.mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Ann", "ann@example.com", sqlmock.AnyArg(), "GUEST").
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})

	u := &model.User{Name: "Ann", Email: " Ann@Example.com ", Role: model.RoleGuest}
	err := NewUserRepo(s.db, bcrypt.MinCost).Create(s.ctx, u, "secret123")
	s.ErrorIs(err, ErrEmailExists)
}

func (s *RepositorySuite) TestInvoiceMissing() {
	s.mock.ExpectQuery(`FROM invoices WHERE reservation_id = \?`).WithArgs(5).WillReturnError(sql.ErrNoRows)

	_, err := NewInvoiceRepo(s.db).GetByReservationID(s.ctx, 5)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestCountUsersByRole() {
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role IN \(\?,\?\)`).
		WithArgs("STAFF", "ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))

	n, err := NewStatsRepo(s.db).CountUsersByRole(s.ctx, model.RoleStaff, model.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(int64(4), n)
}

func (s *RepositorySuite) TestRevenueByDay() {
	s.mock.ExpectQuery(`FROM invoices GROUP BY day`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum"}).
			AddRow("2025-03-01", 30000).AddRow("2025-03-02", 12000))

	got, err := NewStatsRepo(s.db).RevenueByDay(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RevenuePoint{{Date: "2025-03-01", Amount: 30000}, {Date: "2025-03-02", Amount: 12000}}, got)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
