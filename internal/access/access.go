// Package access maps (role, operation) pairs to allow/deny decisions.
// Every workflow operation consults the same table, so role-specific
// behaviour lives here instead of in scattered conditionals.
package access

import (
	"errors"
	"fmt"

	"github.com/oceanview/resort-booking/internal/model"
)

// Operation names something a caller can attempt.
type Operation string

const (
	ViewCatalog          Operation = "view-catalog"
	ManageCatalog        Operation = "manage-catalog"
	CheckAvailability    Operation = "check-availability"
	CreateReservation    Operation = "create-reservation"
	BookForOthers        Operation = "book-for-others"
	ViewReservations     Operation = "view-reservations"
	ViewAllReservations  Operation = "view-all-reservations"
	ReviewReservation    Operation = "review-reservation"
	PayReservation       Operation = "pay-reservation"
	DeleteReservation    Operation = "delete-reservation"
	CompleteReservations Operation = "complete-reservations"
	ViewInvoice          Operation = "view-invoice"
	ViewAllInvoices      Operation = "view-all-invoices"
	ViewDashboard        Operation = "view-dashboard"
	ManageUsers          Operation = "manage-users"
)

// ErrDenied is returned when the caller's role does not grant an operation
// or the caller does not own the resource.
var ErrDenied = errors.New("forbidden")

var capabilities = map[model.Role]map[Operation]bool{
	model.RoleGuest: set(
		ViewCatalog, CheckAvailability, CreateReservation, ViewReservations,
		PayReservation, ViewInvoice,
	),
	model.RoleStaff: set(
		ViewCatalog, CheckAvailability, CreateReservation, BookForOthers,
		ViewReservations, ViewAllReservations, ReviewReservation,
		ViewInvoice, ViewAllInvoices, ViewDashboard,
	),
	model.RoleAdmin: set(
		ViewCatalog, ManageCatalog, CheckAvailability, CreateReservation,
		BookForOthers, ViewReservations, ViewAllReservations, ReviewReservation,
		PayReservation, DeleteReservation, CompleteReservations, ViewInvoice,
		ViewAllInvoices, ViewDashboard, ManageUsers,
	),
}

func set(ops ...Operation) map[Operation]bool {
	m := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

// Can reports whether role may perform op.  Unknown roles can do nothing.
func Can(role model.Role, op Operation) bool {
	return capabilities[role][op]
}

// Session is the caller identity handed to every workflow operation.
type Session struct {
	UserID uint64
	Role   model.Role
}

// System is the identity used by background jobs.
var System = Session{Role: model.RoleAdmin}

// Can reports whether the session's role grants op.
func (s Session) Can(op Operation) bool { return Can(s.Role, op) }

// Require returns ErrDenied unless the session's role grants op.
func (s Session) Require(op Operation) error {
	if !s.Can(op) {
		return fmt.Errorf("%w: %s may not %s", ErrDenied, s.Role, op)
	}
	return nil
}

// RequireOwner is Require plus an ownership rule: callers who cannot act
// on everyone's records (allOp) must own the record.
func (s Session) RequireOwner(op, allOp Operation, ownerID uint64) error {
	if err := s.Require(op); err != nil {
		return err
	}
	if s.Can(allOp) || s.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: record belongs to another user", ErrDenied)
}
