package storetest

import (
	"context"
	"sort"

	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/repository"
)

// Reservations implements service.ReservationStore.
type Reservations struct{ s *Store }

func (v *Reservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, ok := v.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (v *Reservations) filter(match func(*model.Reservation) bool) []model.Reservation {
	out := make([]model.Reservation, 0)
	for _, r := range v.s.reservations {
		if match(&r) {
			out = append(out, r)
		}
	}
	return out
}

func (v *Reservations) List(_ context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := v.filter(f.Match)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (v *Reservations) ListDueForCompletion(_ context.Context, today model.Date) ([]model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := v.filter(func(r *model.Reservation) bool { return r.DueForCompletion(today) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Reservations) overlaps(roomID uint64, in, out model.Date) bool {
	for _, r := range v.s.reservations {
		if r.RoomID == roomID && r.BlocksRange(in, out) {
			return true
		}
	}
	return false
}

func (v *Reservations) HasBlockingOverlap(_ context.Context, roomID uint64, in, out model.Date) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.overlaps(roomID, in, out), nil
}

func (v *Reservations) CreateIfAvailable(_ context.Context, res *model.Reservation) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	rm, ok := v.s.rooms[res.RoomID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := v.s.users[res.GuestID]; !ok {
		return repository.ErrNotFound
	}
	if !rm.Status.Bookable() || v.overlaps(res.RoomID, res.CheckIn, res.CheckOut) {
		return repository.ErrUnavailable
	}
	res.ID = v.s.nextID()
	res.Version = 1
	res.CreatedAt = v.s.now()
	res.UpdatedAt = res.CreatedAt
	v.s.reservations[res.ID] = *res
	return nil
}

// conditional returns the row when it is still at version and passes ok,
// mirroring a zero-row UPDATE otherwise.
func (v *Reservations) conditional(id, version uint64, ok func(*model.Reservation) bool) (model.Reservation, error) {
	r, exists := v.s.reservations[id]
	if !exists {
		return r, repository.ErrNotFound
	}
	if r.Version != version || !ok(&r) {
		return r, repository.ErrVersionConflict
	}
	return r, nil
}

func (v *Reservations) UpdateStatus(_ context.Context, id uint64, from, to model.ReservationStatus, version uint64) (*model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, err := v.conditional(id, version, func(r *model.Reservation) bool { return r.Status == from })
	if err != nil {
		return nil, err
	}
	r.Status = to
	r.Version++
	r.UpdatedAt = v.s.now()
	v.s.reservations[id] = r
	return &r, nil
}

func (v *Reservations) MarkPaid(_ context.Context, id, version uint64, inv *model.Invoice) (*model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, err := v.conditional(id, version, func(r *model.Reservation) bool { return r.Payable() })
	if err != nil {
		return nil, err
	}
	if _, exists := v.s.invoices[id]; exists {
		return nil, repository.ErrConflict
	}
	r.PaymentStatus = model.PaymentPaid
	r.Version++
	r.UpdatedAt = v.s.now()
	inv.ID = v.s.nextID()
	inv.ReservationID = id
	v.s.reservations[id] = r
	v.s.invoices[id] = *inv
	return &r, nil
}

func (v *Reservations) Delete(_ context.Context, id uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.reservations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.s.reservations, id)
	delete(v.s.invoices, id)
	return nil
}

// Invoices implements service.InvoiceStore.
type Invoices struct{ s *Store }

func (v *Invoices) GetByReservationID(_ context.Context, reservationID uint64) (*model.Invoice, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	inv, ok := v.s.invoices[reservationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (v *Invoices) List(_ context.Context, guestID uint64) ([]model.Invoice, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.Invoice, 0, len(v.s.invoices))
	for _, inv := range v.s.invoices {
		if guestID == 0 || inv.GuestID == guestID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Stats implements service.StatsStore.
type Stats struct{ s *Store }

func (v *Stats) CountRooms(context.Context) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return int64(len(v.s.rooms)), nil
}

func (v *Stats) CountReservations(context.Context) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return int64(len(v.s.reservations)), nil
}

func (v *Stats) CountUsersByRole(_ context.Context, roles ...model.Role) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, u := range v.s.users {
		for _, r := range roles {
			if u.Role == r {
				n++
				break
			}
		}
	}
	return n, nil
}

func (v *Stats) RevenueByDay(context.Context) ([]model.RevenuePoint, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	byDay := map[string]int64{}
	for _, inv := range v.s.invoices {
		byDay[inv.InvoiceDate.UTC().Format(model.DateLayout)] += inv.TotalPrice
	}
	out := make([]model.RevenuePoint, 0, len(byDay))
	for d, amt := range byDay {
		out = append(out, model.RevenuePoint{Date: d, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
