// Package storetest is an in-memory implementation of the service storage
// interfaces.  It enforces the same conditional-write rules as the MySQL
// repositories so workflow, handler and client tests can run without a
// database.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/queue"
	"github.com/oceanview/resort-booking/internal/repository"
)

// Store holds every table behind one mutex.  Use the typed views (Rooms,
// Reservations, ...) as the store arguments of the services.
type Store struct {
	mu           sync.Mutex
	seq          uint64
	now          func() time.Time
	rooms        map[uint64]model.Room
	roomTypes    map[uint64]model.RoomType
	reservations map[uint64]model.Reservation
	invoices     map[uint64]model.Invoice // keyed by reservation id
	users        map[uint64]model.User

	Rooms        *Rooms
	RoomTypes    *RoomTypes
	Reservations *Reservations
	Invoices     *Invoices
	Users        *Users
	Stats        *Stats
}

// New returns an empty store.
func New() *Store {
	s := &Store{
		now:          func() time.Time { return time.Now().UTC() },
		rooms:        map[uint64]model.Room{},
		roomTypes:    map[uint64]model.RoomType{},
		reservations: map[uint64]model.Reservation{},
		invoices:     map[uint64]model.Invoice{},
		users:        map[uint64]model.User{},
	}
	s.Rooms = &Rooms{s}
	s.RoomTypes = &RoomTypes{s}
	s.Reservations = &Reservations{s}
	s.Invoices = &Invoices{s}
	s.Users = &Users{s}
	s.Stats = &Stats{s}
	return s
}

func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

// AddRoomType seeds a room type.
func (s *Store) AddRoomType(name string) model.RoomType {
	t := model.RoomType{Name: name, Type: name}
	_ = s.RoomTypes.Create(context.Background(), &t)
	return t
}

// AddRoom seeds a room with the given nightly rate.
func (s *Store) AddRoom(name string, rate int64, status model.RoomStatus) model.Room {
	s.mu.Lock()
	var typeID uint64
	for id := range s.roomTypes {
		typeID = id
		break
	}
	s.mu.Unlock()
	if typeID == 0 {
		typeID = s.AddRoomType("Standard").ID
	}
	rm := model.Room{Name: name, RoomTypeID: typeID, Rate: rate, Capacity: 2, Status: status}
	_ = s.Rooms.Create(context.Background(), &rm)
	return rm
}

// AddUser seeds a user.
func (s *Store) AddUser(name string, role model.Role) model.User {
	u := model.User{Name: name, Email: name + "@example.com", Role: role}
	_ = s.Users.Create(context.Background(), &u, "password123")
	return u
}

// PutReservation stores r as-is, assigning an ID when r.ID is zero.  It
// bypasses availability checks and is meant for arranging test fixtures.
func (s *Store) PutReservation(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID()
	}
	if r.Version == 0 {
		r.Version = 1
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
		r.UpdatedAt = r.CreatedAt
	}
	s.reservations[r.ID] = r
	return r
}

// Rooms implements service.RoomStore.
type Rooms struct{ s *Store }

func (v *Rooms) List(context.Context) ([]model.Room, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.Room, 0, len(v.s.rooms))
	for _, rm := range v.s.rooms {
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Rooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	rm, ok := v.s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rm, nil
}

func (v *Rooms) Create(_ context.Context, rm *model.Room) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.roomTypes[rm.RoomTypeID]; !ok {
		return repository.ErrNotFound
	}
	rm.ID = v.s.nextID()
	rm.CreatedAt = v.s.now()
	rm.UpdatedAt = rm.CreatedAt
	if rm.Images == nil {
		rm.Images = []string{}
	}
	if rm.Amenities == nil {
		rm.Amenities = []string{}
	}
	v.s.rooms[rm.ID] = *rm
	return nil
}

func (v *Rooms) Update(_ context.Context, rm *model.Room) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	old, ok := v.s.rooms[rm.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rm.CreatedAt = old.CreatedAt
	rm.UpdatedAt = v.s.now()
	v.s.rooms[rm.ID] = *rm
	return nil
}

func (v *Rooms) Delete(_ context.Context, id uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range v.s.reservations {
		if r.RoomID == id {
			return repository.ErrConflict
		}
	}
	delete(v.s.rooms, id)
	return nil
}

// RoomTypes implements service.RoomTypeStore.
type RoomTypes struct{ s *Store }

func (v *RoomTypes) List(context.Context) ([]model.RoomType, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.RoomType, 0, len(v.s.roomTypes))
	for _, t := range v.s.roomTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *RoomTypes) GetByID(_ context.Context, id uint64) (*model.RoomType, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.roomTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (v *RoomTypes) Create(_ context.Context, t *model.RoomType) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, o := range v.s.roomTypes {
		if o.Name == t.Name {
			return repository.ErrConflict
		}
	}
	t.ID = v.s.nextID()
	v.s.roomTypes[t.ID] = *t
	return nil
}

func (v *RoomTypes) Update(_ context.Context, t *model.RoomType) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.roomTypes[t.ID]; !ok {
		return repository.ErrNotFound
	}
	v.s.roomTypes[t.ID] = *t
	return nil
}

func (v *RoomTypes) Delete(_ context.Context, id uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.roomTypes[id]; !ok {
		return repository.ErrNotFound
	}
	for _, rm := range v.s.rooms {
		if rm.RoomTypeID == id {
			return repository.ErrConflict
		}
	}
	delete(v.s.roomTypes, id)
	return nil
}

// Users implements service.UserStore.  Passwords are discarded.
type Users struct{ s *Store }

func (v *Users) List(context.Context) ([]model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.User, 0, len(v.s.users))
	for _, u := range v.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (v *Users) emailTaken(email string, except uint64) bool {
	for _, o := range v.s.users {
		if o.Email == email && o.ID != except {
			return true
		}
	}
	return false
}

func (v *Users) Create(_ context.Context, u *model.User, _ string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if v.emailTaken(u.Email, 0) {
		return repository.ErrEmailExists
	}
	u.ID = v.s.nextID()
	u.CreatedAt = v.s.now()
	u.UpdatedAt = u.CreatedAt
	v.s.users[u.ID] = *u
	return nil
}

func (v *Users) Update(_ context.Context, u *model.User, _ string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	old, ok := v.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if v.emailTaken(u.Email, u.ID) {
		return repository.ErrEmailExists
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = v.s.now()
	v.s.users[u.ID] = *u
	return nil
}

func (v *Users) Delete(_ context.Context, id uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range v.s.reservations {
		if r.GuestID == id {
			return repository.ErrConflict
		}
	}
	delete(v.s.users, id)
	return nil
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []queue.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

// Types returns the types of the events published so far, in order.
func (p *Publisher) Types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// Events returns a copy of the published events.
func (p *Publisher) Events() []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Event(nil), p.events...)
}
