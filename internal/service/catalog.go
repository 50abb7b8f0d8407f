package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/repository"
)

// CatalogService manages rooms and room types.  Reads are public.
type CatalogService struct {
	rooms RoomStore
	types RoomTypeStore
	log   *zap.Logger
}

func NewCatalogService(rooms RoomStore, types RoomTypeStore, log *zap.Logger) *CatalogService {
	return &CatalogService{rooms: rooms, types: types, log: log.Named("catalog")}
}

// RoomInput is the writable part of a room.
type RoomInput struct {
	Name        string   `json:"name" validate:"required,max=120"`
	RoomTypeID  uint64   `json:"roomTypeId" validate:"required"`
	Rate        int64    `json:"rate" validate:"gt=0,lte=1000000000"`
	Capacity    int      `json:"capacity" validate:"gte=1"`
	Status      string   `json:"status" validate:"omitempty,oneof=AVAILABLE MAINTENANCE BOOKED"`
	Description string   `json:"description" validate:"max=2000"`
	Images      []string `json:"images" validate:"max=3,dive,max=512"`
	Amenities   []string `json:"amenities" validate:"dive,max=60"`
}

// RoomTypeInput is the writable part of a room type.
type RoomTypeInput struct {
	Name string `json:"name" validate:"required,max=120"`
	Type string `json:"type" validate:"max=120"`
}

func (s *CatalogService) Rooms(ctx context.Context) ([]model.Room, error) { return s.rooms.List(ctx) }

func (s *CatalogService) Room(ctx context.Context, id uint64) (*model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *CatalogService) RoomTypes(ctx context.Context) ([]model.RoomType, error) {
	return s.types.List(ctx)
}

func (s *CatalogService) RoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	return s.types.GetByID(ctx, id)
}

func (s *CatalogService) roomFromInput(ctx context.Context, in RoomInput) (*model.Room, error) {
	if err := booking.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.types.GetByID(ctx, in.RoomTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			verr := &booking.ValidationError{}
			verr.Add("roomTypeId", "refers to an unknown room type")
			return nil, verr
		}
		return nil, err
	}
	status := model.RoomAvailable
	if in.Status != "" {
		status = model.RoomStatus(in.Status)
	}
	return &model.Room{
		Name:        in.Name,
		RoomTypeID:  in.RoomTypeID,
		Rate:        in.Rate,
		Capacity:    in.Capacity,
		Status:      status,
		Description: in.Description,
		Images:      in.Images,
		Amenities:   in.Amenities,
	}, nil
}

// CreateRoom adds a room to the catalog.
func (s *CatalogService) CreateRoom(ctx context.Context, sess access.Session, in RoomInput) (*model.Room, error) {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return nil, err
	}
	rm, err := s.roomFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Create(ctx, rm); err != nil {
		return nil, err
	}
	s.log.Info("room created", zap.Uint64("room_id", rm.ID), zap.String("name", rm.Name))
	return rm, nil
}

// UpdateRoom replaces a room's writable fields.  Changing the rate never
// affects existing reservations, whose totals are snapshots.
func (s *CatalogService) UpdateRoom(ctx context.Context, sess access.Session, id uint64, in RoomInput) (*model.Room, error) {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rm, err := s.roomFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	rm.ID = id
	if err := s.rooms.Update(ctx, rm); err != nil {
		return nil, err
	}
	s.log.Info("room updated", zap.Uint64("room_id", id), zap.String("status", string(rm.Status)))
	return rm, nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, sess access.Session, id uint64) error {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("room deleted", zap.Uint64("room_id", id))
	return nil
}

func (s *CatalogService) CreateRoomType(ctx context.Context, sess access.Session, in RoomTypeInput) (*model.RoomType, error) {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return nil, err
	}
	if err := booking.ValidateStruct(in); err != nil {
		return nil, err
	}
	t := &model.RoomType{Name: in.Name, Type: in.Type}
	if err := s.types.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogService) UpdateRoomType(ctx context.Context, sess access.Session, id uint64, in RoomTypeInput) (*model.RoomType, error) {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return nil, err
	}
	if err := booking.ValidateStruct(in); err != nil {
		return nil, err
	}
	t := &model.RoomType{ID: id, Name: in.Name, Type: in.Type}
	if err := s.types.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogService) DeleteRoomType(ctx context.Context, sess access.Session, id uint64) error {
	if err := sess.Require(access.ManageCatalog); err != nil {
		return err
	}
	return s.types.Delete(ctx, id)
}
