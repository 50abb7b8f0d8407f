package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/booking"
	"github.com/oceanview/resort-booking/internal/model"
)

// UserService is the administrator's user management.
type UserService struct {
	users UserStore
	log   *zap.Logger
}

func NewUserService(users UserStore, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log.Named("users")}
}

// UserInput is the writable part of a user.  Password is required on
// create and optional on update.
type UserInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=190"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=GUEST STAFF ADMIN"`
}

func (s *UserService) List(ctx context.Context, sess access.Session) ([]model.User, error) {
	if err := sess.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, sess access.Session, id uint64) (*model.User, error) {
	if err := sess.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, sess access.Session, in UserInput) (*model.User, error) {
	if err := sess.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	verr := &booking.ValidationError{}
	if err := booking.ValidateStruct(in); err != nil {
		fe, ok := err.(*booking.ValidationError)
		if !ok {
			return nil, err
		}
		verr = fe
	}
	if in.Password == "" {
		verr.Add("password", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	u := &model.User{Name: in.Name, Email: in.Email, Role: model.Role(in.Role)}
	if err := s.users.Create(ctx, u, in.Password); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Uint64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, sess access.Session, id uint64, in UserInput) (*model.User, error) {
	if err := sess.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	if err := booking.ValidateStruct(in); err != nil {
		return nil, err
	}
	u := &model.User{ID: id, Name: in.Name, Email: in.Email, Role: model.Role(in.Role)}
	if err := s.users.Update(ctx, u, in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, sess access.Session, id uint64) error {
	if err := sess.Require(access.ManageUsers); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Uint64("user_id", id))
	return nil
}
