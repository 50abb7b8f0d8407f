// Package apitest runs the full HTTP API over the in-memory store for
// handler and client tests.
package apitest

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/handler"
	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/router"
	"github.com/oceanview/resort-booking/internal/service"
	"github.com/oceanview/resort-booking/internal/storetest"
	"github.com/oceanview/resort-booking/internal/utils"
)

// Secret signs every token minted by Token.
const Secret = "apitest-secret"

// Now is the fixed server clock.  Stays in March 2025 are in the future.
var Now = time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)

// API is a running server plus handles on its state.
type API struct {
	Store  *storetest.Store
	Events *storetest.Publisher
	Echo   *echo.Echo
	Server *httptest.Server

	Guest, Other, Staff, Admin model.User
	Room, Maintenance          model.Room
}

// New seeds four users (one per role plus a second guest), an available
// room at 10000 per night and a room under maintenance, and starts a
// server that is closed when the test ends.
func New(t testing.TB) *API {
	t.Helper()
	st := storetest.New()
	events := &storetest.Publisher{}
	log := zap.NewNop()

	reservations := service.NewReservationService(st.Rooms, st.Reservations, st.Invoices, st.Users, events, log,
		service.WithClock(func() time.Time { return Now }))
	e := router.New(router.Handlers{
		Catalog:      handler.NewCatalogHandler(service.NewCatalogService(st.Rooms, st.RoomTypes, log)),
		Reservations: handler.NewReservationHandler(reservations),
		Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(st.Stats)),
		Users:        handler.NewUserHandler(service.NewUserService(st.Users, log)),
	}, router.Options{JWTSecret: Secret, RequestTimeout: 5 * time.Second, Log: log})

	a := &API{Store: st, Events: events, Echo: e}
	a.Guest = st.AddUser("ann", model.RoleGuest)
	a.Other = st.AddUser("bob", model.RoleGuest)
	a.Staff = st.AddUser("sam", model.RoleStaff)
	a.Admin = st.AddUser("ada", model.RoleAdmin)
	a.Room = st.AddRoom("Ocean Suite", 10000, model.RoomAvailable)
	a.Maintenance = st.AddRoom("Garden Room", 8000, model.RoomMaintenance)

	a.Server = httptest.NewServer(e)
	t.Cleanup(a.Server.Close)
	return a
}

// Token returns a bearer token for u valid for an hour.
func Token(t testing.TB, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(Secret, u.ID, string(u.Role), time.Hour)
	require.NoError(t, err)
	return tok.Token
}

// Date is a calendar date in 2025.
func Date(m time.Month, d int) model.Date { return model.NewDate(2025, m, d) }
