// Package router wires handlers and middleware into an Echo instance.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/oceanview/resort-booking/internal/access"
	"github.com/oceanview/resort-booking/internal/handler"
	"github.com/oceanview/resort-booking/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Catalog      *handler.CatalogHandler
	Reservations *handler.ReservationHandler
	Dashboard    *handler.DashboardHandler
	Users        *handler.UserHandler
	Health       *handler.HealthHandler
}

// Options carries the cross-cutting pieces.  Cache, CachePurge and
// RateLimit may be nil, which disables them.
type Options struct {
	JWTSecret      string
	RequestTimeout time.Duration
	Cache          echo.MiddlewareFunc // public catalog reads
	CachePurge     echo.MiddlewareFunc // catalog writes
	RateLimit      echo.MiddlewareFunc
	Log            *zap.Logger
}

// New builds the API server.
func New(h Handlers, o Options) *echo.Echo {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true // the server logs its own startup line through zap
	e.HidePort = true
	// Every error that escapes a handler is rendered as {"error","message"}.
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	// Middleware runs in registration order.  Recover comes first so a
	// panic anywhere below is turned into a 500 instead of killing the
	// connection; the request id is assigned before the logger reads it.
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(o.Log))
	e.Use(echomw.BodyLimit("1M")) // reservation and catalog bodies are small JSON documents
	if o.RequestTimeout > 0 {
		// Bound every request so a slow database cannot pin a worker forever.
		e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: o.RequestTimeout}))
	}
	// Resolve the caller before rate limiting so user-keyed buckets see
	// the real user.  Invalid tokens are ignored here; JWTAuth on the
	// protected groups still rejects them with 401.
	e.Use(middleware.Identify(o.JWTSecret))
	if o.RateLimit != nil {
		e.Use(o.RateLimit)
	}

	// Mount the route families.  Order does not matter to Echo's router.
	RegisterRoutes(e, h.Health)
	RegisterCatalog(e, h.Catalog, o.JWTSecret, o.Cache, o.CachePurge)
	RegisterReservations(e, h.Reservations, o.JWTSecret)
	RegisterAdmin(e, h.Dashboard, h.Users, o.JWTSecret)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	if h == nil {
		// No database wired (tests): report only that the process is up.
		h = &handler.HealthHandler{}
	}
	// Map GET /healthz to the health handler for load balancers and monitoring.
	e.GET("/healthz", h.Health)
}

// RegisterCatalog mounts the public catalog reads (cached when cache is
// non-nil) and the admin-only catalog writes, which purge the cache when
// purge is non-nil.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, cache, purge echo.MiddlewareFunc) {
	var read []echo.MiddlewareFunc
	if cache != nil {
		read = append(read, cache)
	}
	// Public reads: anyone may browse rooms and room types.
	pub := e.Group("/api")
	pub.GET("/rooms", h.ListRooms, read...)
	pub.GET("/rooms/:id", h.GetRoom, read...)
	pub.GET("/room-types", h.ListRoomTypes, read...)
	pub.GET("/room-types/:id", h.GetRoomType, read...)

	// writes: authenticate, check the capability, then purge on success
	write := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireCapability(access.ManageCatalog)}
	if purge != nil {
		write = append(write, purge)
	}
	g := e.Group("/api", write...)
	g.POST("/rooms", h.CreateRoom)
	g.PUT("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)
	g.POST("/room-types", h.CreateRoomType)
	g.PUT("/room-types/:id", h.UpdateRoomType)
	g.DELETE("/room-types/:id", h.DeleteRoomType)
}

// RegisterReservations mounts the reservation lifecycle and invoice
// lookups.  Each route names the capability it needs; ownership is
// enforced by the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	// Every reservation route needs a caller.
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	can := middleware.RequireCapability

	// Static paths (check-availability, complete-due) are registered next
	// to the :id routes; Echo prefers the static match.
	g.GET("/reservations", h.List, can(access.ViewReservations))
	g.POST("/reservations", h.Create, can(access.CreateReservation))
	g.GET("/reservations/check-availability", h.CheckAvailability, can(access.CheckAvailability))
	g.POST("/reservations/complete-due", h.CompleteDue, can(access.CompleteReservations))
	g.GET("/reservations/:id", h.Get, can(access.ViewReservations))
	g.PUT("/reservations/:id/status", h.UpdateStatus, can(access.ReviewReservation))
	g.PUT("/reservations/:id/payment-status", h.UpdatePaymentStatus, can(access.PayReservation))
	g.DELETE("/reservations/:id", h.Delete, can(access.DeleteReservation))

	// Invoices exist only for paid reservations; guests see their own.
	g.GET("/invoices", h.Invoices, can(access.ViewInvoice))
	g.GET("/invoices/reservation/:id", h.InvoiceByReservation, can(access.ViewInvoice))
}

// RegisterAdmin mounts the dashboard and user management.
func RegisterAdmin(e *echo.Echo, d *handler.DashboardHandler, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	g.GET("/dashboard/stats", d.Stats, middleware.RequireCapability(access.ViewDashboard))

	// User management is ADMIN only.
	users := g.Group("/users", middleware.RequireCapability(access.ManageUsers))
	users.GET("", u.List)
	users.POST("", u.Create)
	users.GET("/:id", u.Get)
	users.PUT("/:id", u.Update)
	users.DELETE("/:id", u.Delete)
}
