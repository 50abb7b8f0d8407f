// Package client is a typed HTTP client for the reservation API together
// with the guest and staff workflows built on it: availability checks,
// draft building, approval and payment.  Every call runs under a bounded
// timeout and reports failures as values the caller can retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oceanview/resort-booking/internal/model"
)

// DefaultTimeout bounds each request when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string // bearer token of the acting user
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one API server on behalf of one user.
type Client struct {
	base    string
	token   string
	timeout time.Duration
	hc      *http.Client
}

func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return &Client{
		base:    strings.TrimRight(o.BaseURL, "/"),
		token:   o.Token,
		timeout: o.Timeout,
		hc:      o.HTTPClient,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 for transport
// failures.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsNotFound reports a 404 from the server.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// response carries the headers the workflows care about.
type response struct {
	invoice string
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, hdr http.Header, in, out any) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, err
		}
		body = bytes.NewReader(b)
	}
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return response{}, err
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	meta := response{invoice: res.Header.Get("X-Invoice-Number")}

	if res.StatusCode >= 300 {
		ae := &APIError{Status: res.StatusCode}
		if b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10)); len(b) > 0 {
			_ = json.Unmarshal(b, ae)
		}
		if ae.Code == "" {
			ae.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(res.StatusCode), " ", "_"))
		}
		return meta, ae
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return meta, nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return meta, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return meta, nil
}

func idPath(format string, id uint64) string {
	return fmt.Sprintf(format, strconv.FormatUint(id, 10))
}

func versionHeader(version uint64) http.Header {
	if version == 0 {
		return nil
	}
	return http.Header{"If-Match": {`"` + strconv.FormatUint(version, 10) + `"`}}
}

// Rooms lists the catalog.
func (c *Client) Rooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	_, err := c.do(ctx, http.MethodGet, "/api/rooms", nil, nil, nil, &out)
	return out, err
}

// Room fetches one room.
func (c *Client) Room(ctx context.Context, id uint64) (*model.Room, error) {
	var out model.Room
	if _, err := c.do(ctx, http.MethodGet, idPath("/api/rooms/%s", id), nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckAvailability asks whether the room is free for [checkIn, checkOut).
func (c *Client) CheckAvailability(ctx context.Context, roomID uint64, checkIn, checkOut model.Date) (bool, error) {
	q := url.Values{
		"roomId":   {strconv.FormatUint(roomID, 10)},
		"checkIn":  {checkIn.String()},
		"checkOut": {checkOut.String()},
	}
	var free bool
	_, err := c.do(ctx, http.MethodGet, "/api/reservations/check-availability", q, nil, nil, &free)
	return free, err
}

// CreateReservation submits a built draft.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (*model.Reservation, error) {
	var out model.Reservation
	if _, err := c.do(ctx, http.MethodPost, "/api/reservations", nil, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReservationQuery narrows Reservations.  Zero values match everything.
type ReservationQuery struct {
	GuestID uint64
	RoomID  uint64
	Status  model.ReservationStatus
}

func (q ReservationQuery) values() url.Values {
	v := url.Values{}
	if q.GuestID != 0 {
		v.Set("guestId", strconv.FormatUint(q.GuestID, 10))
	}
	if q.RoomID != 0 {
		v.Set("roomId", strconv.FormatUint(q.RoomID, 10))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return v
}

// Reservations lists reservations visible to the caller.
func (c *Client) Reservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, error) {
	var out []model.Reservation
	_, err := c.do(ctx, http.MethodGet, "/api/reservations", q.values(), nil, nil, &out)
	return out, err
}

// Reservation fetches one reservation.
func (c *Client) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	var out model.Reservation
	if _, err := c.do(ctx, http.MethodGet, idPath("/api/reservations/%s", id), nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetStatus records a review decision.  A non-zero version is sent as
// If-Match.
func (c *Client) SetStatus(ctx context.Context, id uint64, status model.ReservationStatus, version uint64) (*model.Reservation, error) {
	var out model.Reservation
	q := url.Values{"status": {string(status)}}
	if _, err := c.do(ctx, http.MethodPut, idPath("/api/reservations/%s/status", id), q, versionHeader(version), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkPaid captures payment.  It returns the updated reservation and the
// number of the invoice the server issued.
func (c *Client) MarkPaid(ctx context.Context, id uint64, card Card, version uint64) (*model.Reservation, string, error) {
	var (
		out  model.Reservation
		body any
	)
	if card != (Card{}) {
		body = card
	}
	q := url.Values{"status": {string(model.PaymentPaid)}}
	meta, err := c.do(ctx, http.MethodPut, idPath("/api/reservations/%s/payment-status", id), q, versionHeader(version), body, &out)
	if err != nil {
		return nil, "", err
	}
	return &out, meta.invoice, nil
}

// Invoice fetches the invoice of a reservation.
func (c *Client) Invoice(ctx context.Context, reservationID uint64) (*model.Invoice, error) {
	var out model.Invoice
	if _, err := c.do(ctx, http.MethodGet, idPath("/api/invoices/reservation/%s", reservationID), nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardStats fetches the staff dashboard figures.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if _, err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
