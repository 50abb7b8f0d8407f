// Package booking holds the pure pieces of the booking workflow: stay
// arithmetic, price quotes and reservation draft validation.  Nothing in
// this package performs I/O.
package booking

import (
	"fmt"
	"math"

	"github.com/oceanview/resort-booking/internal/model"
)

// MaxStayNights is the longest stay a single reservation may cover.
const MaxStayNights = 365

// Stay is a half-open range of nights [CheckIn, CheckOut).
type Stay struct {
	CheckIn  model.Date `json:"checkIn"`
	CheckOut model.Date `json:"checkOut"`
}

// Quote is the price of a stay at a given nightly rate.
type Quote struct {
	Nights int   `json:"totalNights"`
	Total  int64 `json:"totalCost"`
}

// Nights returns the number of nights between two calendar dates.  Dates
// are compared as calendar days so a daylight saving change inside the
// stay never produces a fractional night.  Non-positive ranges and missing
// dates yield zero.
func Nights(checkIn, checkOut model.Date) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	n := checkOut.DaysSince(checkIn)
	switch {
	case n <= 0:
		return 0
	case n > math.MaxInt32:
		// clamp so the count stays representable on 32-bit platforms
		return math.MaxInt32
	}
	return int(n)
}

// Nights returns the night count of the stay.
func (s Stay) Nights() int { return Nights(s.CheckIn, s.CheckOut) }

// QuoteStay prices a stay at rate per night.  A stay with no nights is
// quoted at zero and must not be submitted.  A total that does not fit in
// an int64 is reported as a validation error on totalCost.
func QuoteStay(s Stay, rate int64) (Quote, error) {
	n := s.Nights()
	if n <= 0 || rate < 0 {
		return Quote{}, nil
	}
	if rate > 0 && int64(n) > math.MaxInt64/rate {
		verr := &ValidationError{}
		verr.Add("totalCost", fmt.Sprintf("%d nights at %d per night exceeds the largest supported amount", n, rate))
		return Quote{}, verr
	}
	return Quote{Nights: n, Total: int64(n) * rate}, nil
}

// Validate checks that both dates are present, that check-out follows
// check-in by at most MaxStayNights and that check-in is not before today.
func (s Stay) Validate(today model.Date) error {
	verr := &ValidationError{}
	if s.CheckIn.IsZero() {
		verr.Add("checkIn", "is required")
	}
	if s.CheckOut.IsZero() {
		verr.Add("checkOut", "is required")
	}
	if verr.Empty() {
		if !s.CheckOut.After(s.CheckIn) {
			verr.Add("checkOut", "must be after check-in")
		} else if s.CheckOut.DaysSince(s.CheckIn) > MaxStayNights {
			verr.Add("checkOut", fmt.Sprintf("stay cannot exceed %d nights", MaxStayNights))
		}
		if !today.IsZero() && s.CheckIn.Before(today) {
			verr.Add("checkIn", "cannot be in the past")
		}
	}
	return verr.OrNil()
}
