package service

import "errors"

// ErrQuoteMismatch is returned when a create request carries a price or
// night count that differs from the server's quote for the same stay.
var ErrQuoteMismatch = errors.New("quoted total does not match current rate")
