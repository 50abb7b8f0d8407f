// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent records, such as deleting a room that still has
// reservations. Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUnavailable is returned by a conditional reservation insert when the
// room is not bookable or a blocking reservation already covers part of
// the requested range.
var ErrUnavailable = errors.New("room unavailable for the requested dates")

// ErrVersionConflict is returned when a conditional update finds that the
// row changed since the caller read it.  Handlers translate it into an
// HTTP 412 response.
var ErrVersionConflict = errors.New("reservation was modified concurrently")

// ErrEmailExists is returned when a user is created with an email that is
// already registered.
var ErrEmailExists = errors.New("email already exists")
