// Package repository defines the MySQL stores used by the scheduling
// engine and the error values they share.  Lookups that find nothing
// return sql.ErrNoRows unchanged; higher layers translate it into a
// not-found response.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not a party to. Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with an existing row,
// such as a second pending reschedule request for the same session.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSlotNotAvailable is returned when a slot is already booked at the
// moment it is locked.
var ErrSlotNotAvailable = errors.New("slot not available")

// ErrStale is returned by guarded updates whose WHERE clause no longer
// matches because the row changed since it was read.
var ErrStale = errors.New("stale row")
