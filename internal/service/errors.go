// Package service implements the booking lifecycle and payment
// verification logic on top of narrow store interfaces.  Handlers
// translate the sentinel errors defined here into HTTP responses.
package service

import "errors"

// ErrValidation is returned when input is outside the accepted
// shape or range, such as a duration outside 1..12 hours.
// Handlers should translate this into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a referenced entity does not
// exist.  Handlers should translate this into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.  Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed due to
// the current state of a record, such as cancelling a booking that
// is already cancelled or completed.  Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidState is returned when a state transition is illegal,
// such as activating a booking for a lot with no free slots or
// creating an order for a booking that is not pending.
var ErrInvalidState = errors.New("invalid state")

// ErrSignatureMismatch is returned when a payment signature does
// not match the HMAC computed under the server held secret.  It
// indicates possible tampering and maps to an HTTP 400.
var ErrSignatureMismatch = errors.New("invalid payment signature")
