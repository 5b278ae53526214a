// Package apperr holds the application error taxonomy. Every failure the
// core raises is one of these sentinels; the message text is the contract
// callers see at the API boundary.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated       = errors.New("you must be logged in")
	ErrForbidden             = errors.New("you don't have enough rights")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidOrExpiredToken = errors.New("reset token is invalid or expired")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrEmptyCart             = errors.New("no items in cart")
)

// Status maps a taxonomy error to its HTTP status code. Anything outside
// the taxonomy is an internal error.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrInvalidOrExpiredToken),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrEmptyCart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
