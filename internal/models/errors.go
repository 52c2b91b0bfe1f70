package models

import "errors"

// Closed set of domain errors. Callers branch with errors.Is, never on
// message text.
var (
	ErrCartNotFound       = errors.New("cart: not found")
	ErrEmptyCart          = errors.New("cart: no line items")
	ErrProductNotFound    = errors.New("product: not found")
	ErrDuplicateCode      = errors.New("product: code already exists")
	ErrInsufficientStock  = errors.New("product: insufficient stock")
	ErrTicketNotFound     = errors.New("ticket: not found")
	ErrUserNotFound       = errors.New("user: not found")
	ErrDuplicateEmail     = errors.New("user: email already registered")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrSamePassword       = errors.New("user: new password matches current password")
	ErrInvalidID          = errors.New("invalid identifier")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidToken       = errors.New("token invalid or expired")
)
