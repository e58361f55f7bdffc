package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownField      = errors.New("unknown field")
	ErrImmutableField    = errors.New("immutable field")
	ErrEmptyUpdate       = errors.New("no fields to update")
	ErrRateLimited       = errors.New("rate limited")
	ErrInvalidInput      = errors.New("invalid input")
)
