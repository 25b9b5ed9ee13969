package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidShape   = errors.New("invalid shape")
	ErrEmptySelection = errors.New("selection is empty")
	ErrUpstream       = errors.New("search api unavailable")
	ErrConflict       = errors.New("concurrent update")
)
