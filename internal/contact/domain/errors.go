package domain

import "errors"

var (
	ErrContactNotFound   = errors.New("contact not found")
	ErrMethodNotFound    = errors.New("contact method not found")
	ErrMethodExists      = errors.New("contact method value already in use")
	ErrInvalidMethodType = errors.New("invalid contact method type")
	ErrNoMethods         = errors.New("at least one contact method is required")
	ErrNoLinkedIn        = errors.New("contact has no linkedin method")
)
