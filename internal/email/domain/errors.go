package domain

import "errors"

var (
	ErrEmailNotFound    = errors.New("email not found")
	ErrNoAccount        = errors.New("no gmail account connected")
	ErrNoEmailAddresses = errors.New("no email addresses found for the targeted contacts")
	ErrEmptyQuery       = errors.New("search query is required")
	ErrUnknownMode      = errors.New("unknown search mode")
)
