package service

import "errors"

var (
	ErrNoDeskSelected    = errors.New("no desk selected")
	ErrPastDate          = errors.New("date is in the past")
	ErrDateTooFar        = errors.New("date is too far in the future")
	ErrNotAvailable      = errors.New("desk is not available for the requested slot")
	ErrProfileIncomplete = errors.New("user profile is incomplete")
	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrNoDeskFree        = errors.New("no desk is free for the requested slot")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidDeskInput  = errors.New("invalid desk input")
)
