package services

import "errors"

// Guard failures are expected, user-facing, and never retried automatically.
// Handlers map them to 4xx responses; anything else coming out of a service
// is a store error and surfaces as a generic retryable 500.
var (
	ErrNotFound           = errors.New("registration not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRegistrationClosed = errors.New("registration for this round is closed")
	ErrAlreadyRegistered  = errors.New("already registered for this round")
	ErrRoundFull          = errors.New("round has reached its participant cap")
	ErrWindowClosed       = errors.New("this round has already started")
	ErrRoundNotStarted    = errors.New("this round has not started yet")
	ErrTooLateToCancel    = errors.New("too late to cancel this registration")
	ErrInvalidCheckinCode = errors.New("check-in code does not match your meeting point")
	ErrPartnerNotReady    = errors.New("your partner has not checked in yet")
	ErrNotMatched         = errors.New("no match assigned for this round")
)
