package service

import "errors"

var (
	// ErrDuplicateEmail is returned when a signup collides with an
	// already registered email address.
	ErrDuplicateEmail = errors.New("duplicate_email")

	// ErrInvalidCredentials covers both unknown emails and wrong
	// passwords so callers cannot probe which addresses exist.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccessDenied is returned when a refresh or logout presents a
	// token that does not match the account's current session slot.
	ErrAccessDenied = errors.New("access_denied")

	// ErrNotFound is returned when the referenced account does not exist.
	ErrNotFound = errors.New("not_found")

	// ErrFederationFailure wraps upstream identity provider errors.
	ErrFederationFailure = errors.New("federation_failure")
)
