// Package service holds the auth flow orchestrator and the catalog service.
// Handlers call these; they in turn talk to the stores, the media host and
// the event publisher.
package service

import "errors"

var (
	// ErrDuplicateAccount is returned when the username or email is taken,
	// whether detected by the pre-check or by the store's unique index.
	ErrDuplicateAccount = errors.New("an account with that username or email already exists")

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so that callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("wrong username or password")

	// ErrInvalidInput is wrapped around field level validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
