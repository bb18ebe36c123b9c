// Package repository defines the persistence interfaces for accounts and
// products together with their MongoDB and MySQL implementations.  The
// sentinel values below are shared by every backend so that higher layers
// such as services and handlers can distinguish failure scenarios without
// knowing which driver produced them.
package repository

import "errors"

// ErrNotFound is returned when a lookup or update matches no record.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a unique
// index (username or email for accounts).  The persistence layer is the
// final arbiter of uniqueness; callers map this to a duplicate-account error.
var ErrDuplicate = errors.New("duplicate key")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUnknownField is returned by FindByField for field names that are not
// indexed lookups.  It indicates a programming error rather than bad input.
var ErrUnknownField = errors.New("unknown lookup field")

// ErrEmptyPatch is returned when an update carries no fields to change.
var ErrEmptyPatch = errors.New("nothing to update")
