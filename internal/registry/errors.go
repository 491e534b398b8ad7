// Package registry implements the concurrent client registry (C4): a
// single-mutex collection of admitted sessions keyed by an opaque handle
// and, once authenticated, by nickname.
package registry

import "github.com/nullbridge/c2hat/api"

var (
	// ErrCapacityExceeded is returned by Admit when the registry is full.
	ErrCapacityExceeded = api.NewError(api.ErrCodeCapacityExceeded, "connection limits reached")

	// ErrConflict is returned by SetNickname when the name is already taken.
	ErrConflict = api.NewError(api.ErrCodeConflict, "nickname already in use")

	// ErrInvalidNickname is returned by SetNickname when the name fails the
	// validation rule.
	ErrInvalidNickname = api.NewError(api.ErrCodeProtocol, "invalid nickname")

	// ErrNotFound is returned when a handle has no matching entry, e.g. a
	// SetNickname call racing a Remove.
	ErrNotFound = api.NewError(api.ErrCodeInternal, "session handle not found")
)
