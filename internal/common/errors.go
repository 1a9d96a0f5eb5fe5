// Package common defines shared constants and sentinel errors used across
// the server and tooling layers of campusauth. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Contract violations by the caller, e.g. a password length below the minimum.
	ErrInvalidArgument = errors.New("invalid argument")

	// Session lookups.
	ErrSessionNotFound = errors.New("session not found")
)
