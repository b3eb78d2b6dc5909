package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoSession          = errors.New("no active session")
)

// Absorbed failures. They are logged and degrade the operation instead of
// aborting it, but are still returned where a caller can act on them.
var (
	ErrPersistence          = errors.New("persistence failure")
	ErrBootstrapUnavailable = errors.New("bootstrap source unavailable")
)

// ErrKeyNotFound is returned by key-value stores when a key is absent.
var ErrKeyNotFound = errors.New("key not found")
