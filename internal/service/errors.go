package service

import "errors"

var (
	// ErrAlreadyActive is returned when a start request finds an unexpired
	// session for the account.
	ErrAlreadyActive = errors.New("engine: an active session already exists")

	// ErrNotOwner is returned when a session command names a session that
	// belongs to a different account.
	ErrNotOwner = errors.New("engine: session belongs to a different account")

	// ErrExpiredBeyondGrace is returned when an extension arrives after the
	// grace window has closed.
	ErrExpiredBeyondGrace = errors.New("engine: session expired beyond the extension grace window")

	// ErrNoActiveSession is returned when no usable active session exists.
	ErrNoActiveSession = errors.New("engine: no active session")

	// ErrInvalidAmount rejects non-positive credit adjustments.
	ErrInvalidAmount = errors.New("engine: amount must be positive")

	// ErrStoreWrite wraps store failures in the critical path of an operation.
	// Callers can retry; state is unchanged unless the message notes otherwise.
	ErrStoreWrite = errors.New("engine: store write failed")
)
