// Package repository persists lancafe state in postgres. Sentinel errors are
// shared across repositories so services can dispatch on failure kind with
// errors.Is rather than on message text.
package repository

import "errors"

// ErrAccountNotFound represents missing account rows.
var ErrAccountNotFound = errors.New("account not found")

// ErrSessionNotFound represents missing session rows.
var ErrSessionNotFound = errors.New("session not found")

// ErrInsufficientCredits is returned by conditional debits when the balance
// cannot cover the requested amount.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrUsernameTaken is returned when an account insert hits the unique username index.
var ErrUsernameTaken = errors.New("username already taken")
