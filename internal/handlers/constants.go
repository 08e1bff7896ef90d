package handlers

import "time"

const (
	// LoginAttempts login requests are allowed per client IP each LoginWindow
	LoginAttempts = 10
	LoginWindow   = time.Minute

	// DefaultResultsLimit is used when GET /api/results has no limit
	DefaultResultsLimit = 20
	MaxResultsLimit     = 200

	// maxBodyBytes caps request bodies; every request payload is tiny
	maxBodyBytes = 1 << 12

	ErrInvalidRequest      = "Invalid request body"
	ErrUnauthorized        = "Please log in first."
	ErrTooManyRequests     = "Too many login attempts. Try again later."
	ErrNoRound             = "No round in progress."
	ErrInternalServerError = "Internal server error"
)
