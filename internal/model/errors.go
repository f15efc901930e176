package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Demo job errors
	ErrJobNotFound = errors.New("job not found")
)
