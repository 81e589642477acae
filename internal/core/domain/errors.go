package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates the uploaded file type is not accepted
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates the uploaded file exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidTransition indicates a status change the state machine forbids
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrQueueFull indicates the bounded task queue cannot accept more work
	ErrQueueFull = errors.New("task queue full")

	// ErrQueueUnavailable indicates the task queue could not accept work
	ErrQueueUnavailable = errors.New("task queue unavailable")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrExtractorUnavailable indicates an extraction tier could not produce a result
	ErrExtractorUnavailable = errors.New("extractor unavailable")
)
