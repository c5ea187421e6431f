package models

import "errors"

// Application-wide standard errors
var (
	// Common resource/DB errors
	ErrNotFound             = errors.New("resource not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// General request/server errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
