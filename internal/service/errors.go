package service

import "errors"

var (
	ErrStepNotFound      = errors.New("step not found")
	ErrOptionNotFound    = errors.New("option not found")
	ErrInvalidStepType   = errors.New("unknown step type")
	ErrAIContextRequired = errors.New("AI context description is required")
	ErrSessionNotOpen    = errors.New("no editing session is open for this conversation")
)
