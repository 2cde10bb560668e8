package ai

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no enhancement service is configured.
var ErrUnavailable = errors.New("enhancement service unavailable")

// ServiceError represents a failed call to an enhancement service.
type ServiceError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("status %d: %s", e.StatusCode, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("enhancement call failed: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("enhancement call failed: %s", msg)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response that could not be decoded into fields.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse enhancement response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse enhancement response: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
