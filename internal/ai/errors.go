package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when AI features are used without a key.
	ErrNoAPIKey = errors.New("AI features are disabled: no API key configured")
	// ErrNoDocument is returned when there is nothing to send.
	ErrNoDocument = errors.New("no JSON document loaded")
	// ErrNoValidPath is returned by Query when the model could not produce a
	// usable path.
	ErrNoValidPath = errors.New("could not determine a valid path for the query")
)

// FailureKind classifies a failed completion.
type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureStatus  FailureKind = "status"
	FailureBlocked FailureKind = "blocked"
	FailureParse   FailureKind = "parse"
	FailureEmpty   FailureKind = "empty"
)

// snippetLimit bounds how much of a raw response a failure carries.
const snippetLimit = 500

// Failure is a completion that did not yield text. It is shown to the user
// and never changes the viewer state.
type Failure struct {
	Kind FailureKind
	// Status is the HTTP status for FailureStatus.
	Status int
	// Reason is the block reason, content type, or a short description.
	Reason string
	// Detail is a response snippet or the safety ratings.
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureStatus:
		msg := fmt.Sprintf("API error: %d %s", f.Status, f.Reason)
		if f.Detail != "" {
			msg += ". Response: " + f.Detail
		}
		return msg
	case FailureBlocked:
		return fmt.Sprintf("content blocked by API. Reason: %s. Safety ratings: %s", f.Reason, f.Detail)
	case FailureNetwork:
		return fmt.Sprintf("network error: %v", f.Err)
	case FailureParse:
		msg := "failed to parse API response: " + f.Reason
		if f.Detail != "" {
			msg += ". Response: " + f.Detail
		}
		return msg
	default:
		return "could not extract text from API response"
	}
}

func (f *Failure) Unwrap() error { return f.Err }

func snippet(b []byte) string {
	s := string(b)
	if len(s) > snippetLimit {
		return s[:snippetLimit]
	}
	return s
}
