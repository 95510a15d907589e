package service

import (
	"errors"
	"fmt"
)

// Expected pipeline outcomes. Handlers map these to HTTP statuses;
// anything not listed here surfaces as an internal error.
var (
	// ErrInvalidVideoRef indicates a missing or unusable video reference.
	ErrInvalidVideoRef = errors.New("missing or invalid video reference")

	// ErrIdentityRequired indicates a recheck was requested anonymously.
	ErrIdentityRequired = errors.New("recheck requires a signed-in requester")

	// ErrNoContentChange indicates a recheck whose title and thumbnail
	// are identical to the previous analysis; no paid work was done.
	ErrNoContentChange = errors.New("recheck blocked: no content change detected")

	// ErrRecheckNoParent indicates a recheck of a video that has never
	// been analyzed.
	ErrRecheckNoParent = errors.New("recheck blocked: video has no previous analysis")

	// ErrTranscriptRequired indicates a recheck could not obtain any
	// transcript. A recheck without spoken content cannot be judged
	// against its parent, so it fails instead of degrading.
	ErrTranscriptRequired = errors.New("recheck requires a transcript")

	// ErrMalformedAIResponse indicates the scoring service returned a
	// response that does not parse as a well-formed verdict. Not
	// retried: malformed structure is unlikely to self-correct.
	ErrMalformedAIResponse = errors.New("malformed AI response")
)

// IneligibleError is an eligibility gate rejection. Code is one of the
// stable reason codes in eligibility.go.
type IneligibleError struct {
	Code    string
	Message string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("content ineligible (%s): %s", e.Code, e.Message)
}

// NotEvaluableError is a terminal not-evaluable verdict, either fresh
// from the scoring call or replayed from a cached record. Distinct from
// a low score: the content has no checkable claims at all.
type NotEvaluableError struct {
	Reason string
	Cached bool
}

func (e *NotEvaluableError) Error() string {
	if e.Reason == "" {
		return "content is not evaluable"
	}
	return "content is not evaluable: " + e.Reason
}
