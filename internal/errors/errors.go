// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrConnectionFailed = errors.New("connection failed")
	ErrSchemaMismatch   = errors.New("malformed response schema")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrNoData           = errors.New("no data for requested period")
)

// FetchError represents a fatal failure while fetching data from the
// exchange: authentication, rate-limit exhaustion, network, or schema.
type FetchError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s]: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch error [%s]: %s", e.Endpoint, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(endpoint, message string, err error) *FetchError {
	return &FetchError{
		Endpoint: endpoint,
		Message:  message,
		Err:      err,
	}
}

// ComputeError represents a malformed or inconsistent trade record.
// The offending record is skipped and logged; computation proceeds.
type ComputeError struct {
	Field   string
	Value   string
	Message string
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute error: %s (%q): %s", e.Field, e.Value, e.Message)
}

// NewComputeError creates a new ComputeError.
func NewComputeError(field, value, message string) *ComputeError {
	return &ComputeError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// RenderError represents a chart or report write failure. Fatal for that
// artifact only; other artifacts are still attempted.
type RenderError struct {
	Artifact string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error [%s]: %v", e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new RenderError.
func NewRenderError(artifact string, err error) *RenderError {
	return &RenderError{Artifact: artifact, Err: err}
}

// EnrichmentError represents a failed LLM summarization call. Non-fatal:
// the report renders without the narrative section.
type EnrichmentError struct {
	Provider string
	Err      error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment error [%s]: %v", e.Provider, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// NewEnrichmentError creates a new EnrichmentError.
func NewEnrichmentError(provider string, err error) *EnrichmentError {
	return &EnrichmentError{Provider: provider, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
