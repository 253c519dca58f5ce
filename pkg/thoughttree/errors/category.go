// Package errors provides error categorization and retry machinery for
// the LLM-backed generation and evaluation calls.
//
// Every call failure is classified before the orchestrator decides what
// to do with it:
//   - Transient failures are retried with exponential backoff
//   - Malformed failures (unparseable model output) are retried too,
//     since a fresh sample usually parses
//   - Permanent failures drop the candidate immediately
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how a call failure should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: rate limits, timeouts, 5xx responses.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: authentication failures, cancelled contexts.
	CategoryPermanent

	// CategoryMalformed indicates the model produced output that could
	// not be parsed. A retry draws a fresh sample, which usually fixes it.
	CategoryMalformed
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and call context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Attempts is the number of attempts that have been made.
	Attempts int

	// Context describes what call was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient creates a transient error.
func Transient(err error, callContext string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient, Context: callContext}
}

// Permanent creates a permanent error.
func Permanent(err error, callContext string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Context: callContext}
}

// Malformed creates a malformed-output error.
func Malformed(err error, callContext string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryMalformed, Context: callContext}
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	// Already-categorized errors keep their category.
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	// Context errors: a cancelled or timed-out parent context means the
	// whole search is going away, not that the call should be retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryPermanent
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 429, 503, 504:
			return CategoryTransient
		case 401, 403:
			return CategoryPermanent
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient // server errors are often transient
			}
			return CategoryPermanent
		}
	}

	var parseErr *OutputParseError
	if errors.As(err, &parseErr) {
		return CategoryMalformed
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryMalformed
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	// Unknown errors are permanent (fail safe).
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
// Transient failures and malformed model output both qualify.
func IsRetryable(err error) bool {
	switch Categorize(err) {
	case CategoryTransient, CategoryMalformed:
		return true
	default:
		return false
	}
}
