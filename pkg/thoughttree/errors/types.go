package errors

import "fmt"

// HTTPError represents an HTTP error from an LLM provider.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// OutputParseError indicates the model produced output that could not
// be parsed into the expected structure.
type OutputParseError struct {
	// Input is the raw model output that failed to parse.
	Input string
	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *OutputParseError) Error() string {
	return fmt.Sprintf("output parse error: %s", e.Message)
}

// ValidationError indicates a parsed value violated its contract,
// e.g. a score outside [0, 1].
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TimeoutError indicates a call exceeded its bounded maximum wait.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}
