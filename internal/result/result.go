// Package result provides the tagged success/failure outcome returned by validators.
//
// A Result is either Succeeded, carrying content, or Failed, carrying an error type and
// message. The zero value is a failure, and the content is only reachable through
// accessors that also report success, so a failed result cannot be read as a valid one.
package result

import (
	"encoding/json"
	"fmt"
)

// Error describes why a result failed
type Error struct {
	// Type classifies the failure (e.g., "AuthenticationError")
	Type string `json:"errorType"`

	// Message is the human-readable failure message
	Message string `json:"errorMessage"`
}

// Result is the outcome of a validation
type Result[T any] struct {
	success bool
	content T
	err     Error
}

// Succeeded returns a successful result carrying content
func Succeeded[T any](content T) Result[T] {
	return Result[T]{success: true, content: content}
}

// Failed returns a failed result with the given error type and message
func Failed[T any](errorType, errorMessage string) Result[T] {
	return Result[T]{err: Error{Type: errorType, Message: errorMessage}}
}

// OK reports whether the result succeeded
func (r Result[T]) OK() bool {
	return r.success
}

// Get returns the content and true if the result succeeded.
// On failure it returns the zero value of T and false.
func (r Result[T]) Get() (T, bool) {
	if !r.success {
		var zero T
		return zero, false
	}
	return r.content, true
}

// Error returns the failure details and true if the result failed
func (r Result[T]) Error() (Error, bool) {
	if r.success {
		return Error{}, false
	}
	return r.err, true
}

// String implements fmt.Stringer
func (r Result[T]) String() string {
	if r.success {
		return fmt.Sprintf("Succeeded(%v)", r.content)
	}
	return fmt.Sprintf("Failed(%s: %s)", r.err.Type, r.err.Message)
}

// wireResult is the JSON shape of a Result
type wireResult[T any] struct {
	Success bool   `json:"success"`
	Content *T     `json:"content,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// MarshalJSON encodes a success as {"success":true,"content":...} and a failure as
// {"success":false,"error":{"errorType":...,"errorMessage":...}}
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.success {
		content := r.content
		return json.Marshal(wireResult[T]{Success: true, Content: &content})
	}
	errCopy := r.err
	return json.Marshal(wireResult[T]{Success: false, Error: &errCopy})
}

// UnmarshalJSON decodes the shape produced by MarshalJSON
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var w wireResult[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	if w.Success {
		if w.Content == nil {
			return fmt.Errorf("successful result is missing content")
		}
		*r = Succeeded(*w.Content)
		return nil
	}

	if w.Error == nil {
		return fmt.Errorf("failed result is missing error")
	}
	*r = Failed[T](w.Error.Type, w.Error.Message)
	return nil
}
