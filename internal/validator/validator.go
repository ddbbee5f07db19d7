package validator

import (
	"context"

	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/result"
)

// Error type and message returned for every rejected caller.
// Callers are never told which check failed.
const (
	ErrorTypeAuthentication   = "AuthenticationError"
	ErrorMessageInvalidCaller = "Error: invalid caller identity"
)

// Validator validates the caller identity of an authenticated request
type Validator interface {
	// Validate returns Succeeded with the caller's identity key if the caller is valid,
	// or Failed with an AuthenticationError otherwise.
	// A non-nil error means the underlying records could not be read.
	Validate(ctx context.Context, req *request.Request) (result.Result[string], error)
}

// MembershipChecker reports whether an identity is an active member
type MembershipChecker interface {
	// IsActiveMember always returns a Succeeded result; absent and inactive members
	// both yield false. A non-nil error means the records could not be read.
	IsActiveMember(ctx context.Context, memberID string) (result.Result[bool], error)
}

// invalidCaller is the single failure returned for rejected callers
func invalidCaller() result.Result[string] {
	return result.Failed[string](ErrorTypeAuthentication, ErrorMessageInvalidCaller)
}
