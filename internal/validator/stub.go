package validator

import (
	"context"
	"sync"

	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/result"
)

// StubValidator is a simple stub validator for testing
// It accepts any caller and returns the caller's id, unless configured otherwise
type StubValidator struct {
	result *result.Result[string]
	err    error

	mu    sync.Mutex
	calls []*request.Request
}

// NewStubValidator creates a new stub validator
func NewStubValidator() *StubValidator {
	return &StubValidator{}
}

// WithResult configures the stub to return a specific result
func (v *StubValidator) WithResult(r result.Result[string]) *StubValidator {
	v.result = &r
	return v
}

// Rejecting configures the stub to reject every caller
func (v *StubValidator) Rejecting() *StubValidator {
	return v.WithResult(invalidCaller())
}

// WithError configures the stub to return an error
func (v *StubValidator) WithError(err error) *StubValidator {
	v.err = err
	return v
}

// Calls returns the requests the stub has seen
func (v *StubValidator) Calls() []*request.Request {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*request.Request(nil), v.calls...)
}

// Validate implements the Validator interface
func (v *StubValidator) Validate(ctx context.Context, req *request.Request) (result.Result[string], error) {
	v.mu.Lock()
	v.calls = append(v.calls, req)
	v.mu.Unlock()

	if v.err != nil {
		return result.Result[string]{}, v.err
	}

	if v.result != nil {
		return *v.result, nil
	}

	if req.CallerID() == "" {
		return invalidCaller(), nil
	}

	return result.Succeeded(req.CallerID()), nil
}

// StubMembershipChecker reports a fixed set of identities as active
type StubMembershipChecker struct {
	active map[string]bool
	err    error
}

// NewStubMembershipChecker creates a checker with no active members
func NewStubMembershipChecker() *StubMembershipChecker {
	return &StubMembershipChecker{active: make(map[string]bool)}
}

// AddActive marks memberID as active
func (c *StubMembershipChecker) AddActive(memberID string) *StubMembershipChecker {
	c.active[memberID] = true
	return c
}

// WithError configures the checker to return an error
func (c *StubMembershipChecker) WithError(err error) *StubMembershipChecker {
	c.err = err
	return c
}

// IsActiveMember implements the MembershipChecker interface
func (c *StubMembershipChecker) IsActiveMember(ctx context.Context, memberID string) (result.Result[bool], error) {
	if c.err != nil {
		return result.Result[bool]{}, c.err
	}
	return result.Succeeded(c.active[memberID]), nil
}

var (
	_ Validator         = (*StubValidator)(nil)
	_ MembershipChecker = (*StubMembershipChecker)(nil)
)
