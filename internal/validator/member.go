package validator

import (
	"context"
	"fmt"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/result"
)

// MemberCertValidator accepts callers whose identity is a governance member
// with a registered certificate and an Active status.
//
// Every call reads the store directly. A member deactivated between two calls
// is rejected on the second.
type MemberCertValidator struct {
	store    governance.Store
	observer Observer
}

// Option configures a MemberCertValidator
type Option func(*MemberCertValidator)

// WithObserver sets the observer notified of validation events
func WithObserver(observer Observer) Option {
	return func(v *MemberCertValidator) {
		if observer != nil {
			v.observer = observer
		}
	}
}

// NewMemberCertValidator creates a validator reading member records from store
func NewMemberCertValidator(store governance.Store, opts ...Option) *MemberCertValidator {
	v := &MemberCertValidator{
		store:    store,
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate implements the Validator interface
func (v *MemberCertValidator) Validate(ctx context.Context, req *request.Request) (result.Result[string], error) {
	ctx, probe := v.observer.ValidationStarted(ctx, req)
	defer probe.End()

	if req == nil || req.Caller == nil {
		probe.CallerRejected("")
		return invalidCaller(), nil
	}

	memberID := req.Caller.ID

	active, err := v.IsActiveMember(ctx, memberID)
	if err != nil {
		probe.ValidationFailed(err)
		return result.Result[string]{}, fmt.Errorf("failed to validate caller %q: %w", memberID, err)
	}

	if isActive, _ := active.Get(); !isActive {
		probe.CallerRejected(memberID)
		return invalidCaller(), nil
	}

	probe.CallerAccepted(memberID)
	return result.Succeeded(memberID), nil
}

// IsActiveMember implements the MembershipChecker interface.
// A member is active only if it has a certificate record and a status record
// whose status is Active.
func (v *MemberCertValidator) IsActiveMember(ctx context.Context, memberID string) (result.Result[bool], error) {
	ctx, probe := v.observer.MembershipCheckStarted(ctx, memberID)
	defer probe.End()

	hasCert, err := v.store.MemberCerts().Has(ctx, memberID)
	if err != nil {
		probe.LookupFailed(governance.MemberCertsMap, err)
		return result.Result[bool]{}, fmt.Errorf("failed to look up certificate for %q: %w", memberID, err)
	}
	probe.CertificateChecked(hasCert)

	info, found, err := v.store.MemberInfo().Get(ctx, memberID)
	if err != nil {
		probe.LookupFailed(governance.MemberInfoMap, err)
		return result.Result[bool]{}, fmt.Errorf("failed to look up member info for %q: %w", memberID, err)
	}
	probe.MemberInfoChecked(info, found)

	active := hasCert && found && info.IsActive()
	probe.MembershipResolved(active)

	return result.Succeeded(active), nil
}

var (
	_ Validator         = (*MemberCertValidator)(nil)
	_ MembershipChecker = (*MemberCertValidator)(nil)
)
