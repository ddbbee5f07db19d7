package validator

import (
	"context"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
)

// Observer creates request-scoped probes for validation events.
// The probes see why a check failed; the caller never does.
type Observer interface {
	ValidationStarted(ctx context.Context, req *request.Request) (context.Context, ValidationProbe)
	MembershipCheckStarted(ctx context.Context, memberID string) (context.Context, MembershipCheckProbe)
}

// ValidationProbe observes a single Validate call
type ValidationProbe interface {
	CallerAccepted(memberID string)
	CallerRejected(memberID string)
	ValidationFailed(err error)
	End()
}

// MembershipCheckProbe observes a single IsActiveMember call
type MembershipCheckProbe interface {
	CertificateChecked(found bool)
	MemberInfoChecked(info governance.MemberInfo, found bool)
	LookupFailed(mapName string, err error)
	MembershipResolved(active bool)
	End()
}

// NoopObserver ignores all events
type NoopObserver struct{}

func (NoopObserver) ValidationStarted(ctx context.Context, _ *request.Request) (context.Context, ValidationProbe) {
	return ctx, noopProbe{}
}

func (NoopObserver) MembershipCheckStarted(ctx context.Context, _ string) (context.Context, MembershipCheckProbe) {
	return ctx, noopProbe{}
}

type noopProbe struct{}

func (noopProbe) CallerAccepted(string)                         {}
func (noopProbe) CallerRejected(string)                         {}
func (noopProbe) ValidationFailed(error)                        {}
func (noopProbe) CertificateChecked(bool)                       {}
func (noopProbe) MemberInfoChecked(governance.MemberInfo, bool) {}
func (noopProbe) LookupFailed(string, error)                    {}
func (noopProbe) MembershipResolved(bool)                       {}
func (noopProbe) End()                                          {}
