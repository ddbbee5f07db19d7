package probe

import (
	"context"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/validator"
)

// compositeObserver fans events out to several observers
type compositeObserver struct {
	observers []validator.Observer
}

// NewCompositeObserver combines observers into one.
// Probes are notified in the order observers are given.
func NewCompositeObserver(observers ...validator.Observer) validator.Observer {
	var filtered []validator.Observer
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}

	switch len(filtered) {
	case 0:
		return validator.NoopObserver{}
	case 1:
		return filtered[0]
	}

	return &compositeObserver{observers: filtered}
}

func (c *compositeObserver) ValidationStarted(ctx context.Context, req *request.Request) (context.Context, validator.ValidationProbe) {
	probes := make(compositeValidationProbe, 0, len(c.observers))
	for _, o := range c.observers {
		var p validator.ValidationProbe
		ctx, p = o.ValidationStarted(ctx, req)
		probes = append(probes, p)
	}
	return ctx, probes
}

func (c *compositeObserver) MembershipCheckStarted(ctx context.Context, memberID string) (context.Context, validator.MembershipCheckProbe) {
	probes := make(compositeMembershipProbe, 0, len(c.observers))
	for _, o := range c.observers {
		var p validator.MembershipCheckProbe
		ctx, p = o.MembershipCheckStarted(ctx, memberID)
		probes = append(probes, p)
	}
	return ctx, probes
}

type compositeValidationProbe []validator.ValidationProbe

func (ps compositeValidationProbe) CallerAccepted(memberID string) {
	for _, p := range ps {
		p.CallerAccepted(memberID)
	}
}

func (ps compositeValidationProbe) CallerRejected(memberID string) {
	for _, p := range ps {
		p.CallerRejected(memberID)
	}
}

func (ps compositeValidationProbe) ValidationFailed(err error) {
	for _, p := range ps {
		p.ValidationFailed(err)
	}
}

func (ps compositeValidationProbe) End() {
	for _, p := range ps {
		p.End()
	}
}

type compositeMembershipProbe []validator.MembershipCheckProbe

func (ps compositeMembershipProbe) CertificateChecked(found bool) {
	for _, p := range ps {
		p.CertificateChecked(found)
	}
}

func (ps compositeMembershipProbe) MemberInfoChecked(info governance.MemberInfo, found bool) {
	for _, p := range ps {
		p.MemberInfoChecked(info, found)
	}
}

func (ps compositeMembershipProbe) LookupFailed(mapName string, err error) {
	for _, p := range ps {
		p.LookupFailed(mapName, err)
	}
}

func (ps compositeMembershipProbe) MembershipResolved(active bool) {
	for _, p := range ps {
		p.MembershipResolved(active)
	}
}

func (ps compositeMembershipProbe) End() {
	for _, p := range ps {
		p.End()
	}
}
