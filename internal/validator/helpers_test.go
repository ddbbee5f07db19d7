package validator

import (
	"context"
	"fmt"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
)

// faultyStore fails lookups on whichever map has an error set
type faultyStore struct {
	certs   governance.Map[[]byte]
	certErr error
	info    governance.Map[governance.MemberInfo]
	infoErr error
}

func (s *faultyStore) MemberCerts() governance.Map[[]byte] {
	if s.certErr != nil {
		return failingMap[[]byte]{err: s.certErr}
	}
	return s.certs
}

func (s *faultyStore) MemberInfo() governance.Map[governance.MemberInfo] {
	if s.infoErr != nil {
		return failingMap[governance.MemberInfo]{err: s.infoErr}
	}
	return s.info
}

type failingMap[V any] struct {
	err error
}

func (m failingMap[V]) Has(context.Context, string) (bool, error) {
	return false, m.err
}

func (m failingMap[V]) Get(context.Context, string) (V, bool, error) {
	var zero V
	return zero, false, m.err
}

// recordingObserver records events as short strings, in order
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) record(format string, args ...any) {
	o.events = append(o.events, fmt.Sprintf(format, args...))
}

func (o *recordingObserver) ValidationStarted(ctx context.Context, _ *request.Request) (context.Context, ValidationProbe) {
	o.record("validation started")
	return ctx, &recordingProbe{o}
}

func (o *recordingObserver) MembershipCheckStarted(ctx context.Context, memberID string) (context.Context, MembershipCheckProbe) {
	o.record("membership check %s", memberID)
	return ctx, &recordingMembershipProbe{o}
}

type recordingProbe struct {
	o *recordingObserver
}

func (p *recordingProbe) CallerAccepted(memberID string) { p.o.record("accepted %s", memberID) }
func (p *recordingProbe) CallerRejected(memberID string) { p.o.record("rejected %s", memberID) }
func (p *recordingProbe) ValidationFailed(err error)     { p.o.record("failed %v", err) }
func (p *recordingProbe) End()                           { p.o.record("validation end") }

type recordingMembershipProbe struct {
	o *recordingObserver
}

func (p *recordingMembershipProbe) CertificateChecked(found bool) {
	p.o.record("certificate found=%v", found)
}

func (p *recordingMembershipProbe) MemberInfoChecked(info governance.MemberInfo, found bool) {
	p.o.record("info found=%v status=%s", found, info.Status)
}

func (p *recordingMembershipProbe) LookupFailed(mapName string, err error) {
	p.o.record("lookup failed %s: %v", mapName, err)
}

func (p *recordingMembershipProbe) MembershipResolved(active bool) {
	p.o.record("resolved active=%v", active)
}

func (p *recordingMembershipProbe) End() {
	p.o.record("membership end")
}
