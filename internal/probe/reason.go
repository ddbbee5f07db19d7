package probe

import "github.com/alechenninger/membergate/internal/governance"

// Reason explains why a membership check did not find an active member
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoCertificate   Reason = "no_certificate"
	ReasonNoMemberInfo    Reason = "no_member_info"
	ReasonStatusNotActive Reason = "status_not_active"
)

// InactiveReason returns the first check that failed, or ReasonNone if the
// member is active
func InactiveReason(hasCert, found bool, status governance.MemberStatus) Reason {
	switch {
	case !hasCert:
		return ReasonNoCertificate
	case !found:
		return ReasonNoMemberInfo
	case status != governance.StatusActive:
		return ReasonStatusNotActive
	default:
		return ReasonNone
	}
}
