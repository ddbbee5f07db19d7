// Package governance provides read-only access to the governance member records
// consulted when validating a caller identity.
//
// Two independent maps are exposed: member certificates (presence only) and member
// info (status records). Records are owned and written by the governance subsystem;
// nothing in this package writes member records.
package governance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Map names used by the governance service for member records
const (
	MemberCertsMap = "public:ccf.gov.members.certs"
	MemberInfoMap  = "public:ccf.gov.members.info"
)

// ErrMalformedRecord is returned when a stored record cannot be decoded
var ErrMalformedRecord = errors.New("malformed governance record")

// MemberStatus is the lifecycle status of a governance member
type MemberStatus string

const (
	// StatusAccepted is a registered member that has not been activated yet
	StatusAccepted MemberStatus = "Accepted"

	// StatusActive is a member that has been activated
	StatusActive MemberStatus = "Active"
)

// MemberInfo is the status record stored for a member
type MemberInfo struct {
	Status MemberStatus `json:"status" yaml:"status"`
}

// IsActive reports whether the record's status is Active
func (i MemberInfo) IsActive() bool {
	return i.Status == StatusActive
}

// Map is a read-only key-value mapping keyed by member identity
type Map[V any] interface {
	// Has reports whether key is present
	Has(ctx context.Context, key string) (bool, error)

	// Get returns the value for key and whether it was present.
	// Absence is not an error.
	Get(ctx context.Context, key string) (V, bool, error)
}

// Store exposes the member maps
type Store interface {
	// MemberCerts maps member id to the raw member certificate
	MemberCerts() Map[[]byte]

	// MemberInfo maps member id to the member's status record
	MemberInfo() Map[MemberInfo]
}

// decodeMemberInfo decodes a JSON-encoded status record
func decodeMemberInfo(key string, raw []byte) (MemberInfo, error) {
	var info MemberInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return MemberInfo{}, fmt.Errorf("%w: member info for %q: %v", ErrMalformedRecord, key, err)
	}
	return info, nil
}
