package governance

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/alechenninger/membergate/internal/identity"
)

// Snapshot is a point-in-time copy of the member maps, as stored in a file
type Snapshot struct {
	Members []SnapshotMember `json:"members" yaml:"members"`
}

// SnapshotMember is one member entry in a snapshot.
//
// ID defaults to the certificate fingerprint when omitted. Either Certificate or
// Status may be left empty to describe a member present in only one map.
type SnapshotMember struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty"`
	Certificate string       `json:"certificate,omitempty" yaml:"certificate,omitempty"`
	Status      MemberStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// LoadSnapshotFile loads a snapshot from a JSON or YAML file into a new memory store
func LoadSnapshotFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot Snapshot

	// Detect format by extension
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to parse YAML snapshot: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to parse JSON snapshot: %w", err)
		}
	}

	return snapshot.Load()
}

// Load builds a memory store from the snapshot
func (s *Snapshot) Load() (*MemoryStore, error) {
	store := NewMemoryStore()

	for i, m := range s.Members {
		id := m.ID

		if m.Certificate != "" {
			der, err := identity.DecodePEM(m.Certificate)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			if id == "" {
				id = identity.Fingerprint(der)
			}
			store.AddCertificate(id, der)
		}

		if id == "" {
			return nil, fmt.Errorf("member %d: id or certificate is required", i)
		}

		if m.Status != "" {
			store.SetStatus(id, m.Status)
		}
	}

	return store, nil
}
