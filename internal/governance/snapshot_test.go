package governance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alechenninger/membergate/internal/identity"
)

func TestLoadSnapshotFile(t *testing.T) {
	ctx := context.Background()

	cert, err := identity.NewStubCertificate("member0", "")
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	t.Run("YAML with derived ids", func(t *testing.T) {
		indented := "      " + strings.ReplaceAll(strings.TrimSpace(cert.PEM), "\n", "\n      ")
		content := "members:\n" +
			"  - status: Active\n" +
			"    certificate: |\n" + indented + "\n" +
			"  - id: accepted-only\n" +
			"    status: Accepted\n"

		path := filepath.Join(t.TempDir(), "members.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write snapshot: %v", err)
		}

		store, err := LoadSnapshotFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		id := cert.Fingerprint()
		has, _ := store.MemberCerts().Has(ctx, id)
		if !has {
			t.Errorf("expected certificate under fingerprint %s", id)
		}

		info, ok, _ := store.MemberInfo().Get(ctx, id)
		if !ok || info.Status != StatusActive {
			t.Errorf("expected Active status for %s, got %+v (found=%v)", id, info, ok)
		}

		has, _ = store.MemberCerts().Has(ctx, "accepted-only")
		if has {
			t.Error("expected no certificate for accepted-only")
		}
		info, ok, _ = store.MemberInfo().Get(ctx, "accepted-only")
		if !ok || info.Status != StatusAccepted {
			t.Errorf("expected Accepted status, got %+v (found=%v)", info, ok)
		}
	})

	t.Run("JSON with explicit id", func(t *testing.T) {
		content := `{"members":[{"id":"m1","status":"Active"}]}`

		path := filepath.Join(t.TempDir(), "members.json")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write snapshot: %v", err)
		}

		store, err := LoadSnapshotFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, ok, _ := store.MemberInfo().Get(ctx, "m1")
		if !ok || !info.IsActive() {
			t.Errorf("expected m1 active, got %+v (found=%v)", info, ok)
		}
	})

	t.Run("member without id or certificate", func(t *testing.T) {
		s := &Snapshot{Members: []SnapshotMember{{Status: StatusActive}}}
		if _, err := s.Load(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid certificate", func(t *testing.T) {
		s := &Snapshot{Members: []SnapshotMember{{ID: "m1", Certificate: "garbage"}}}
		if _, err := s.Load(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSnapshotFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}
