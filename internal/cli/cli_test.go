package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alechenninger/membergate/internal/identity"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "members.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func TestCheckCmd_MemberID(t *testing.T) {
	snapshot := writeSnapshot(t, `
members:
  - id: m1
    status: Active
    certificate: ""
  - id: m2
    status: Accepted
`)

	tests := []struct {
		name     string
		memberID string
		want     string
		wantErr  bool
	}{
		{"status without certificate", "m1", `"content": false`, true},
		{"accepted", "m2", `"content": false`, true},
		{"unknown", "m5", `"content": false`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "check", tt.memberID,
				"--store-type", "snapshot",
				"--store-snapshot-file", snapshot,
				"--observability-type", "noop",
			)

			if tt.wantErr && !errors.Is(err, errNotValid) {
				t.Errorf("expected errNotValid, got %v", err)
			}
			if !strings.Contains(out, `"success": true`) {
				t.Errorf("expected a successful result, got %s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %s in output, got %s", tt.want, out)
			}
		})
	}
}

func TestCheckCmd_Certificate(t *testing.T) {
	active, err := identity.NewStubCertificate("active", "")
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	stranger, err := identity.NewStubCertificate("stranger", "")
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	var snapshot strings.Builder
	snapshot.WriteString("members:\n  - status: Active\n    certificate: |\n")
	for _, line := range strings.Split(strings.TrimRight(active.PEM, "\n"), "\n") {
		snapshot.WriteString("      " + line + "\n")
	}
	snapshotPath := writeSnapshot(t, snapshot.String())

	dir := t.TempDir()
	activePath := filepath.Join(dir, "active.pem")
	strangerPath := filepath.Join(dir, "stranger.pem")
	if err := os.WriteFile(activePath, []byte(active.PEM), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(strangerPath, []byte(stranger.PEM), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("active member", func(t *testing.T) {
		out, err := execute(t, "check", "--cert", activePath,
			"--store-type", "snapshot", "--store-snapshot-file", snapshotPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, active.Fingerprint()) {
			t.Errorf("expected member id in output, got %s", out)
		}
	})

	t.Run("unknown certificate", func(t *testing.T) {
		out, err := execute(t, "check", "--cert", strangerPath,
			"--store-type", "snapshot", "--store-snapshot-file", snapshotPath)
		if !errors.Is(err, errNotValid) {
			t.Errorf("expected errNotValid, got %v", err)
		}
		if !strings.Contains(out, "Error: invalid caller identity") {
			t.Errorf("expected invalid caller message, got %s", out)
		}
	})

	t.Run("member id and cert are exclusive", func(t *testing.T) {
		_, err := execute(t, "check", "m1", "--cert", activePath)
		if err == nil {
			t.Error("expected argument error")
		}
	})
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"serve", "check"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("expected %s subcommand, got %v (%v)", name, sub, err)
		}
	}

	if cmd.PersistentFlags().Lookup("store-type") == nil {
		t.Error("expected config flags on the root command")
	}
}
