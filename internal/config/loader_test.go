package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	loader, err := NewLoader("")
	require.NoError(t, err)

	cfg, err := loader.Get()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoader_Files(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "membergate.yaml", `
server:
  grpc_port: 7000
store:
  type: sqlite
  sql:
    dsn: /tmp/members.db
    migrate: true
`},
		{"json", "membergate.json", `{"server":{"grpc_port":7000},"store":{"type":"sqlite","sql":{"dsn":"/tmp/members.db","migrate":true}}}`},
		{"toml", "membergate.toml", `
[server]
grpc_port = 7000

[store]
type = "sqlite"

[store.sql]
dsn = "/tmp/members.db"
migrate = true
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewLoader(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			cfg, err := loader.Get()
			require.NoError(t, err)

			assert.Equal(t, 7000, cfg.Server.GRPCPort)
			assert.Equal(t, 8080, cfg.Server.HTTPPort, "unset values keep their defaults")
			assert.Equal(t, "sqlite", cfg.Store.Type)
			assert.Equal(t, "/tmp/members.db", cfg.Store.SQL.DSN)
			assert.True(t, cfg.Store.SQL.Migrate)
		})
	}
}

func TestLoader_ObserverList(t *testing.T) {
	path := writeFile(t, "membergate.yaml", `
observability:
  type: composite
  log_level: debug
  observers:
    - type: logging
    - type: metrics
`)

	loader, err := NewLoader(path)
	require.NoError(t, err)
	cfg, err := loader.Get()
	require.NoError(t, err)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "composite", cfg.Observability.Type)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	require.Len(t, cfg.Observability.Observers, 2)
	assert.Equal(t, "metrics", cfg.Observability.Observers[1].Type)
}

func TestLoader_Precedence(t *testing.T) {
	path := writeFile(t, "membergate.yaml", `
server:
  grpc_port: 7000
  http_port: 7001
store:
  redis:
    addr: file:6379
`)

	t.Setenv("MEMBERGATE_SERVER__HTTP_PORT", "7101")
	t.Setenv("MEMBERGATE_STORE__REDIS__ADDR", "env:6379")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--store-redis-addr", "flag:6379"}))

	loader, err := NewLoaderWithFlags(path, flags)
	require.NoError(t, err)
	cfg, err := loader.Get()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.GRPCPort, "file value without overrides")
	assert.Equal(t, 7101, cfg.Server.HTTPPort, "env overrides file")
	assert.Equal(t, "flag:6379", cfg.Store.Redis.Addr, "flag overrides env")
	assert.Equal(t, "memory", cfg.Store.Type, "unset flags do not override defaults")
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := NewLoader(writeFile(t, "membergate.ini", "x=1"))
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := NewLoader(writeFile(t, "membergate.yaml", "server: [unterminated"))
		assert.Error(t, err)
	})
}

func TestResolvePath(t *testing.T) {
	existing := writeFile(t, "membergate.yaml", "{}")

	assert.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml", existing))
	assert.Equal(t, existing, ResolvePath("", existing))
	assert.Equal(t, "", ResolvePath("", filepath.Join(t.TempDir(), "absent.yaml")))

	t.Setenv("MEMBERGATE_CONFIG", "from-env.yaml")
	assert.Equal(t, "from-env.yaml", ResolvePath("", existing))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.sql.dsn", envKey("MEMBERGATE_STORE__SQL__DSN"))
	assert.Equal(t, "server.grpc_port", envKey("MEMBERGATE_SERVER__GRPC_PORT"))
}
