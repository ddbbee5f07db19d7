package config

// Config is the root configuration structure for membergate
type Config struct {
	// Server configuration (gRPC and HTTP ports)
	Server ServerConfig `koanf:"server"`

	// Identity configures how identity keys are derived from client certificates
	Identity IdentityConfig `koanf:"identity"`

	// Store configures where member records are read from
	Store StoreConfig `koanf:"store"`

	// Observability configuration (logging, metrics)
	Observability *ObservabilityConfig `koanf:"observability"`
}

// ServerConfig contains network-level server settings
type ServerConfig struct {
	// GRPCPort is the port for gRPC services (ext_authz)
	GRPCPort int `koanf:"grpc_port" usage:"gRPC server port (ext_authz)"`

	// HTTPPort is the port for the HTTP API, health and metrics
	HTTPPort int `koanf:"http_port" usage:"HTTP server port (membership API, healthz, metrics)"`

	// MemberHeader is the header the validated member id is forwarded in
	MemberHeader string `koanf:"member_header" usage:"header carrying the validated member id upstream"`
}

// IdentityConfig selects the identity extractor
type IdentityConfig struct {
	// Extractor selects how the identity key is derived
	// Options: "fingerprint" (sha256 of the certificate), "spiffe"
	Extractor string `koanf:"extractor" usage:"identity extractor: fingerprint, spiffe"`

	// TrustDomain restricts SPIFFE identities to one trust domain (spiffe only)
	TrustDomain string `koanf:"trust_domain" usage:"SPIFFE trust domain accepted by the spiffe extractor"`
}

// StoreConfig configures the member record store
type StoreConfig struct {
	// Type selects the store implementation
	// Options: "memory", "snapshot", "redis", "postgres", "sqlite"
	Type string `koanf:"type" usage:"member store type: memory, snapshot, redis, postgres, sqlite"`

	// SnapshotFile is a YAML or JSON member snapshot (snapshot only)
	SnapshotFile string `koanf:"snapshot_file" usage:"path to a YAML or JSON member snapshot"`

	// Redis connection settings (redis only)
	Redis RedisConfig `koanf:"redis"`

	// SQL connection settings (postgres, sqlite)
	SQL SQLConfig `koanf:"sql"`
}

// RedisConfig configures the Redis store
type RedisConfig struct {
	Addr      string `koanf:"addr" usage:"Redis address"`
	Password  string `koanf:"password" usage:"Redis password"`
	DB        int    `koanf:"db" usage:"Redis database number"`
	KeyPrefix string `koanf:"key_prefix" usage:"prefix prepended to member map hash names"`
}

// SQLConfig configures the SQL stores
type SQLConfig struct {
	// DSN is the driver data source name
	DSN string `koanf:"dsn" usage:"SQL data source name"`

	// Migrate creates the member tables on startup if they are missing
	Migrate bool `koanf:"migrate" usage:"create member tables if missing"`
}

// ObservabilityConfig configures application observability
type ObservabilityConfig struct {
	// Type selects the observer implementation
	// Options: "logging", "metrics", "noop", "composite"
	Type string `koanf:"type" usage:"observer type: logging, metrics, noop, composite"`

	// LogLevel sets the log level
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `koanf:"log_level" usage:"log level: debug, info, warn, error"`

	// LogFormat sets the log format
	// Options: "json", "text"
	// Default: "json"
	LogFormat string `koanf:"log_format" usage:"log format: json, text"`

	// Composite observer fields - allows multiple observers
	Observers []ObservabilityConfig `koanf:"observers"`
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCPort:     9090,
			HTTPPort:     8080,
			MemberHeader: "x-member-id",
		},
		Identity: IdentityConfig{
			Extractor: "fingerprint",
		},
		Store: StoreConfig{
			Type: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Observability: &ObservabilityConfig{
			Type:      "logging",
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}
