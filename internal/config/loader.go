package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read as configuration.
// Nested keys are separated by a double underscore, e.g. MEMBERGATE_SERVER__GRPC_PORT.
const EnvPrefix = "MEMBERGATE_"

const envNestingSeparator = "__"

// Loader loads configuration from a file, the environment and command-line flags.
// Precedence (highest to lowest): flags, environment, file, defaults.
type Loader struct {
	k    *koanf.Koanf
	path string
}

// NewLoader loads configuration from a file and the environment
func NewLoader(path string) (*Loader, error) {
	return NewLoaderWithFlags(path, nil)
}

// NewLoaderWithFlags loads configuration from a file, the environment and flags.
// An empty path skips the file. Only flags that were set override other sources.
func NewLoaderWithFlags(path string, flags *pflag.FlagSet) (*Loader, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		mapping := GetFlagMapping()
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := mapping[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	return &Loader{k: k, path: path}, nil
}

// Get unmarshals the loaded configuration over the defaults
func (l *Loader) Get() (*Config, error) {
	cfg := Default()
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Path returns the config file the loader read, if any
func (l *Loader) Path() string {
	return l.path
}

// ResolvePath picks the config file path: explicit, then MEMBERGATE_CONFIG, then the
// default location if a file exists there. An empty result means no file.
func ResolvePath(explicit, defaultPath string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(defaultPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultPath
}

// envKey maps MEMBERGATE_STORE__SQL__DSN to store.sql.dsn
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, envNestingSeparator, ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (supported: .yaml, .yml, .json, .toml)", filepath.Ext(path))
	}
}
