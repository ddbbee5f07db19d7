package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/identity"
	"github.com/alechenninger/membergate/internal/server"
	"github.com/alechenninger/membergate/internal/validator"
)

// Provider constructs all application components from configuration
// This is the main entry point for building a configured membergate instance
type Provider struct {
	config    *Config
	logOutput io.Writer

	// Lazily constructed components (cached after first call)
	logger    *slog.Logger
	registry  *prometheus.Registry
	store     governance.Store
	observer  validator.Observer
	validator *validator.MemberCertValidator
	extractor identity.Extractor
}

// NewProvider creates a new provider from configuration
func NewProvider(config *Config) *Provider {
	return &Provider{
		config:    config,
		logOutput: os.Stderr,
	}
}

// WithLogOutput redirects logs, e.g. to keep them out of command output
func (p *Provider) WithLogOutput(w io.Writer) *Provider {
	p.logOutput = w
	return p
}

// Logger returns the configured logger
func (p *Provider) Logger() (*slog.Logger, error) {
	if p.logger != nil {
		return p.logger, nil
	}

	logger, err := NewLogger(p.config.Observability, p.logOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	p.logger = logger
	return logger, nil
}

// Registry returns the metrics registry served on /metrics
func (p *Provider) Registry() *prometheus.Registry {
	if p.registry != nil {
		return p.registry
	}

	p.registry = prometheus.NewRegistry()
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p.registry
}

// Store returns the configured member store
func (p *Provider) Store(ctx context.Context) (governance.Store, error) {
	if p.store != nil {
		return p.store, nil
	}

	store, err := NewStore(ctx, p.config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	p.store = store
	return store, nil
}

// Observer returns the configured validation observer
func (p *Provider) Observer() (validator.Observer, error) {
	if p.observer != nil {
		return p.observer, nil
	}

	logger, err := p.Logger()
	if err != nil {
		return nil, err
	}

	observer, err := NewObserver(p.config.Observability, logger, p.Registry())
	if err != nil {
		return nil, fmt.Errorf("failed to create observer: %w", err)
	}

	p.observer = observer
	return observer, nil
}

// Validator returns the member certificate validator
func (p *Provider) Validator(ctx context.Context) (*validator.MemberCertValidator, error) {
	if p.validator != nil {
		return p.validator, nil
	}

	store, err := p.Store(ctx)
	if err != nil {
		return nil, err
	}

	observer, err := p.Observer()
	if err != nil {
		return nil, err
	}

	p.validator = validator.NewMemberCertValidator(store, validator.WithObserver(observer))
	return p.validator, nil
}

// Extractor returns the configured identity extractor
func (p *Provider) Extractor() (identity.Extractor, error) {
	if p.extractor != nil {
		return p.extractor, nil
	}

	extractor, err := identity.NewExtractor(p.config.Identity.Extractor, p.config.Identity.TrustDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity extractor: %w", err)
	}

	p.extractor = extractor
	return extractor, nil
}

// ServerConfig returns the server configuration with all handlers wired
func (p *Provider) ServerConfig(ctx context.Context) (server.Config, error) {
	v, err := p.Validator(ctx)
	if err != nil {
		return server.Config{}, err
	}

	extractor, err := p.Extractor()
	if err != nil {
		return server.Config{}, err
	}

	logger, err := p.Logger()
	if err != nil {
		return server.Config{}, err
	}

	authz := server.NewAuthzServer(v, extractor)
	if p.config.Server.MemberHeader != "" {
		authz.MemberHeader = p.config.Server.MemberHeader
	}

	var health server.HealthChecker
	if h, ok := p.store.(server.HealthChecker); ok {
		health = h
	}

	return server.Config{
		GRPCPort:    p.config.Server.GRPCPort,
		HTTPPort:    p.config.Server.HTTPPort,
		AuthzServer: authz,
		API: server.NewAPIHandler(server.APIConfig{
			Validator: v,
			Checker:   v,
			Extractor: extractor,
			Health:    health,
			Logger:    logger,
		}),
		Gatherer: p.Registry(),
		Logger:   logger,
	}, nil
}

// Close releases the store's connections, if it holds any
func (p *Provider) Close() error {
	if c, ok := p.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var errNoStore = errors.New("store not created")

// Ping checks the store is reachable, for stores that support it
func (p *Provider) Ping(ctx context.Context) error {
	if p.store == nil {
		return errNoStore
	}
	if h, ok := p.store.(server.HealthChecker); ok {
		return h.Ping(ctx)
	}
	return nil
}
