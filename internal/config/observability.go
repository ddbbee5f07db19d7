package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alechenninger/membergate/internal/probe"
	"github.com/alechenninger/membergate/internal/validator"
)

// NewLogger creates a logger writing to w in the configured format and level
func NewLogger(cfg *ObservabilityConfig, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		cfg = Default().Observability
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.LogFormat) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s (supported: json, text)", cfg.LogFormat)
	}
}

// NewObserver creates a validation observer from configuration.
// Metrics observers register their collectors with reg.
func NewObserver(cfg *ObservabilityConfig, logger *slog.Logger, reg prometheus.Registerer) (validator.Observer, error) {
	if cfg == nil {
		return probe.NewLoggingValidationObserver(logger), nil
	}

	switch cfg.Type {
	case "", "logging":
		return probe.NewLoggingValidationObserver(logger), nil
	case "metrics":
		return probe.NewMetricsObserver(reg)
	case "noop":
		return validator.NoopObserver{}, nil
	case "composite":
		if len(cfg.Observers) == 0 {
			return nil, fmt.Errorf("composite observer requires at least one observer")
		}
		observers := make([]validator.Observer, 0, len(cfg.Observers))
		for i := range cfg.Observers {
			sub := cfg.Observers[i]
			if sub.Type == "composite" {
				return nil, fmt.Errorf("composite observers cannot be nested")
			}
			o, err := NewObserver(&sub, logger, reg)
			if err != nil {
				return nil, fmt.Errorf("failed to create observer %d: %w", i, err)
			}
			observers = append(observers, o)
		}
		return probe.NewCompositeObserver(observers...), nil
	default:
		return nil, fmt.Errorf("unknown observer type: %s (supported: logging, metrics, noop, composite)", cfg.Type)
	}
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (supported: debug, info, warn, error)", level)
	}
}
