package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alechenninger/membergate/internal/config"
	"github.com/alechenninger/membergate/internal/server"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command
func NewServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the membergate server",
		Long: `Start the membergate gRPC and HTTP servers.

The server will:
  - Listen for gRPC requests (Envoy ext_authz)
  - Listen for HTTP requests (membership API, /healthz, /metrics)
  - Load configuration from file, environment variables, and command-line flags

Configuration precedence (highest to lowest):
  1. Command-line flags
  2. Environment variables (MEMBERGATE_*, nested keys joined by __)
  3. Configuration file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configFile)
		},
	}
}

func runServe(cmd *cobra.Command, configFile string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration (file + env vars + flags)
	cfg, configPath, err := loadConfig(cmd, configFile)
	if err != nil {
		return err
	}

	// 2. Create provider to build all components from config
	provider := config.NewProvider(cfg)
	defer provider.Close()

	logger, err := provider.Logger()
	if err != nil {
		return err
	}

	// 3. Build the server with all handlers wired
	serverCfg, err := provider.ServerConfig(ctx)
	if err != nil {
		return err
	}

	if err := provider.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "Member store is not reachable yet", slog.String("error", err.Error()))
	}

	// 4. Start server
	srv := server.New(serverCfg)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.InfoContext(ctx, "membergate is running",
		slog.Int("grpc_port", serverCfg.GRPCPort),
		slog.Int("http_port", serverCfg.HTTPPort),
		slog.String("store", cfg.Store.Type),
		slog.String("identity_extractor", cfg.Identity.Extractor),
		slog.String("config", configPath),
	)

	// 5. Wait for interrupt signal
	<-ctx.Done()

	logger.Info("Shutting down")

	// 6. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}
