package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server manages the gRPC and HTTP servers
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	healthServer *health.Server

	grpcPort    int
	httpPort    int
	authzServer *AuthzServer
	api         *APIHandler
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
}

// Config contains server configuration
type Config struct {
	GRPCPort int
	HTTPPort int

	// AuthzServer serves Envoy ext_authz checks
	AuthzServer *AuthzServer

	// API serves the membership HTTP endpoints
	API *APIHandler

	// Gatherer is exposed on /metrics when set
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// New creates a new server with the given configuration
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		grpcPort:    cfg.GRPCPort,
		httpPort:    cfg.HTTPPort,
		authzServer: cfg.AuthzServer,
		api:         cfg.API,
		gatherer:    cfg.Gatherer,
		logger:      logger,
	}
}

// Start starts both the gRPC and HTTP servers
func (s *Server) Start(ctx context.Context) error {
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.grpcPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %d: %w", s.grpcPort, err)
	}

	httpListener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.httpPort))
	if err != nil {
		_ = grpcListener.Close()
		return fmt.Errorf("failed to listen on HTTP port %d: %w", s.httpPort, err)
	}

	return s.Serve(ctx, grpcListener, httpListener)
}

// Serve serves gRPC and HTTP on the given listeners in the background
func (s *Server) Serve(ctx context.Context, grpcListener, httpListener net.Listener) error {
	s.grpcServer = s.newGRPCServer()

	handler, err := s.newHTTPHandler()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler: handler,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	go func() {
		s.logger.Info("gRPC server listening", slog.String("addr", grpcListener.Addr().String()))
		if err := s.grpcServer.Serve(grpcListener); err != nil {
			s.logger.Error("gRPC server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", httpListener.Addr().String()))
		if err := s.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops both servers
func (s *Server) Stop(ctx context.Context) error {
	if s.healthServer != nil {
		s.healthServer.Shutdown()
	}

	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) newGRPCServer() *grpc.Server {
	grpcServer := grpc.NewServer()

	if s.authzServer != nil {
		authv3.RegisterAuthorizationServer(grpcServer, s.authzServer)
	}

	s.healthServer = health.NewServer()
	s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, s.healthServer)

	return grpcServer
}

func (s *Server) newHTTPHandler() (http.Handler, error) {
	mux := NewServeMux()

	if s.api != nil {
		if err := s.api.Register(mux); err != nil {
			return nil, fmt.Errorf("failed to register API handlers: %w", err)
		}
	}

	if s.gatherer != nil {
		metrics := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			metrics.ServeHTTP(w, r)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics handler: %w", err)
		}
	}

	return mux, nil
}
