package server

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/alechenninger/membergate/internal/identity"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/result"
	"github.com/alechenninger/membergate/internal/validator"
)

// ClientCertHeader carries a URL-escaped PEM client certificate from a TLS-terminating proxy
const ClientCertHeader = "X-Client-Cert"

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// APIHandler serves the membership HTTP API
type APIHandler struct {
	validator validator.Validator
	checker   validator.MembershipChecker
	extractor identity.Extractor
	health    HealthChecker
	logger    *slog.Logger
	marshaler runtime.Marshaler
}

// APIConfig contains the dependencies of the HTTP API
type APIConfig struct {
	Validator validator.Validator
	Checker   validator.MembershipChecker
	Extractor identity.Extractor

	// Health is optional; without it /healthz always reports ok
	Health HealthChecker
	Logger *slog.Logger
}

// NewAPIHandler creates the HTTP API handler
func NewAPIHandler(cfg APIConfig) *APIHandler {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = identity.FingerprintExtractor{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		validator: cfg.Validator,
		checker:   cfg.Checker,
		extractor: extractor,
		health:    cfg.Health,
		logger:    logger,
		marshaler: &runtime.JSONBuiltin{},
	}
}

// NewServeMux creates the gateway mux the API routes are registered on.
// Path parameters are fully unescaped so SPIFFE IDs can be passed as %2F-escaped
// member ids.
func NewServeMux(opts ...runtime.ServeMuxOption) *runtime.ServeMux {
	opts = append([]runtime.ServeMuxOption{
		runtime.WithUnescapingMode(runtime.UnescapingModeAllCharacters),
	}, opts...)
	return runtime.NewServeMux(opts...)
}

// Register adds the API routes to mux
func (h *APIHandler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		path    string
		handler runtime.HandlerFunc
	}{
		{http.MethodGet, "/v1/members/{member_id}/active", h.handleIsActive},
		{http.MethodPost, "/v1/validate", h.handleValidate},
		{http.MethodGet, "/healthz", h.handleHealth},
	}

	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.path, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *APIHandler) handleIsActive(w http.ResponseWriter, r *http.Request, params map[string]string) {
	memberID := params["member_id"]

	active, err := h.checker.IsActiveMember(r.Context(), memberID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Membership check failed",
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusInternalServerError)
		return
	}

	h.write(w, http.StatusOK, active)
}

func (h *APIHandler) handleValidate(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	ctx := r.Context()

	caller, err := h.callerFromRequest(r)
	if err != nil {
		h.logger.DebugContext(ctx, "No usable client certificate", slog.String("error", err.Error()))
		h.write(w, http.StatusUnauthorized,
			result.Failed[string](validator.ErrorTypeAuthentication, validator.ErrorMessageInvalidCaller))
		return
	}

	res, err := h.validator.Validate(ctx, &request.Request{
		Caller: caller,
		Attributes: &request.RequestAttributes{
			Method:    r.Method,
			Path:      r.URL.Path,
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			RequestID: r.Header.Get("X-Request-Id"),
		},
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Caller validation failed",
			slog.String("member_id", caller.ID),
			slog.String("error", err.Error()),
		)
		h.writeError(w, http.StatusInternalServerError)
		return
	}

	code := http.StatusOK
	if !res.OK() {
		code = http.StatusUnauthorized
	}
	h.write(w, code, res)
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "Health check failed", slog.String("error", err.Error()))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// callerFromRequest prefers the verified TLS peer certificate over the forwarded header
func (h *APIHandler) callerFromRequest(r *http.Request) (*request.Caller, error) {
	var (
		cert    *x509.Certificate
		pemCert string
		err     error
	)

	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
		cert = r.TLS.PeerCertificates[0]
		pemCert = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
	} else {
		pemCert = r.Header.Get(ClientCertHeader)
		cert, err = identity.ParseCertificate(pemCert)
		if err != nil {
			return nil, err
		}
	}

	id, err := h.extractor.IdentityKey(cert)
	if err != nil {
		return nil, err
	}

	return &request.Caller{
		ID:          id,
		Certificate: pemCert,
		Policy:      PolicyMTLS,
	}, nil
}

func (h *APIHandler) write(w http.ResponseWriter, code int, v any) {
	body, err := h.marshaler.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode response", slog.String("error", err.Error()))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.marshaler.ContentType(v))
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func (h *APIHandler) writeError(w http.ResponseWriter, code int) {
	http.Error(w, internalErrorMessage, code)
}
