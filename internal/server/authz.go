package server

import (
	"context"
	"errors"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	authv3 "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"

	"github.com/alechenninger/membergate/internal/identity"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/validator"
)

// DefaultMemberHeader carries the validated identity key to the upstream
const DefaultMemberHeader = "x-member-id"

// PolicyMTLS names the authentication policy for certificate-authenticated callers
const PolicyMTLS = "mtls"

const internalErrorMessage = "internal error"

// AuthzServer implements Envoy's ext_authz Authorization service
type AuthzServer struct {
	authv3.UnimplementedAuthorizationServer

	validator validator.Validator
	extractor identity.Extractor

	// MemberHeader is the header the validated identity key is delivered in
	MemberHeader string
}

// NewAuthzServer creates a new ext_authz server
func NewAuthzServer(v validator.Validator, extractor identity.Extractor) *AuthzServer {
	if extractor == nil {
		extractor = identity.FingerprintExtractor{}
	}
	return &AuthzServer{
		validator:    v,
		extractor:    extractor,
		MemberHeader: DefaultMemberHeader,
	}
}

// Check implements the ext_authz check endpoint
func (s *AuthzServer) Check(ctx context.Context, req *authv3.CheckRequest) (*authv3.CheckResponse, error) {
	// 1. Derive the caller identity from the peer certificate Envoy forwarded.
	// Every failure to do so is reported the same way as an inactive member.
	caller, err := s.extractCaller(req)
	if err != nil {
		return s.denyResponse(codes.Unauthenticated, validator.ErrorMessageInvalidCaller), nil
	}

	// 2. Validate the caller against the member records
	result, err := s.validator.Validate(ctx, &request.Request{
		Caller:     caller,
		Attributes: s.buildRequestAttributes(req),
	})
	if err != nil {
		return s.denyResponse(codes.Internal, internalErrorMessage), nil
	}

	memberID, ok := result.Get()
	if !ok {
		message := validator.ErrorMessageInvalidCaller
		if e, ok := result.Error(); ok && e.Message != "" {
			message = e.Message
		}
		return s.denyResponse(codes.Unauthenticated, message), nil
	}

	// 3. Return OK with the member id in a header.
	// The header overwrites any client-supplied copy.
	return &authv3.CheckResponse{
		Status: &status.Status{
			Code: int32(codes.OK),
		},
		HttpResponse: &authv3.CheckResponse_OkResponse{
			OkResponse: &authv3.OkHttpResponse{
				Headers: []*corev3.HeaderValueOption{
					{
						Header: &corev3.HeaderValue{
							Key:   s.MemberHeader,
							Value: memberID,
						},
						AppendAction: corev3.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD,
					},
				},
			},
		},
	}, nil
}

// extractCaller builds the caller from the certificate in the Envoy request
func (s *AuthzServer) extractCaller(req *authv3.CheckRequest) (*request.Caller, error) {
	pemCert := req.GetAttributes().GetSource().GetCertificate()
	if pemCert == "" {
		return nil, identity.ErrNoCertificate
	}

	cert, err := identity.ParseCertificate(pemCert)
	if err != nil {
		return nil, err
	}

	id, err := s.extractor.IdentityKey(cert)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.New("empty identity key")
	}

	return &request.Caller{
		ID:          id,
		Certificate: pemCert,
		Policy:      PolicyMTLS,
	}, nil
}

// buildRequestAttributes extracts request attributes from the Envoy request
func (s *AuthzServer) buildRequestAttributes(req *authv3.CheckRequest) *request.RequestAttributes {
	httpReq := req.GetAttributes().GetRequest().GetHttp()

	attrs := &request.RequestAttributes{
		IPAddress: req.GetAttributes().GetSource().GetAddress().GetSocketAddress().GetAddress(),
	}
	if httpReq == nil {
		return attrs
	}

	attrs.Method = httpReq.GetMethod()
	attrs.Path = httpReq.GetPath()
	attrs.UserAgent = httpReq.GetHeaders()["user-agent"]
	attrs.RequestID = httpReq.GetId()
	if attrs.RequestID == "" {
		attrs.RequestID = httpReq.GetHeaders()["x-request-id"]
	}
	return attrs
}

// denyResponse creates a denial response
func (s *AuthzServer) denyResponse(code codes.Code, message string) *authv3.CheckResponse {
	return &authv3.CheckResponse{
		Status: &status.Status{
			Code:    int32(code),
			Message: message,
		},
		HttpResponse: &authv3.CheckResponse_DeniedResponse{
			DeniedResponse: &authv3.DeniedHttpResponse{
				Status: &typev3.HttpStatus{Code: httpStatusFor(code)},
				Body:   message,
			},
		},
	}
}

// httpStatusFor maps a denial code to the status Envoy returns downstream
func httpStatusFor(code codes.Code) typev3.StatusCode {
	switch code {
	case codes.Unauthenticated:
		return typev3.StatusCode_Unauthorized
	case codes.PermissionDenied:
		return typev3.StatusCode_Forbidden
	default:
		return typev3.StatusCode_InternalServerError
	}
}
