package probe

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/validator"
)

// loggingObserver creates request-scoped logging probes
type loggingObserver struct {
	logger *slog.Logger
}

// NewLoggingValidationObserver creates an observer that logs validation events
// using structured logging with slog.
//
// Rejections are logged with the reason the caller was not active. That reason
// never reaches the caller.
func NewLoggingValidationObserver(logger *slog.Logger) validator.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingObserver{
		logger: logger,
	}
}

func (o *loggingObserver) ValidationStarted(ctx context.Context, req *request.Request) (context.Context, validator.ValidationProbe) {
	checkID := uuid.NewString()
	if req != nil && req.Attributes != nil && req.Attributes.RequestID != "" {
		checkID = req.Attributes.RequestID
	}

	logger := o.logger.With(slog.String("check_id", checkID))

	attrs := []slog.Attr{
		slog.String("member_id", req.CallerID()),
	}
	if req != nil && req.Caller != nil && req.Caller.Policy != "" {
		attrs = append(attrs, slog.String("policy", req.Caller.Policy))
	}
	if req != nil && req.Attributes != nil {
		attrs = append(attrs,
			slog.String("method", req.Attributes.Method),
			slog.String("path", req.Attributes.Path),
			slog.String("ip_address", req.Attributes.IPAddress),
		)
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "Validating caller", attrs...)

	return ctx, &loggingValidationProbe{
		ctx:    ctx,
		logger: logger,
	}
}

func (o *loggingObserver) MembershipCheckStarted(ctx context.Context, memberID string) (context.Context, validator.MembershipCheckProbe) {
	o.logger.LogAttrs(ctx, slog.LevelDebug,
		"Checking membership",
		slog.String("member_id", memberID),
	)

	return ctx, &loggingMembershipProbe{
		ctx:      ctx,
		logger:   o.logger,
		memberID: memberID,
	}
}

// loggingValidationProbe logs events for a single validation
type loggingValidationProbe struct {
	ctx    context.Context
	logger *slog.Logger
}

func (p *loggingValidationProbe) CallerAccepted(memberID string) {
	p.logger.LogAttrs(p.ctx, slog.LevelInfo,
		"Caller accepted",
		slog.String("member_id", memberID),
	)
}

func (p *loggingValidationProbe) CallerRejected(memberID string) {
	p.logger.LogAttrs(p.ctx, slog.LevelWarn,
		"Caller rejected",
		slog.String("member_id", memberID),
	)
}

func (p *loggingValidationProbe) ValidationFailed(err error) {
	p.logger.LogAttrs(p.ctx, slog.LevelError,
		"Caller validation failed",
		slog.String("error", err.Error()),
	)
}

func (p *loggingValidationProbe) End() {
	p.logger.LogAttrs(p.ctx, slog.LevelDebug, "Caller validation completed")
}

// loggingMembershipProbe logs events for a single membership check
type loggingMembershipProbe struct {
	ctx      context.Context
	logger   *slog.Logger
	memberID string

	hasCert bool
	found   bool
	status  governance.MemberStatus
}

func (p *loggingMembershipProbe) CertificateChecked(found bool) {
	p.hasCert = found
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Member certificate looked up",
		slog.String("member_id", p.memberID),
		slog.Bool("found", found),
	)
}

func (p *loggingMembershipProbe) MemberInfoChecked(info governance.MemberInfo, found bool) {
	p.found = found
	p.status = info.Status
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Member info looked up",
		slog.String("member_id", p.memberID),
		slog.Bool("found", found),
		slog.String("status", string(info.Status)),
	)
}

func (p *loggingMembershipProbe) LookupFailed(mapName string, err error) {
	p.logger.LogAttrs(p.ctx, slog.LevelError,
		"Member record lookup failed",
		slog.String("member_id", p.memberID),
		slog.String("map", mapName),
		slog.String("error", err.Error()),
	)
}

func (p *loggingMembershipProbe) MembershipResolved(active bool) {
	attrs := []slog.Attr{
		slog.String("member_id", p.memberID),
		slog.Bool("active", active),
	}
	if !active {
		attrs = append(attrs, slog.String("reason", string(InactiveReason(p.hasCert, p.found, p.status))))
	}
	p.logger.LogAttrs(p.ctx, slog.LevelDebug, "Membership resolved", attrs...)
}

func (p *loggingMembershipProbe) End() {
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Membership check completed",
		slog.String("member_id", p.memberID),
	)
}
