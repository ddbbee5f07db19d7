package probe

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/validator"
)

const metricsNamespace = "membergate"

// Validation outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MetricsObserver records validation outcomes and store lookup latency
type MetricsObserver struct {
	validations      *prometheus.CounterVec
	validationTime   prometheus.Histogram
	membershipChecks *prometheus.CounterVec
	lookupFailures   *prometheus.CounterVec
}

// NewMetricsObserver creates a metrics observer and registers its collectors with reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validations_total",
			Help:      "Caller validations by outcome.",
		}, []string{"outcome"}),
		validationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "validation_duration_seconds",
			Help:      "Time taken to validate a caller, including store reads.",
			Buckets:   prometheus.DefBuckets,
		}),
		membershipChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "membership_checks_total",
			Help:      "Membership checks by result and inactive reason.",
		}, []string{"active", "reason"}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_lookup_failures_total",
			Help:      "Failed reads of member records by map.",
		}, []string{"map"}),
	}

	for _, c := range []prometheus.Collector{o.validations, o.validationTime, o.membershipChecks, o.lookupFailures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return o, nil
}

func (o *MetricsObserver) ValidationStarted(ctx context.Context, _ *request.Request) (context.Context, validator.ValidationProbe) {
	return ctx, &metricsValidationProbe{
		observer: o,
		timer:    prometheus.NewTimer(o.validationTime),
	}
}

func (o *MetricsObserver) MembershipCheckStarted(ctx context.Context, _ string) (context.Context, validator.MembershipCheckProbe) {
	return ctx, &metricsMembershipProbe{observer: o}
}

type metricsValidationProbe struct {
	observer *MetricsObserver
	timer    *prometheus.Timer
}

func (p *metricsValidationProbe) CallerAccepted(string) {
	p.observer.validations.WithLabelValues(OutcomeAccepted).Inc()
}

func (p *metricsValidationProbe) CallerRejected(string) {
	p.observer.validations.WithLabelValues(OutcomeRejected).Inc()
}

func (p *metricsValidationProbe) ValidationFailed(error) {
	p.observer.validations.WithLabelValues(OutcomeError).Inc()
}

func (p *metricsValidationProbe) End() {
	p.timer.ObserveDuration()
}

type metricsMembershipProbe struct {
	observer *MetricsObserver

	hasCert bool
	found   bool
	status  governance.MemberStatus
}

func (p *metricsMembershipProbe) CertificateChecked(found bool) {
	p.hasCert = found
}

func (p *metricsMembershipProbe) MemberInfoChecked(info governance.MemberInfo, found bool) {
	p.found = found
	p.status = info.Status
}

func (p *metricsMembershipProbe) LookupFailed(mapName string, _ error) {
	p.observer.lookupFailures.WithLabelValues(mapName).Inc()
}

func (p *metricsMembershipProbe) MembershipResolved(active bool) {
	reason := ReasonNone
	if !active {
		reason = InactiveReason(p.hasCert, p.found, p.status)
	}
	p.observer.membershipChecks.WithLabelValues(fmt.Sprint(active), string(reason)).Inc()
}

func (p *metricsMembershipProbe) End() {}

var _ validator.Observer = (*MetricsObserver)(nil)
