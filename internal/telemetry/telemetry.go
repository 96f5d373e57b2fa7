// Package telemetry provides Prometheus metrics and tracing for the tagger.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "geotagger"
	namespace   = "geotagger"
)

// Outcome labels shared by collaborator metrics.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds the tagging collectors.
type Metrics struct {
	// Request metrics
	EventsTagged    *prometheus.CounterVec
	TaggingDuration *prometheus.HistogramVec
	LocationsPerDoc prometheus.Histogram

	// Pipeline metrics
	Candidates     *prometheus.CounterVec
	Disambiguation *prometheus.CounterVec
	Classification *prometheus.CounterVec
	Audit          *prometheus.CounterVec

	// Collaborator metrics
	CollaboratorRequests *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
}

// Provider wraps the tracer and metrics. It satisfies the observer
// interfaces of the geocoding, disambiguation, classification and audit
// packages.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider registers every collector on reg.
func NewProvider(reg prometheus.Registerer) *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(promauto.With(reg)),
	}
}

func initMetrics(factory promauto.Factory) *Metrics {
	m := &Metrics{}
	initRequestMetrics(factory, m)
	initPipelineMetrics(factory, m)
	initCollaboratorMetrics(factory, m)
	return m
}

func initRequestMetrics(factory promauto.Factory, m *Metrics) {
	m.EventsTagged = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_tagged_total",
		Help:      "Events tagged by mode and outcome",
	}, []string{"mode", "outcome"})

	m.TaggingDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tagging_duration_seconds",
		Help:      "Time to tag a single event",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	m.LocationsPerDoc = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "locations_per_event",
		Help:      "Locations returned per event",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
}

func initPipelineMetrics(factory promauto.Factory, m *Metrics) {
	m.Candidates = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_total",
		Help:      "Location candidates generated by source",
	}, []string{"source"})

	m.Disambiguation = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "disambiguation_total",
		Help:      "Disambiguation group outcomes",
	}, []string{"outcome"})

	m.Classification = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classification_total",
		Help:      "Classifier outcomes per candidate",
	}, []string{"outcome"})

	m.Audit = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Audit stream publish outcomes",
	}, []string{"outcome"})
}

func initCollaboratorMetrics(factory promauto.Factory, m *Metrics) {
	m.CollaboratorRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_requests_total",
		Help:      "Requests to external services by endpoint and outcome",
	}, []string{"collaborator", "endpoint", "outcome"})

	m.CollaboratorDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collaborator_request_duration_seconds",
		Help:      "Latency of requests to external services",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collaborator", "endpoint"})
}

// ObserveCollaborator records one external request.
func (p *Provider) ObserveCollaborator(collaborator, endpoint string, err error, elapsed time.Duration) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	p.Metrics.CollaboratorRequests.WithLabelValues(collaborator, endpoint, outcome).Inc()
	p.Metrics.CollaboratorDuration.WithLabelValues(collaborator, endpoint).Observe(elapsed.Seconds())
}

// ObserveDisambiguation records a disambiguation group outcome.
func (p *Provider) ObserveDisambiguation(outcome string) {
	p.Metrics.Disambiguation.WithLabelValues(outcome).Inc()
}

// ObserveClassification records a classifier outcome.
func (p *Provider) ObserveClassification(outcome string) {
	p.Metrics.Classification.WithLabelValues(outcome).Inc()
}

// ObserveAudit records an audit publish outcome.
func (p *Provider) ObserveAudit(outcome string) {
	p.Metrics.Audit.WithLabelValues(outcome).Inc()
}

// ObserveCandidates adds n candidates from source.
func (p *Provider) ObserveCandidates(source string, n int) {
	if n > 0 {
		p.Metrics.Candidates.WithLabelValues(source).Add(float64(n))
	}
}

// RecordTagging records a finished event.
func (p *Provider) RecordTagging(mode string, success bool, locations int, duration time.Duration) {
	outcome := outcomeOK
	if !success {
		outcome = outcomeError
	}
	p.Metrics.EventsTagged.WithLabelValues(mode, outcome).Inc()
	p.Metrics.TaggingDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if success {
		p.Metrics.LocationsPerDoc.Observe(float64(locations))
	}
}

// StartSpan starts a new trace span.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
