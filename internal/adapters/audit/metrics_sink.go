package audit

import (
	"context"

	"github.com/pulsenet/sessiond/internal/observability/statsd"
	"github.com/pulsenet/sessiond/internal/ports"
)

// MetricsSink counts audit events by action and method.
type MetricsSink struct {
	sink statsd.Sink
}

// NewMetricsSink creates a MetricsSink.
func NewMetricsSink(sink statsd.Sink) *MetricsSink {
	return &MetricsSink{sink: sink}
}

// Record implements ports.AuditSink.
func (s *MetricsSink) Record(_ context.Context, event ports.AuditEvent) {
	if s.sink == nil {
		return
	}
	tags := map[string]string{
		"action": string(event.Action),
	}
	if method, ok := event.Metadata["method"]; ok {
		tags["method"] = method
	}
	s.sink.Count("auth.audit.events", 1, tags)
}
