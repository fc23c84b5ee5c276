package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "contenthub/backend/internal/audit/domain"
)

// AuditSink mirrors audit events to OTel log records so security events land
// in the collector alongside traces. Best-effort; never blocks the caller's
// error path.
type AuditSink struct {
	logger otellog.Logger
}

// NewAuditSink returns a sink emitting via the given LoggerProvider, or nil
// when provider is nil. A nil *AuditSink is safe to call.
func NewAuditSink(provider *sdklog.LoggerProvider) *AuditSink {
	if provider == nil {
		return nil
	}
	return &AuditSink{logger: provider.Logger("contenthub.audit")}
}

// Emit converts the audit event to an OTel log record and emits it.
func (s *AuditSink) Emit(ctx context.Context, e *auditdomain.Event) {
	if s == nil || e == nil {
		return
	}
	rec := otellog.Record{}
	rec.SetTimestamp(e.CreatedAt)
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetBody(otellog.StringValue(e.Action))
	if e.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", e.UserID))
	}
	if e.Resource != "" {
		rec.AddAttributes(otellog.String("resource", e.Resource))
	}
	if e.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", e.IP))
	}
	if e.Metadata != "" {
		rec.AddAttributes(otellog.String("metadata", e.Metadata))
	}
	s.logger.Emit(ctx, rec)
}
