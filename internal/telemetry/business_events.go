package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents provides helper methods for tracing domain operations,
// higher-level than the HTTP spans otelgin produces.
type BusinessEvents struct {
	tracer trace.Tracer
}

// NewBusinessEvents creates a new business events tracer
func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{
		tracer: otel.Tracer("business-events"),
	}
}

// ShareEventAttrs attributes for share pipeline operations
type ShareEventAttrs struct {
	ContentID   string
	ShareKind   string // "friends", "feed", "groups"
	TargetCount int64
	Outcome     string // "success" or the failure category
	SpamScore   int64
}

// TraceShare creates a span covering a full share pipeline run
func (be *BusinessEvents) TraceShare(ctx context.Context, actorID string, attrs ShareEventAttrs) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "share.execute",
		trace.WithAttributes(
			attribute.String("user.id", actorID),
			attribute.String("content.id", attrs.ContentID),
			attribute.String("share.kind", attrs.ShareKind),
		),
	)

	if attrs.TargetCount > 0 {
		span.SetAttributes(attribute.Int64("share.target_count", attrs.TargetCount))
	}

	return ctx, span
}

// FinishShare records the pipeline outcome on the span before it ends
func FinishShare(span trace.Span, attrs ShareEventAttrs) {
	span.SetAttributes(attribute.String("share.outcome", attrs.Outcome))
	if attrs.SpamScore > 0 {
		span.SetAttributes(attribute.Int64("share.spam_score", attrs.SpamScore))
	}
	if attrs.Outcome != "" && attrs.Outcome != "success" {
		span.SetStatus(codes.Error, attrs.Outcome)
	}
}

// TraceSpamAnalysis creates a span for message spam scoring
func (be *BusinessEvents) TraceSpamAnalysis(ctx context.Context, actorID string, messageLength int64) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "share.spam_analysis",
		trace.WithAttributes(
			attribute.String("user.id", actorID),
			attribute.Int64("message.length", messageLength),
		),
	)
	return ctx, span
}

// TracePermissionCheck creates a span for sharing permission evaluation
func (be *BusinessEvents) TracePermissionCheck(ctx context.Context, actorID, contentID string) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "share.permission_check",
		trace.WithAttributes(
			attribute.String("user.id", actorID),
			attribute.String("content.id", contentID),
		),
	)
	return ctx, span
}

// TraceListShares creates a span for share listing reads
func (be *BusinessEvents) TraceListShares(ctx context.Context, scope string, limit, offset int64) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "share.list",
		trace.WithAttributes(
			attribute.String("list.scope", scope),
			attribute.Int64("list.limit", limit),
			attribute.Int64("list.offset", offset),
		),
	)
	return ctx, span
}

// ExternalAPIEventAttrs attributes for external API operations
type ExternalAPIEventAttrs struct {
	Service   string // "stream.io"
	Operation string // "add_activity", "notify"
	Status    string // "success", "error", "timeout"
}

// TraceExternalAPI creates a span for external API calls
func (be *BusinessEvents) TraceExternalAPI(ctx context.Context, service string, operation string) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "external."+service+"."+operation,
		trace.WithAttributes(
			attribute.String("external.service", service),
			attribute.String("external.operation", operation),
		),
	)
	return ctx, span
}

// RecordExternalAPIError records an error in an external API span
func RecordExternalAPIError(span trace.Span, err error, retryable bool) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("external.error.retryable", retryable))
	}
}

var globalBusinessEvents *BusinessEvents

// GetBusinessEvents returns the global business events tracer
func GetBusinessEvents() *BusinessEvents {
	if globalBusinessEvents == nil {
		globalBusinessEvents = NewBusinessEvents()
	}
	return globalBusinessEvents
}
