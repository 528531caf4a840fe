package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationMiddleware propagates a correlation ID across requests that
// belong to the same business transaction (X-Correlation-ID header, falling
// back to the request ID). Should run after RequestIDMiddleware.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = c.GetString("request_id")
		}

		c.Set("correlation_id", correlationID)
		c.Header("X-Correlation-ID", correlationID)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() && correlationID != "" {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}

		// Baggage lets background work (stream sends, error flushes) keep
		// the correlation ID
		if correlationID != "" {
			if member, err := baggage.NewMember("correlation_id", correlationID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					c.Request = c.Request.WithContext(
						baggage.ContextWithBaggage(c.Request.Context(), bag))
				}
			}
		}

		c.Next()
	}
}

// SpanEnrichmentMiddleware sets the span status from the final HTTP status.
// Should be added after all other handlers to capture final state.
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			statusCode := c.Writer.Status()

			switch {
			case statusCode >= 500:
				span.SetStatus(codes.Error, "Server error")
			case statusCode == 404:
				span.SetStatus(codes.Unset, "Not found")
			case statusCode >= 400:
				span.SetStatus(codes.Error, "Client error")
			default:
				span.SetStatus(codes.Ok, "")
			}

			if responseSize := c.Writer.Size(); responseSize > 0 {
				span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(responseSize)))
			}
		}
	}
}

// GetCorrelationIDFromContext extracts the correlation ID from baggage.
// Useful in background tasks that need to maintain correlation.
func GetCorrelationIDFromContext(ctx context.Context) string {
	b := baggage.FromContext(ctx)
	for _, member := range b.Members() {
		if member.Key() == "correlation_id" {
			return member.Value()
		}
	}
	return ""
}
