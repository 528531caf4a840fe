// Package backend provides the Huddle API server.

// This module contains the sharing pipeline and its HTTP surface. The code is
// organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/share: Share orchestrator, structural validation, message filter
// - internal/spam: Spam detection scoring
// - internal/ratelimit: Per-actor sliding-window rate limits
// - internal/permissions: Content sharing permission decisions
// - internal/errlog: Buffered error logging and stats rollups
// - internal/analytics: Share event recording and rollups
// - internal/auth: Authentication and authorization services
// - internal/stream: GetStream integration for activities and notifications
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (auth, rate limiting, metrics, tracing)
// - internal/metrics: Prometheus instruments
// - internal/telemetry: OpenTelemetry tracing

// See the individual package documentation for detailed API reference.
package backend
