package models

import (
	"time"
)

// Error categories used across the share pipeline
const (
	ErrorCategoryValidation = "validation"
	ErrorCategoryPermission = "permission"
	ErrorCategoryRateLimit  = "rate_limit"
	ErrorCategoryNetwork    = "network"
	ErrorCategoryNotFound   = "not_found"
	ErrorCategoryUnknown    = "unknown"
)

// Error severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// ErrorLog represents a categorized failure recorded by the error logger.
// Repeated (category, message) pairs are deduplicated into occurrence counts.
type ErrorLog struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"index:,type:btree" json:"user_id"`
	Category    string    `gorm:"index:,type:btree" json:"category"`
	Severity    string    `gorm:"index:,type:btree" json:"severity"`
	Message     string    `gorm:"type:text" json:"message"`
	Context     Metadata  `gorm:"type:jsonb" json:"context"`
	Retryable   bool      `json:"retryable"`
	Occurrences int       `json:"occurrences"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IsResolved  bool      `json:"is_resolved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for ErrorLog
func (ErrorLog) TableName() string {
	return "error_logs"
}

// ErrorBatch represents a batch of errors reported by a client
type ErrorBatch struct {
	Errors []ErrorLogPayload `json:"errors"`
}

// ErrorLogPayload is the payload format sent by clients
type ErrorLogPayload struct {
	Category    string                 `json:"category"`
	Severity    string                 `json:"severity"`
	Message     string                 `json:"message"`
	Context     map[string]interface{} `json:"context"`
	Timestamp   int64                  `json:"timestamp"`
	Occurrences int                    `json:"occurrences"`
}

// ErrorStats represents error statistics
type ErrorStats struct {
	TotalErrors          int64            `json:"total_errors"`
	ErrorsBySeverity     map[string]int64 `json:"errors_by_severity"`
	ErrorsByCategory     map[string]int64 `json:"errors_by_category"`
	TopErrors            []TopErrorItem   `json:"top_errors"`
	ErrorTrendHourly     []TrendItem      `json:"error_trend_hourly"`
	AverageErrorsPerHour float64          `json:"average_errors_per_hour"`
}

// TopErrorItem represents a frequently occurring error
type TopErrorItem struct {
	Message  string    `json:"message"`
	Count    int64     `json:"count"`
	Severity string    `json:"severity"`
	LastSeen time.Time `json:"last_seen"`
}

// TrendItem represents an error count at a specific time
type TrendItem struct {
	Hour       time.Time `json:"hour"`
	ErrorCount int64     `json:"error_count"`
}
