package errlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/metrics"
	"github.com/playhuddle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Defaults for the in-memory buffer
const (
	DefaultBufferCap     = 500
	DefaultFlushInterval = 30 * time.Second
)

// Entry is one categorized failure to record
type Entry struct {
	UserID      string
	Category    string
	Severity    string
	Message     string
	Context     models.Metadata
	Retryable   bool
	Occurrences int
	Timestamp   time.Time
}

// Recorder buffers error entries in memory and flushes them to the
// error_logs table in batches, deduplicating repeated (category, message)
// pairs into occurrence counts. The buffer is bounded: on overflow the
// oldest entry is dropped with a warning. Critical entries flush
// immediately.
type Recorder struct {
	db       *gorm.DB
	cap      int
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	buffer []Entry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Recorder
type Option func(*Recorder)

// WithBufferCap overrides the buffer capacity
func WithBufferCap(n int) Option {
	return func(r *Recorder) { r.cap = n }
}

// WithFlushInterval overrides the background flush interval
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) { r.interval = d }
}

// WithClock injects a clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates an error recorder backed by the database
func NewRecorder(db *gorm.DB, opts ...Option) *Recorder {
	r := &Recorder{
		db:       db,
		cap:      DefaultBufferCap,
		interval: DefaultFlushInterval,
		now:      time.Now,
		buffer:   make([]Entry, 0, 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record buffers an entry. Missing severity defaults to "error" and an
// unknown category is coerced to "unknown" so downstream rollups stay
// well-formed. Never blocks on the database except for critical entries.
func (r *Recorder) Record(entry Entry) {
	if entry.Severity == "" {
		entry.Severity = models.SeverityError
	}
	if !validCategory(entry.Category) {
		entry.Category = models.ErrorCategoryUnknown
	}
	if entry.Occurrences <= 0 {
		entry.Occurrences = 1
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	metrics.RecordErrorLogged(entry.Category, entry.Severity)

	r.mu.Lock()
	r.buffer = append(r.buffer, entry)
	if len(r.buffer) > r.cap {
		dropped := r.buffer[0]
		r.buffer = r.buffer[1:]
		logger.Log.Warn("error buffer overflow, dropping oldest entry",
			zap.String("category", dropped.Category),
			zap.String("message", dropped.Message),
		)
	}
	critical := entry.Severity == models.SeverityCritical
	r.mu.Unlock()

	if critical {
		r.Flush(context.Background())
	}
}

// Start launches the background flush loop
func (r *Recorder) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Flush(context.Background())
			case <-r.stop:
				r.Flush(context.Background())
				return
			}
		}
	}()
}

// Stop halts the flush loop after one final flush
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}

// Flush drains the buffer and persists it in one batch. Entries with the
// same (category, message) are merged before hitting the database; an
// existing unresolved row for the pair gets its occurrence count bumped
// instead of a new row.
func (r *Recorder) Flush(ctx context.Context) {
	r.mu.Lock()
	if len(r.buffer) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.buffer
	r.buffer = make([]Entry, 0, 64)
	r.mu.Unlock()

	merged := mergeEntries(batch)

	for _, entry := range merged {
		if err := r.persist(ctx, entry); err != nil {
			logger.Log.Error("failed to persist error log entry",
				zap.String("category", entry.Category),
				zap.String("message", entry.Message),
				zap.Error(err),
			)
		}
	}
}

// BufferLen returns the current buffer size
func (r *Recorder) BufferLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

func (r *Recorder) persist(ctx context.Context, entry Entry) error {
	db := r.db.WithContext(ctx)

	var existing models.ErrorLog
	err := db.Where("category = ? AND message = ? AND is_resolved = false",
		entry.Category, entry.Message).
		First(&existing).Error
	if err == nil {
		return db.Model(&existing).Updates(map[string]interface{}{
			"occurrences": gorm.Expr("occurrences + ?", entry.Occurrences),
			"last_seen":   entry.Timestamp,
			"severity":    maxSeverity(existing.Severity, entry.Severity),
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error log lookup failed: %w", err)
	}

	record := models.ErrorLog{
		ID:          uuid.New().String(),
		UserID:      entry.UserID,
		Category:    entry.Category,
		Severity:    entry.Severity,
		Message:     entry.Message,
		Context:     entry.Context,
		Retryable:   entry.Retryable,
		Occurrences: entry.Occurrences,
		FirstSeen:   entry.Timestamp,
		LastSeen:    entry.Timestamp,
	}
	return db.Create(&record).Error
}

// mergeEntries collapses a batch by (category, message), summing
// occurrences and keeping the widest time range and highest severity
func mergeEntries(batch []Entry) []Entry {
	index := make(map[string]int, len(batch))
	merged := make([]Entry, 0, len(batch))
	for _, entry := range batch {
		key := entry.Category + "\x00" + entry.Message
		if i, ok := index[key]; ok {
			merged[i].Occurrences += entry.Occurrences
			if entry.Timestamp.After(merged[i].Timestamp) {
				merged[i].Timestamp = entry.Timestamp
			}
			merged[i].Severity = maxSeverity(merged[i].Severity, entry.Severity)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

var severityRank = map[string]int{
	models.SeverityInfo:     0,
	models.SeverityWarning:  1,
	models.SeverityError:    2,
	models.SeverityCritical: 3,
}

func maxSeverity(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

func validCategory(c string) bool {
	switch c {
	case models.ErrorCategoryValidation, models.ErrorCategoryPermission,
		models.ErrorCategoryRateLimit, models.ErrorCategoryNetwork,
		models.ErrorCategoryNotFound, models.ErrorCategoryUnknown:
		return true
	}
	return false
}

// Stats computes the read-side rollup over error logs since the given time
func (r *Recorder) Stats(ctx context.Context, since time.Time) (*models.ErrorStats, error) {
	stats := &models.ErrorStats{
		ErrorsBySeverity: map[string]int64{},
		ErrorsByCategory: map[string]int64{},
	}
	db := r.db.WithContext(ctx)

	err := db.Model(&models.ErrorLog{}).
		Where("last_seen >= ?", since).
		Select("COALESCE(SUM(occurrences), 0)").
		Scan(&stats.TotalErrors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}

	var severityRows []struct {
		Severity string
		Count    int64
	}
	err = db.Model(&models.ErrorLog{}).
		Select("severity, COALESCE(SUM(occurrences), 0) as count").
		Where("last_seen >= ?", since).
		Group("severity").
		Scan(&severityRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by severity: %w", err)
	}
	for _, row := range severityRows {
		stats.ErrorsBySeverity[row.Severity] = row.Count
	}

	var categoryRows []struct {
		Category string
		Count    int64
	}
	err = db.Model(&models.ErrorLog{}).
		Select("category, COALESCE(SUM(occurrences), 0) as count").
		Where("last_seen >= ?", since).
		Group("category").
		Scan(&categoryRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by category: %w", err)
	}
	for _, row := range categoryRows {
		stats.ErrorsByCategory[row.Category] = row.Count
	}

	err = db.Model(&models.ErrorLog{}).
		Select("message, occurrences as count, severity, last_seen").
		Where("last_seen >= ?", since).
		Order("occurrences DESC").
		Limit(10).
		Scan(&stats.TopErrors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank errors: %w", err)
	}

	err = db.Raw(`
		SELECT DATE_TRUNC('hour', last_seen) AS hour, COALESCE(SUM(occurrences), 0) AS error_count
		FROM error_logs
		WHERE last_seen >= ?
		GROUP BY hour
		ORDER BY hour ASC
	`, since).Scan(&stats.ErrorTrendHourly).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build error trend: %w", err)
	}

	hours := r.now().Sub(since).Hours()
	if hours >= 1 {
		stats.AverageErrorsPerHour = float64(stats.TotalErrors) / hours
	} else {
		stats.AverageErrorsPerHour = float64(stats.TotalErrors)
	}

	return stats, nil
}

// RecordPayloadBatch converts a client-reported batch into entries.
// Used by the error ingest endpoint.
func (r *Recorder) RecordPayloadBatch(userID string, batch models.ErrorBatch) int {
	accepted := 0
	for _, payload := range batch.Errors {
		if payload.Message == "" {
			continue
		}
		entry := Entry{
			UserID:      userID,
			Category:    payload.Category,
			Severity:    payload.Severity,
			Message:     payload.Message,
			Context:     payload.Context,
			Occurrences: payload.Occurrences,
		}
		if payload.Timestamp > 0 {
			entry.Timestamp = time.UnixMilli(payload.Timestamp)
		}
		r.Record(entry)
		accepted++
	}
	return accepted
}
