package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder writes share analytics events and computes read-side rollups.
// Writes are best-effort: a failed insert is logged and swallowed so
// analytics can never fail a share.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates an analytics recorder backed by the database
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordSuccess writes a share_success event
func (r *Recorder) RecordSuccess(ctx context.Context, actorID, contentID, shareKind string, targetCount int) {
	event := models.ShareEvent{
		EventType:   models.EventShareSuccess,
		ActorID:     actorID,
		ContentID:   contentID,
		ShareKind:   shareKind,
		TargetCount: targetCount,
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		logger.Log.Warn("failed to record share success event",
			logger.WithUserID(actorID),
			logger.WithContentID(contentID),
			zap.Error(err),
		)
	}
}

// RecordFailure writes a share_failure event with its category and reason
func (r *Recorder) RecordFailure(ctx context.Context, actorID, contentID, shareKind, category, reason string) {
	event := models.ShareEvent{
		EventType: models.EventShareFailure,
		ActorID:   actorID,
		ContentID: contentID,
		ShareKind: shareKind,
		Category:  category,
		Reason:    reason,
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		logger.Log.Warn("failed to record share failure event",
			logger.WithUserID(actorID),
			logger.WithContentID(contentID),
			zap.String("category", category),
			zap.Error(err),
		)
	}
}

// ShareStats is the rollup returned by GetShareStats
type ShareStats struct {
	TotalAttempts int64            `json:"total_attempts"`
	TotalShares   int64            `json:"total_shares"`
	TotalFailures int64            `json:"total_failures"`
	SuccessRate   float64          `json:"success_rate"`
	ByKind        map[string]int64 `json:"by_kind"`
	ByCategory    map[string]int64 `json:"failures_by_category"`
	Timeline      []DayCount       `json:"timeline"`
	PeakHours     []HourCount      `json:"peak_hours"`
	UniqueActors  int64            `json:"unique_actors"`
	TopContents   []ContentCount   `json:"top_contents"`
}

// DayCount is one day in the share timeline
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// HourCount is a share count for an hour of day (0-23)
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// ContentCount is a per-content share count
type ContentCount struct {
	ContentID string `json:"content_id"`
	Count     int64  `json:"count"`
}

// GetShareStats computes the rollup over events since the given time
func (r *Recorder) GetShareStats(ctx context.Context, since time.Time) (*ShareStats, error) {
	stats := &ShareStats{
		ByKind:     map[string]int64{},
		ByCategory: map[string]int64{},
	}
	db := r.db.WithContext(ctx)

	err := db.Model(&models.ShareEvent{}).
		Where("event_type = ? AND created_at >= ?", models.EventShareSuccess, since).
		Count(&stats.TotalShares).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count shares: %w", err)
	}

	err = db.Model(&models.ShareEvent{}).
		Where("event_type = ? AND created_at >= ?", models.EventShareFailure, since).
		Count(&stats.TotalFailures).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count failures: %w", err)
	}

	stats.TotalAttempts = stats.TotalShares + stats.TotalFailures
	if stats.TotalAttempts > 0 {
		stats.SuccessRate = float64(stats.TotalShares) / float64(stats.TotalAttempts)
	}

	var kindRows []struct {
		ShareKind string
		Count     int64
	}
	err = db.Model(&models.ShareEvent{}).
		Select("share_kind, COUNT(*) as count").
		Where("event_type = ? AND created_at >= ?", models.EventShareSuccess, since).
		Group("share_kind").
		Scan(&kindRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by kind: %w", err)
	}
	for _, row := range kindRows {
		stats.ByKind[row.ShareKind] = row.Count
	}

	var categoryRows []struct {
		Category string
		Count    int64
	}
	err = db.Model(&models.ShareEvent{}).
		Select("category, COUNT(*) as count").
		Where("event_type = ? AND created_at >= ?", models.EventShareFailure, since).
		Group("category").
		Scan(&categoryRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by category: %w", err)
	}
	for _, row := range categoryRows {
		stats.ByCategory[row.Category] = row.Count
	}

	err = db.Raw(`
		SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*) AS count
		FROM share_events
		WHERE event_type = ? AND created_at >= ?
		GROUP BY day
		ORDER BY day ASC
	`, models.EventShareSuccess, since).Scan(&stats.Timeline).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	err = db.Raw(`
		SELECT EXTRACT(HOUR FROM created_at)::int AS hour, COUNT(*) AS count
		FROM share_events
		WHERE event_type = ? AND created_at >= ?
		GROUP BY hour
		ORDER BY count DESC
		LIMIT 5
	`, models.EventShareSuccess, since).Scan(&stats.PeakHours).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build peak hours: %w", err)
	}

	err = db.Model(&models.ShareEvent{}).
		Where("event_type = ? AND created_at >= ?", models.EventShareSuccess, since).
		Distinct("actor_id").
		Count(&stats.UniqueActors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unique actors: %w", err)
	}

	err = db.Model(&models.ShareEvent{}).
		Select("content_id, COUNT(*) as count").
		Where("event_type = ? AND created_at >= ? AND content_id <> ''", models.EventShareSuccess, since).
		Group("content_id").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopContents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank contents: %w", err)
	}

	return stats, nil
}
