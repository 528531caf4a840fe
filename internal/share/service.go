package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playhuddle/backend/internal/analytics"
	"github.com/playhuddle/backend/internal/errlog"
	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/metrics"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/permissions"
	"github.com/playhuddle/backend/internal/ratelimit"
	"github.com/playhuddle/backend/internal/spam"
	"github.com/playhuddle/backend/internal/stream"
	"github.com/playhuddle/backend/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// historyWindow bounds how long attempt history is kept per actor for
// the spam detector's context scoring
const historyWindow = 15 * time.Minute

// rate limit action names, one window per share kind
const (
	actionShareFriends = "share_friends"
	actionShareFeed    = "share_feed"
	actionShareGroups  = "share_groups"
)

// Unshare errors, mapped to HTTP statuses by the handler layer
var (
	ErrShareNotFound = errors.New("share not found")
	ErrNotShareOwner = errors.New("share belongs to another user")
)

// Outcome is the result of a share attempt. Exactly one of Success or
// Category+Message is meaningful; Warnings may accompany either.
type Outcome struct {
	Success bool           `json:"success"`
	Share   *models.Share  `json:"share,omitempty"`
	Repost  *models.Repost `json:"repost,omitempty"`

	// On failure
	Category string   `json:"category,omitempty"`
	Message  string   `json:"message,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	// Advisory in both cases
	Warnings       []string `json:"warnings,omitempty"`
	ValidTargets   []string `json:"valid_targets,omitempty"`
	InvalidTargets []string `json:"invalid_targets,omitempty"`
	RetryAfter     int      `json:"retry_after,omitempty"`
}

// Service orchestrates the share pipeline: structural validation, rate
// limiting, permission checks, target validation, message filtering and
// spam analysis, persistence, notifications, and analytics. No failure in
// any stage escapes as a panic or raw error; every outcome is categorized
// and sanitized for the caller.
type Service struct {
	db        *gorm.DB
	validator *StructValidator
	perms     *permissions.Validator
	limiter   *ratelimit.Limiter
	events    *analytics.Recorder
	errs      *errlog.Recorder
	stream    stream.StreamClientInterface
	now       func() time.Time

	mu      sync.Mutex
	history map[string][]spam.HistoryEntry

	// Async lets tests run notification fan-out synchronously
	Async bool
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithServiceClock injects a clock, used by tests
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wires the share pipeline together
func NewService(
	db *gorm.DB,
	validator *StructValidator,
	perms *permissions.Validator,
	limiter *ratelimit.Limiter,
	events *analytics.Recorder,
	errs *errlog.Recorder,
	streamClient stream.StreamClientInterface,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		db:        db,
		validator: validator,
		perms:     perms,
		limiter:   limiter,
		events:    events,
		errs:      errs,
		stream:    streamClient,
		now:       time.Now,
		history:   make(map[string][]spam.HistoryEntry),
		Async:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShareToFriends shares content directly with a list of friends
func (s *Service) ShareToFriends(ctx context.Context, req *Request) Outcome {
	req.ShareKind = models.ShareKindFriends
	return s.share(ctx, req, actionShareFriends)
}

// ShareToFeed reposts content to the actor's own feed
func (s *Service) ShareToFeed(ctx context.Context, req *Request) Outcome {
	req.ShareKind = models.ShareKindFeed
	req.Targets = []string{models.FeedTarget}
	return s.share(ctx, req, actionShareFeed)
}

// ShareToGroups shares content into groups the actor belongs to
func (s *Service) ShareToGroups(ctx context.Context, req *Request) Outcome {
	req.ShareKind = models.ShareKindGroups
	return s.share(ctx, req, actionShareGroups)
}

func (s *Service) share(ctx context.Context, req *Request, action string) (out Outcome) {
	start := s.now()
	defer func() {
		if out.Success {
			metrics.RecordShareSuccess(req.ShareKind, s.now().Sub(start).Seconds(), len(out.ValidTargets))
		} else {
			metrics.RecordShareOutcome(req.ShareKind, out.Category)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("panic in share pipeline",
				logger.WithUserID(req.ActorID),
				logger.WithContentID(req.ContentID),
				zap.Any("panic", r),
			)
			s.recordFailure(ctx, req, models.ErrorCategoryUnknown,
				fmt.Sprintf("panic: %v", r), models.SeverityCritical)
			out = s.failure(models.ErrorCategoryUnknown, nil)
		}
	}()

	req.Targets = NormalizeTargets(req.Targets)

	// 1. Structural validation
	validation, err := s.validator.ValidateShareRequest(ctx, req)
	if err != nil {
		s.recordFailure(ctx, req, models.ErrorCategoryUnknown, err.Error(), models.SeverityError)
		return s.failure(models.ErrorCategoryUnknown, nil)
	}
	if !validation.IsValid {
		category := models.ErrorCategoryValidation
		if validation.NotFound {
			category = models.ErrorCategoryNotFound
		}
		s.recordFailure(ctx, req, category, strings.Join(validation.Errors, "; "), models.SeverityInfo)
		out := s.failure(category, validation.Warnings)
		out.Errors = validation.Errors
		return out
	}

	// 2. Rate limit (check only; recorded after success)
	limit := s.limiter.Check(ctx, req.ActorID, action)
	if !limit.Allowed {
		metrics.RecordRateLimitExceeded("actor", action)
		s.recordFailure(ctx, req, models.ErrorCategoryRateLimit, limit.Reason, models.SeverityInfo)
		out := s.failure(models.ErrorCategoryRateLimit, validation.Warnings)
		out.RetryAfter = limit.RetryAfter
		return out
	}

	// 3. Content-level permission
	permCtx, permSpan := telemetry.GetBusinessEvents().TracePermissionCheck(ctx, req.ActorID, req.ContentID)
	decision, err := s.perms.ValidateSharing(permCtx, req.ContentID, req.ActorID)
	permSpan.End()
	if err != nil {
		if errors.Is(err, permissions.ErrContentNotFound) {
			s.recordFailure(ctx, req, models.ErrorCategoryNotFound, "content not found", models.SeverityInfo)
			return s.failure(models.ErrorCategoryNotFound, validation.Warnings)
		}
		s.recordFailure(ctx, req, models.ErrorCategoryUnknown, err.Error(), models.SeverityError)
		return s.failure(models.ErrorCategoryUnknown, validation.Warnings)
	}
	if !decision.CanShare || !decision.Allows(req.ShareKind) {
		s.recordFailure(ctx, req, models.ErrorCategoryPermission, decision.Reason, models.SeverityInfo)
		return s.failure(models.ErrorCategoryPermission, validation.Warnings)
	}

	// 4. Kind-specific target validation, narrowing to the valid subset
	validTargets, invalidTargets := s.partitionTargets(ctx, req)
	if len(validTargets) == 0 {
		s.recordFailure(ctx, req, models.ErrorCategoryValidation, "no valid targets", models.SeverityInfo)
		out := s.failure(models.ErrorCategoryValidation, validation.Warnings)
		out.Errors = []string{"no valid targets"}
		out.InvalidTargets = invalidTargets
		return out
	}

	// 5. Message filtering and spam analysis
	filtered, violations := FilterMessage(req.Message)
	warnings := append(validation.Warnings, violations...)

	_, spamSpan := telemetry.GetBusinessEvents().TraceSpamAnalysis(ctx, req.ActorID, int64(len(filtered)))
	analysis, reasons := AnalyzeMessage(filtered, s.historyContext(req.ActorID))
	spamSpan.End()
	metrics.RecordSpamScore(req.ShareKind, analysis.Score, analysis.Score >= spam.BlockThreshold)
	s.rememberAttempt(req.ActorID, filtered, validTargets)
	// Detector reasons are advisory at any score; only blocking is gated
	// on the threshold
	warnings = append(warnings, reasons...)
	if analysis.Score >= spam.BlockThreshold {
		s.recordFailure(ctx, req, models.ErrorCategoryValidation,
			fmt.Sprintf("message blocked as spam (score %d)", analysis.Score), models.SeverityWarning)
		out := s.failure(models.ErrorCategoryValidation, warnings)
		out.Errors = []string{"message was flagged as spam"}
		return out
	}

	// 6. Persist
	content := decision.Content
	shareRecord, repost, err := s.persist(ctx, req, content, filtered, validTargets)
	if err != nil {
		logger.Log.Error("failed to persist share",
			logger.WithUserID(req.ActorID),
			logger.WithContentID(req.ContentID),
			zap.Error(err),
		)
		s.recordFailure(ctx, req, models.ErrorCategoryUnknown, err.Error(), models.SeverityError)
		return s.failure(models.ErrorCategoryUnknown, warnings)
	}

	// 7. The action counts against the actor's limits only once it succeeded
	s.limiter.Record(ctx, req.ActorID, action)

	// 8. Notifications, fire-and-forget
	s.dispatch(func() { s.notify(shareRecord, repost, content) })

	// 9. Analytics
	s.events.RecordSuccess(ctx, req.ActorID, req.ContentID, req.ShareKind, len(validTargets))

	logger.Log.Info("content shared",
		logger.WithUserID(req.ActorID),
		logger.WithContentID(req.ContentID),
		logger.WithShareID(shareRecord.ID),
		logger.WithShareKind(req.ShareKind),
		zap.Int("target_count", len(validTargets)),
	)

	return Outcome{
		Success:        true,
		Share:          shareRecord,
		Repost:         repost,
		Warnings:       warnings,
		ValidTargets:   validTargets,
		InvalidTargets: invalidTargets,
	}
}

// Unshare soft-deletes a share the actor previously created. Feed shares
// also lose their repost and give back the content's share count bump.
// Removing the stream activity is fire-and-forget and cannot fail the
// unshare.
func (s *Service) Unshare(ctx context.Context, actorID, shareID string) error {
	var shareRecord models.Share
	err := s.db.WithContext(ctx).First(&shareRecord, "id = ?", shareID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShareNotFound
		}
		return fmt.Errorf("failed to load share: %w", err)
	}
	if shareRecord.ActorID != actorID {
		return ErrNotShareOwner
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Share{}, "id = ?", shareRecord.ID).Error; err != nil {
			return fmt.Errorf("failed to delete share: %w", err)
		}
		if shareRecord.ShareKind != models.ShareKindFeed {
			return nil
		}
		if err := tx.Delete(&models.Repost{}, "share_id = ?", shareRecord.ID).Error; err != nil {
			return fmt.Errorf("failed to delete repost: %w", err)
		}
		err := tx.Model(&models.Content{}).
			Where("id = ?", shareRecord.ContentID).
			Update("share_count", gorm.Expr("GREATEST(share_count - 1, 0)")).Error
		if err != nil {
			return fmt.Errorf("failed to lower share count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if shareRecord.StreamActivityID != "" {
		activityID := shareRecord.StreamActivityID
		s.dispatch(func() {
			s.send("DeleteShareActivity", actorID, func() error {
				return s.stream.DeleteShareActivity(actorID, activityID)
			})
		})
	}

	logger.Log.Info("share removed",
		logger.WithUserID(actorID),
		logger.WithShareID(shareRecord.ID),
		logger.WithShareKind(shareRecord.ShareKind),
	)
	return nil
}

// partitionTargets narrows the request's targets to the valid subset.
// Feed shares have a fixed single target and skip relationship checks.
func (s *Service) partitionTargets(ctx context.Context, req *Request) (valid, invalid []string) {
	switch req.ShareKind {
	case models.ShareKindFriends:
		p := s.perms.ValidateFriendTargets(ctx, req.ActorID, req.Targets)
		return p.ValidFriends, p.InvalidFriends
	case models.ShareKindGroups:
		p := s.perms.ValidateGroupTargets(ctx, req.ActorID, req.Targets)
		return p.ValidGroups, p.InvalidGroups
	default:
		return []string{models.FeedTarget}, nil
	}
}

// persist writes the Share row and, for feed shares, bumps the content's
// share count and creates the Repost snapshot, all in one transaction
func (s *Service) persist(ctx context.Context, req *Request, content *models.Content, message string, targets []string) (*models.Share, *models.Repost, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityFriends
	}

	shareRecord := &models.Share{
		ContentID:       req.ContentID,
		ActorID:         req.ActorID,
		OriginalOwnerID: content.UserID,
		ShareKind:       req.ShareKind,
		Targets:         targets,
		Message:         message,
		Visibility:      visibility,
	}

	var repost *models.Repost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shareRecord).Error; err != nil {
			return fmt.Errorf("failed to create share: %w", err)
		}

		if req.ShareKind != models.ShareKindFeed {
			return nil
		}

		err := tx.Model(&models.Content{}).
			Where("id = ?", content.ID).
			Update("share_count", gorm.Expr("share_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to bump share count: %w", err)
		}

		repost = &models.Repost{
			UserID:            req.ActorID,
			OriginalContentID: content.ID,
			ShareID:           shareRecord.ID,
			Quote:             message,
			Snapshot:          models.SnapshotOf(content),
		}
		if err := tx.Create(repost).Error; err != nil {
			return fmt.Errorf("failed to create repost: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return shareRecord, repost, nil
}

// notify fans out stream activities and notifications for a persisted
// share. Each send gets one retry; a second failure is dead-lettered to
// the error log. Nothing here can fail the share.
func (s *Service) notify(shareRecord *models.Share, repost *models.Repost, content *models.Content) {
	activity := &stream.ShareActivity{
		Object:    fmt.Sprintf("content:%s", shareRecord.ContentID),
		ForeignID: fmt.Sprintf("share:%s", shareRecord.ID),
		ShareID:   shareRecord.ID,
		ContentID: shareRecord.ContentID,
		ShareKind: shareRecord.ShareKind,
		Message:   shareRecord.Message,
		Sport:     content.Sport,
	}
	s.send("AddShareActivity", shareRecord.ActorID, func() error {
		return s.stream.AddShareActivity(shareRecord.ActorID, activity)
	})
	if activity.ID != "" {
		err := s.db.Model(&models.Share{}).
			Where("id = ?", shareRecord.ID).
			Update("stream_activity_id", activity.ID).Error
		if err != nil {
			logger.Log.Warn("failed to store stream activity id",
				logger.WithShareID(shareRecord.ID),
				zap.Error(err),
			)
		}
	}

	if repost != nil {
		repostActivity := &stream.RepostActivity{
			ShareID:   shareRecord.ID,
			ContentID: repost.OriginalContentID,
			Quote:     repost.Quote,
			Snapshot:  repost.Snapshot,
		}
		s.send("AddRepostActivity", shareRecord.ActorID, func() error {
			return s.stream.AddRepostActivity(shareRecord.ActorID, repostActivity)
		})
		if repostActivity.ID != "" {
			err := s.db.Model(&models.Repost{}).
				Where("id = ?", repost.ID).
				Update("stream_activity_id", repostActivity.ID).Error
			if err != nil {
				logger.Log.Warn("failed to store stream activity id",
					logger.WithShareID(shareRecord.ID),
					zap.Error(err),
				)
			}
		}
	}

	// Owner notification, skipped for self-shares
	if shareRecord.OriginalOwnerID != shareRecord.ActorID {
		s.send("NotifyShare", shareRecord.ActorID, func() error {
			return s.stream.NotifyShare(shareRecord.ActorID, shareRecord.OriginalOwnerID,
				shareRecord.ContentID, shareRecord.ShareKind)
		})
	}

	// Friend shares also notify each recipient
	if shareRecord.ShareKind == models.ShareKindFriends {
		for _, friendID := range shareRecord.Targets {
			friendID := friendID
			s.send("NotifyShare", shareRecord.ActorID, func() error {
				return s.stream.NotifyShare(shareRecord.ActorID, friendID,
					shareRecord.ContentID, shareRecord.ShareKind)
			})
		}
	}
}

// send runs a stream call with one retry, dead-lettering the failure
func (s *Service) send(op, actorID string, fn func() error) {
	_, span := telemetry.GetBusinessEvents().TraceExternalAPI(context.Background(), "stream", op)
	defer span.End()

	err := fn()
	if err == nil {
		metrics.RecordNotification(op, nil)
		return
	}
	if err = fn(); err == nil {
		metrics.RecordNotification(op, nil)
		return
	}
	metrics.RecordNotification(op, err)
	telemetry.RecordExternalAPIError(span, err, true)
	logger.Log.Warn("stream delivery failed after retry",
		zap.String("op", op),
		logger.WithUserID(actorID),
		zap.Error(err),
	)
	s.errs.Record(errlog.Entry{
		UserID:    actorID,
		Category:  models.ErrorCategoryNetwork,
		Severity:  models.SeverityWarning,
		Message:   fmt.Sprintf("stream %s failed: %v", op, err),
		Retryable: true,
	})
}

// dispatch runs fn on a goroutine unless the service is synchronous (tests)
func (s *Service) dispatch(fn func()) {
	if s.Async {
		go fn()
		return
	}
	fn()
}

// failure builds a sanitized failure outcome for a category
func (s *Service) failure(category string, warnings []string) Outcome {
	return Outcome{
		Success:  false,
		Category: category,
		Message:  UserMessage(category),
		Warnings: warnings,
	}
}

// recordFailure writes the failure to both the error log and analytics
func (s *Service) recordFailure(ctx context.Context, req *Request, category, reason, severity string) {
	s.errs.Record(errlog.Entry{
		UserID:   req.ActorID,
		Category: category,
		Severity: severity,
		Message:  reason,
		Context: models.Metadata{
			"content_id": req.ContentID,
			"share_kind": req.ShareKind,
		},
		Retryable: category == models.ErrorCategoryRateLimit || category == models.ErrorCategoryNetwork,
	})
	s.events.RecordFailure(ctx, req.ActorID, req.ContentID, req.ShareKind, category, reason)
}

// historyContext snapshots the actor's recent attempts for spam scoring
func (s *Service) historyContext(actorID string) *spam.HistoryContext {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[actorID]
	fresh := entries[:0]
	for _, e := range entries {
		if now.Sub(e.Timestamp) <= historyWindow {
			fresh = append(fresh, e)
		}
	}
	s.history[actorID] = fresh

	snapshot := make([]spam.HistoryEntry, len(fresh))
	copy(snapshot, fresh)
	return &spam.HistoryContext{History: snapshot, Now: now}
}

// rememberAttempt appends an attempt to the actor's history
func (s *Service) rememberAttempt(actorID, message string, targets []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[actorID] = append(s.history[actorID], spam.HistoryEntry{
		Message:   message,
		Timestamp: s.now(),
		Targets:   append([]string(nil), targets...),
	})
}
