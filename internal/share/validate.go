package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playhuddle/backend/internal/models"
	"gorm.io/gorm"
)

// Structural limits for share requests
const (
	MaxMessageLength = 500
	MaxFriendTargets = 50
	MaxGroupTargets  = 10
)

// Request is a normalized share request. ActorID always comes from the
// authenticated context, never from the client payload.
type Request struct {
	ContentID  string   `json:"content_id"`
	ActorID    string   `json:"-"`
	ShareKind  string   `json:"share_kind"`
	Targets    []string `json:"targets"`
	Message    string   `json:"message"`
	Visibility string   `json:"visibility"`
}

// ValidationResult is the outcome of structural validation. Errors make the
// request invalid; warnings are advisory and never block on their own.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	// NotFound distinguishes "content is gone" from shape errors so the
	// caller can categorize the failure correctly
	NotFound bool `json:"-"`
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// cachedEntity is a content or actor lookup result; misses are cached too
// so a flood of requests for a deleted content doesn't hammer the database
type cachedEntity struct {
	content   *models.Content
	user      *models.User
	found     bool
	expiresAt time.Time
}

// StructValidator performs the structural (shape + existence) checks on a
// share request, before rate limiting and permission checks. Content and
// actor lookups are cached briefly.
type StructValidator struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	contents map[string]cachedEntity
	actors   map[string]cachedEntity
}

// StructOption configures a StructValidator
type StructOption func(*StructValidator)

// WithLookupTTL overrides the entity lookup cache TTL
func WithLookupTTL(ttl time.Duration) StructOption {
	return func(v *StructValidator) { v.ttl = ttl }
}

// WithLookupClock injects a clock, used by tests
func WithLookupClock(now func() time.Time) StructOption {
	return func(v *StructValidator) { v.now = now }
}

// NewStructValidator creates a structural validator backed by the database
func NewStructValidator(db *gorm.DB, opts ...StructOption) *StructValidator {
	v := &StructValidator{
		db:       db,
		ttl:      5 * time.Minute,
		now:      time.Now,
		contents: make(map[string]cachedEntity),
		actors:   make(map[string]cachedEntity),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateShareRequest checks required fields, share kind, target shape,
// message length, visibility, and that the content and actor exist and are
// in a shareable state. It never returns an error for invalid input; the
// result carries the reasons. A non-nil error means the database itself
// failed.
func (v *StructValidator) ValidateShareRequest(ctx context.Context, req *Request) (ValidationResult, error) {
	result := ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}}

	if req.ContentID == "" {
		result.addError("content_id is required")
	}
	if req.ActorID == "" {
		result.addError("actor is required")
	}
	if !models.ValidShareKind(req.ShareKind) {
		result.addError("unknown share kind %q", req.ShareKind)
	}

	v.checkTargets(req, &result)
	v.checkMessage(req.Message, &result)

	if req.Visibility != "" && !models.ValidVisibility(req.Visibility) {
		result.addError("unknown visibility %q", req.Visibility)
	}

	// Existence checks only make sense once the IDs are present
	if req.ContentID != "" {
		content, found, err := v.lookupContent(ctx, req.ContentID)
		if err != nil {
			return ValidationResult{}, err
		}
		switch {
		case !found, content.IsDeleted:
			result.addError("content does not exist")
			result.NotFound = true
		case content.SharingDisabled:
			result.addError("sharing is disabled for this content")
		}
	}

	if req.ActorID != "" {
		actor, found, err := v.lookupActor(ctx, req.ActorID)
		if err != nil {
			return ValidationResult{}, err
		}
		switch {
		case !found:
			result.addError("actor does not exist")
		case !actor.CanActorShare():
			result.addError("actor is not allowed to share")
		}
	}

	return result, nil
}

func (v *StructValidator) checkTargets(req *Request, result *ValidationResult) {
	switch req.ShareKind {
	case models.ShareKindFriends:
		if len(req.Targets) == 0 {
			result.addError("at least one friend target is required")
		}
		if len(req.Targets) > MaxFriendTargets {
			result.addError("too many friend targets: %d (max %d)", len(req.Targets), MaxFriendTargets)
		}
	case models.ShareKindFeed:
		if len(req.Targets) != 1 || req.Targets[0] != models.FeedTarget {
			result.addError(`feed shares must target exactly ["feed"]`)
		}
	case models.ShareKindGroups:
		if len(req.Targets) == 0 {
			result.addError("at least one group target is required")
		}
		if len(req.Targets) > MaxGroupTargets {
			result.addError("too many group targets: %d (max %d)", len(req.Targets), MaxGroupTargets)
		}
	}

	seen := make(map[string]bool, len(req.Targets))
	for _, target := range req.Targets {
		if target == "" {
			result.addError("targets must not be empty strings")
			break
		}
		if seen[target] {
			result.addWarning("duplicate target %s ignored", target)
			continue
		}
		seen[target] = true
	}
}

func (v *StructValidator) checkMessage(message string, result *ValidationResult) {
	if message == "" {
		return
	}
	if n := len([]rune(message)); n > MaxMessageLength {
		result.addError("message too long: %d characters (max %d)", n, MaxMessageLength)
	}
	if containsURL(message) {
		result.addWarning("message contains a link")
	}
	if hasLongRun(message, 5) {
		result.addWarning("message contains repeated character runs")
	}
}

// lookupContent resolves a content by id through the cache
func (v *StructValidator) lookupContent(ctx context.Context, contentID string) (*models.Content, bool, error) {
	v.mu.Lock()
	if entry, ok := v.contents[contentID]; ok && v.now().Before(entry.expiresAt) {
		v.mu.Unlock()
		return entry.content, entry.found, nil
	}
	v.mu.Unlock()

	var content models.Content
	err := v.db.WithContext(ctx).First(&content, "id = ?", contentID).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("content lookup failed: %w", err)
	}

	v.mu.Lock()
	v.contents[contentID] = cachedEntity{content: &content, found: found, expiresAt: v.now().Add(v.ttl)}
	v.mu.Unlock()

	return &content, found, nil
}

// lookupActor resolves a user by id through the cache
func (v *StructValidator) lookupActor(ctx context.Context, actorID string) (*models.User, bool, error) {
	v.mu.Lock()
	if entry, ok := v.actors[actorID]; ok && v.now().Before(entry.expiresAt) {
		v.mu.Unlock()
		return entry.user, entry.found, nil
	}
	v.mu.Unlock()

	var user models.User
	err := v.db.WithContext(ctx).First(&user, "id = ?", actorID).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("actor lookup failed: %w", err)
	}

	v.mu.Lock()
	v.actors[actorID] = cachedEntity{user: &user, found: found, expiresAt: v.now().Add(v.ttl)}
	v.mu.Unlock()

	return &user, found, nil
}

// InvalidateContent drops a cached content lookup, e.g. after an update
func (v *StructValidator) InvalidateContent(contentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.contents, contentID)
}

// InvalidateActor drops a cached actor lookup
func (v *StructValidator) InvalidateActor(actorID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.actors, actorID)
}

// hasLongRun reports a run of the same rune at least threshold long
func hasLongRun(s string, threshold int) bool {
	var prev rune = -1
	count := 0
	for _, r := range s {
		if r == prev {
			count++
			if count >= threshold {
				return true
			}
		} else {
			prev = r
			count = 1
		}
	}
	return false
}

// NormalizeTargets trims and dedupes targets, preserving first-seen order
func NormalizeTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
