package permissions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrContentNotFound is returned when the content does not exist or is deleted
var ErrContentNotFound = errors.New("content not found")

// SharingDecision is the outcome of validating whether an actor may share
// a content item at all, and to which target kinds.
type SharingDecision struct {
	CanShare       bool            `json:"can_share"`
	Reason         string          `json:"reason,omitempty"`
	AllowedTargets []string        `json:"allowed_targets"`
	Content        *models.Content `json:"-"`
}

// Allows reports whether a share kind is in the allowed target set
func (d *SharingDecision) Allows(kind string) bool {
	for _, k := range d.AllowedTargets {
		if k == kind {
			return true
		}
	}
	return false
}

// FriendPartition splits candidate friend targets into usable and rejected
type FriendPartition struct {
	ValidFriends   []string `json:"valid_friends"`
	InvalidFriends []string `json:"invalid_friends"`
}

// GroupPartition splits candidate group targets, recording the actor's role
// in each valid group
type GroupPartition struct {
	ValidGroups   []string          `json:"valid_groups"`
	InvalidGroups []string          `json:"invalid_groups"`
	GroupRoles    map[string]string `json:"group_roles"`
}

// Validator resolves content visibility, actor/owner relationships and group
// membership into sharing decisions. Content decisions are cached briefly to
// absorb repeated checks within a validation burst; relationship lookups for
// individual targets always hit the database (fail closed on error).
type Validator struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]cachedDecision
}

type cachedDecision struct {
	decision  SharingDecision
	expiresAt time.Time
}

// Option configures a Validator
type Option func(*Validator)

// WithTTL overrides the decision cache TTL
func WithTTL(ttl time.Duration) Option {
	return func(v *Validator) { v.ttl = ttl }
}

// WithClock injects a clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates a permission validator backed by the given database
func NewValidator(db *gorm.DB, opts ...Option) *Validator {
	v := &Validator{
		db:    db,
		ttl:   2 * time.Minute,
		now:   time.Now,
		cache: make(map[string]cachedDecision),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateSharing decides whether actorID may share contentID and which
// share kinds are open to them.
//
// Decision order: content gates (deleted, sharing disabled), block status
// (block beats visibility, both directions), then the visibility table.
// Owners always pass the visibility table for their own content.
func (v *Validator) ValidateSharing(ctx context.Context, contentID, actorID string) (SharingDecision, error) {
	key := contentID + ":" + actorID

	v.mu.Lock()
	if entry, ok := v.cache[key]; ok && v.now().Before(entry.expiresAt) {
		v.mu.Unlock()
		return entry.decision, nil
	}
	v.mu.Unlock()

	decision, err := v.resolveSharing(ctx, contentID, actorID)
	if err != nil {
		return SharingDecision{}, err
	}

	v.mu.Lock()
	v.cache[key] = cachedDecision{decision: decision, expiresAt: v.now().Add(v.ttl)}
	v.mu.Unlock()

	return decision, nil
}

func (v *Validator) resolveSharing(ctx context.Context, contentID, actorID string) (SharingDecision, error) {
	var content models.Content
	if err := v.db.WithContext(ctx).First(&content, "id = ?", contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SharingDecision{}, ErrContentNotFound
		}
		return SharingDecision{}, fmt.Errorf("content lookup failed: %w", err)
	}
	if content.IsDeleted {
		return SharingDecision{}, ErrContentNotFound
	}

	deny := func(reason string) SharingDecision {
		return SharingDecision{CanShare: false, Reason: reason, AllowedTargets: []string{}, Content: &content}
	}
	allow := func(kinds ...string) SharingDecision {
		return SharingDecision{CanShare: true, AllowedTargets: kinds, Content: &content}
	}

	if content.SharingDisabled {
		return deny("the owner has disabled sharing for this content"), nil
	}

	isOwner := content.UserID == actorID

	if !isOwner {
		blocked, err := v.isBlocked(ctx, actorID, content.UserID)
		if err != nil {
			return SharingDecision{}, fmt.Errorf("block lookup failed: %w", err)
		}
		if blocked {
			// Block takes precedence over visibility, even for public content
			return deny("you cannot share this content"), nil
		}
	}

	switch content.Visibility {
	case models.VisibilityPublic:
		return allow(models.ShareKindFriends, models.ShareKindFeed, models.ShareKindGroups), nil

	case models.VisibilityFriends:
		if isOwner {
			return allow(models.ShareKindFriends, models.ShareKindFeed, models.ShareKindGroups), nil
		}
		accepted, err := v.areFriends(ctx, actorID, content.UserID)
		if err != nil {
			return SharingDecision{}, fmt.Errorf("friendship lookup failed: %w", err)
		}
		if accepted {
			return allow(models.ShareKindFriends, models.ShareKindFeed), nil
		}
		return deny("only friends of the owner can share this content"), nil

	case models.VisibilityPrivate:
		if isOwner {
			return allow(models.ShareKindFriends, models.ShareKindFeed, models.ShareKindGroups), nil
		}
		return deny("private content cannot be shared"), nil

	default:
		return deny("unknown content visibility"), nil
	}
}

// ValidateFriendTargets partitions candidate friend IDs. A candidate is
// valid only with an accepted friendship to the actor AND the candidate's
// own preference allowing incoming shares. Missing records, lookup errors
// and explicit opt-out all fail closed into InvalidFriends.
func (v *Validator) ValidateFriendTargets(ctx context.Context, actorID string, candidateIDs []string) FriendPartition {
	p := FriendPartition{
		ValidFriends:   []string{},
		InvalidFriends: []string{},
	}
	seen := make(map[string]bool, len(candidateIDs))

	for _, candidateID := range candidateIDs {
		if candidateID == "" || candidateID == actorID || seen[candidateID] {
			continue
		}
		seen[candidateID] = true

		accepted, err := v.areFriends(ctx, actorID, candidateID)
		if err != nil {
			logger.Log.Warn("friend target lookup failed, rejecting target",
				logger.WithUserID(actorID),
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
			p.InvalidFriends = append(p.InvalidFriends, candidateID)
			continue
		}
		if !accepted {
			p.InvalidFriends = append(p.InvalidFriends, candidateID)
			continue
		}

		var candidate models.User
		if err := v.db.WithContext(ctx).First(&candidate, "id = ?", candidateID).Error; err != nil {
			p.InvalidFriends = append(p.InvalidFriends, candidateID)
			continue
		}
		if !candidate.AllowSharesFromFriends {
			p.InvalidFriends = append(p.InvalidFriends, candidateID)
			continue
		}

		p.ValidFriends = append(p.ValidFriends, candidateID)
	}
	return p
}

// ValidateGroupTargets partitions candidate group IDs by the actor's
// membership. Each group is judged independently: a lookup error or
// non-membership invalidates that group only, never the whole batch.
func (v *Validator) ValidateGroupTargets(ctx context.Context, actorID string, groupIDs []string) GroupPartition {
	p := GroupPartition{
		ValidGroups:   []string{},
		InvalidGroups: []string{},
		GroupRoles:    map[string]string{},
	}
	seen := make(map[string]bool, len(groupIDs))

	for _, groupID := range groupIDs {
		if groupID == "" || seen[groupID] {
			continue
		}
		seen[groupID] = true

		var member models.GroupMember
		err := v.db.WithContext(ctx).
			Where("group_id = ? AND user_id = ?", groupID, actorID).
			First(&member).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Log.Warn("group membership lookup failed, rejecting target",
					logger.WithUserID(actorID),
					zap.String("group_id", groupID),
					zap.Error(err),
				)
			}
			p.InvalidGroups = append(p.InvalidGroups, groupID)
			continue
		}

		p.ValidGroups = append(p.ValidGroups, groupID)
		p.GroupRoles[groupID] = member.Role
	}
	return p
}

// InvalidateContent drops cached decisions for a content id, e.g. after the
// owner changes its visibility
func (v *Validator) InvalidateContent(contentID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	prefix := contentID + ":"
	for key := range v.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(v.cache, key)
		}
	}
}

// areFriends reports an accepted friendship between two users in either
// direction
func (v *Validator) areFriends(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := v.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("status = ?", models.FriendshipAccepted).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// isBlocked reports a block between two users in either direction
func (v *Validator) isBlocked(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := v.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
