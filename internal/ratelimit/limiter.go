package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playhuddle/backend/internal/cache"
	"github.com/playhuddle/backend/internal/logger"
	"go.uber.org/zap"
)

// Limit types returned in Result.LimitType
const (
	LimitCooldown = "cooldown"
	LimitMinute   = "minute"
	LimitHour     = "hour"
	LimitDay      = "day"
	LimitBurst    = "burst"
)

// Config holds the ceilings for one limiter instance
type Config struct {
	PerMinute int
	PerHour   int
	PerDay    int

	// BurstWindow/BurstMax is a lightweight flood heuristic distinct from
	// the spam detector: BurstMax actions within BurstWindow trips it.
	BurstWindow time.Duration
	BurstMax    int

	// Cooldown installed when an actor overshoots the minute ceiling by 2x
	CooldownDuration time.Duration

	// How often stale per-actor state is evicted
	CleanupInterval time.Duration
}

// ShareConfig returns the ceilings used for share actions
func ShareConfig() Config {
	return Config{
		PerMinute:        10,
		PerHour:          100,
		PerDay:           500,
		BurstWindow:      10 * time.Second,
		BurstMax:         8,
		CooldownDuration: 5 * time.Minute,
		CleanupInterval:  time.Minute,
	}
}

// Result is the outcome of a rate limit check
type Result struct {
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds
	LimitType  string `json:"limit_type,omitempty"`
}

// window holds the per-key event timestamps, pruned on every touch
type window struct {
	minute      []time.Time
	hour        []time.Time
	day         []time.Time
	lastUpdated time.Time
}

// cooldownEntry is a time-boxed hard block on an actor, destroyed on read
// once expired
type cooldownEntry struct {
	reason    string
	expiresAt time.Time
}

// Limiter tracks sliding-window counters per (actor, action) key plus
// per-actor cooldowns. State is process-local and intentionally soft: it is
// a UX/abuse deterrent, not a security boundary. When a redis client is
// attached, minute counters are mirrored there best-effort so horizontally
// scaled instances share a coarse ceiling.
type Limiter struct {
	mu        sync.Mutex
	cfg       Config
	now       func() time.Time
	windows   map[string]*window
	cooldowns map[string]*cooldownEntry
	redis     *cache.RedisClient
	stop      chan struct{}
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock injects a clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRedis attaches a redis mirror for cross-instance minute counters
func WithRedis(rc *cache.RedisClient) Option {
	return func(l *Limiter) { l.redis = rc }
}

// New creates a Limiter with the given config
func New(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:       cfg,
		now:       time.Now,
		windows:   make(map[string]*window),
		cooldowns: make(map[string]*cooldownEntry),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartCleanup launches the periodic stale-state eviction goroutine
func (l *Limiter) StartCleanup() {
	interval := l.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.cleanup()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup goroutine
func (l *Limiter) Stop() {
	close(l.stop)
}

// Check evaluates, in order: active cooldown, minute ceiling, hour ceiling,
// day ceiling, then the burst heuristic. The first failing check
// short-circuits. Check never counts the action; callers must invoke Record
// after the action actually succeeds.
func (l *Limiter) Check(ctx context.Context, actorID, action string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Cooldown: hard block with remaining seconds; expired entries are
	// consumed on read
	if cd, ok := l.cooldowns[actorID]; ok {
		if now.Before(cd.expiresAt) {
			return Result{
				Allowed:    false,
				Reason:     cd.reason,
				RetryAfter: int(cd.expiresAt.Sub(now).Seconds()) + 1,
				LimitType:  LimitCooldown,
			}
		}
		delete(l.cooldowns, actorID)
	}

	w := l.touch(actorID, action, now)

	if l.cfg.PerMinute > 0 && len(w.minute) >= l.cfg.PerMinute {
		return Result{
			Allowed:    false,
			Reason:     "too many shares this minute",
			RetryAfter: retryAfter(w.minute, now, time.Minute),
			LimitType:  LimitMinute,
		}
	}
	if l.cfg.PerHour > 0 && len(w.hour) >= l.cfg.PerHour {
		return Result{
			Allowed:    false,
			Reason:     "hourly share limit reached",
			RetryAfter: retryAfter(w.hour, now, time.Hour),
			LimitType:  LimitHour,
		}
	}
	if l.cfg.PerDay > 0 && len(w.day) >= l.cfg.PerDay {
		return Result{
			Allowed:    false,
			Reason:     "daily share limit reached",
			RetryAfter: retryAfter(w.day, now, 24*time.Hour),
			LimitType:  LimitDay,
		}
	}

	// Burst heuristic: a flood inside a few seconds that the minute ceiling
	// has not caught yet
	if l.cfg.BurstMax > 0 && countSince(w.minute, now.Add(-l.cfg.BurstWindow)) >= l.cfg.BurstMax {
		return Result{
			Allowed:    false,
			Reason:     "sharing too fast, slow down",
			RetryAfter: int(l.cfg.BurstWindow.Seconds()),
			LimitType:  LimitBurst,
		}
	}

	// Cross-instance minute ceiling via the redis mirror, best-effort
	if l.redis != nil && l.cfg.PerMinute > 0 {
		if count, err := l.redis.GetInt(ctx, mirrorKey(actorID, action)); err == nil && count >= int64(l.cfg.PerMinute) {
			return Result{
				Allowed:    false,
				Reason:     "too many shares this minute",
				RetryAfter: 60,
				LimitType:  LimitMinute,
			}
		}
	}

	return Result{Allowed: true}
}

// Record counts a completed action. Not called automatically by Check: the
// orchestrator records only after the share persisted, so failed attempts
// never consume budget. A severe overshoot (2x the minute ceiling) installs
// a cooldown.
func (l *Limiter) Record(ctx context.Context, actorID, action string) {
	l.mu.Lock()
	now := l.now()
	w := l.touch(actorID, action, now)
	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	w.day = append(w.day, now)
	w.lastUpdated = now

	if l.cfg.PerMinute > 0 && len(w.minute) >= 2*l.cfg.PerMinute {
		l.cooldowns[actorID] = &cooldownEntry{
			reason:    "temporarily blocked for excessive sharing",
			expiresAt: now.Add(l.cfg.CooldownDuration),
		}
		logger.Log.Warn("rate limit cooldown installed",
			logger.WithUserID(actorID),
			zap.String("action", action),
			zap.Duration("duration", l.cfg.CooldownDuration),
		)
	}
	l.mu.Unlock()

	// Best-effort redis mirror; never fatal
	if l.redis != nil {
		key := mirrorKey(actorID, action)
		if count, err := l.redis.Incr(ctx, key); err != nil {
			logger.Log.Debug("rate limit mirror write failed", zap.Error(err))
		} else if count == 1 {
			if err := l.redis.Expire(ctx, key, time.Minute); err != nil {
				logger.Log.Debug("rate limit mirror expire failed", zap.Error(err))
			}
		}
	}
}

// Cooldown returns the active cooldown reason and remaining duration for an
// actor, if any
func (l *Limiter) Cooldown(actorID string) (string, time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cd, ok := l.cooldowns[actorID]
	if !ok {
		return "", 0, false
	}
	remaining := cd.expiresAt.Sub(l.now())
	if remaining <= 0 {
		delete(l.cooldowns, actorID)
		return "", 0, false
	}
	return cd.reason, remaining, true
}

// touch returns the window for a key, pruning all three horizons
func (l *Limiter) touch(actorID, action string, now time.Time) *window {
	key := actorID + ":" + action
	w, ok := l.windows[key]
	if !ok {
		w = &window{lastUpdated: now}
		l.windows[key] = w
	}
	w.minute = prune(w.minute, now.Add(-time.Minute))
	w.hour = prune(w.hour, now.Add(-time.Hour))
	w.day = prune(w.day, now.Add(-24*time.Hour))
	return w
}

// cleanup evicts windows idle past the day horizon and expired cooldowns
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.lastUpdated) > 24*time.Hour {
			delete(l.windows, key)
		}
	}
	for actorID, cd := range l.cooldowns {
		if !now.Before(cd.expiresAt) {
			delete(l.cooldowns, actorID)
		}
	}
}

// prune drops timestamps older than cutoff; timestamps are appended in
// order, so the slice stays sorted
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// countSince counts timestamps after cutoff
func countSince(ts []time.Time, cutoff time.Time) int {
	n := 0
	for i := len(ts) - 1; i >= 0; i-- {
		if ts[i].After(cutoff) {
			n++
		} else {
			break
		}
	}
	return n
}

// retryAfter computes seconds until the oldest in-window event falls out
func retryAfter(ts []time.Time, now time.Time, horizon time.Duration) int {
	if len(ts) == 0 {
		return 1
	}
	wait := ts[0].Add(horizon).Sub(now)
	if wait < 0 {
		return 1
	}
	return int(wait.Seconds()) + 1
}

func mirrorKey(actorID, action string) string {
	return fmt.Sprintf("ratelimit:%s:%s:minute", actorID, action)
}
