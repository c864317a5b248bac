package handler

import (
	"net/http"
	"sync"
	"time"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// RateLimiter throttles generation requests per authenticated user.
// It sits behind AuthMiddleware and keys on the user id.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters sync.Map
	logger   domain.Logger
	now      func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per user with the given burst.
// A non positive perMinute disables throttling.
func NewRateLimiter(perMinute, burst int, logger domain.Logger) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:  limit,
		burst:  burst,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(user.ID) {
			l.logger.Warn("Rate limit exceeded", "user_id", user.ID, "path", r.URL.Path)
			writeAppError(w, l.logger, apperrors.NewRateLimitedError("Too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow consumes one token from the user's bucket.
func (l *RateLimiter) Allow(userID string) bool {
	now := l.now()
	l.sweep(now)

	v, _ := l.limiters.LoadOrStore(userID, &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)})
	ul := v.(*userLimiter)

	ul.mu.Lock()
	defer ul.mu.Unlock()
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// sweep drops buckets of users idle for longer than limiterIdleTTL, at most once per TTL.
func (l *RateLimiter) sweep(now time.Time) {
	l.sweepMu.Lock()
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		l.sweepMu.Unlock()
		return
	}
	l.lastSweep = now
	l.sweepMu.Unlock()

	l.limiters.Range(func(key, value interface{}) bool {
		ul := value.(*userLimiter)
		ul.mu.Lock()
		idle := now.Sub(ul.lastSeen) > limiterIdleTTL
		ul.mu.Unlock()
		if idle {
			l.limiters.Delete(key)
		}
		return true
	})
}
