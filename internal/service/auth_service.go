package service

import (
	"fmt"
	"sync"
	"time"

	"magician-server/internal/domain"
)

const tokenCacheTTL = 30 * time.Second

type tokenCacheEntry struct {
	user      *domain.AuthUser
	expiresAt time.Time
}

type authService struct {
	verifier domain.TokenVerifier
	logger   domain.Logger

	tokenCacheMu sync.RWMutex
	tokenCache   map[string]tokenCacheEntry
	now          func() time.Time
}

// NewAuthService validates bearer tokens with verifier and caches accepted tokens briefly.
func NewAuthService(
	verifier domain.TokenVerifier,
	logger domain.Logger,
) *authService {
	return &authService{
		verifier:   verifier,
		logger:     logger,
		tokenCache: make(map[string]tokenCacheEntry),
		now:        time.Now,
	}
}

// ValidateToken returns the user the token was issued to.
func (s *authService) ValidateToken(token string) (*domain.AuthUser, error) {
	now := s.now()
	s.tokenCacheMu.RLock()
	entry, ok := s.tokenCache[token]
	s.tokenCacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.user, nil
	}

	user, err := s.verifier.ValidateToken(token)
	if err != nil {
		s.logger.Warn("Token rejected", "error", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	s.tokenCacheMu.Lock()
	s.evictExpired(now)
	s.tokenCache[token] = tokenCacheEntry{user: user, expiresAt: now.Add(tokenCacheTTL)}
	s.tokenCacheMu.Unlock()
	return user, nil
}

// evictExpired must be called with the write lock held.
func (s *authService) evictExpired(now time.Time) {
	for k, e := range s.tokenCache {
		if !now.Before(e.expiresAt) {
			delete(s.tokenCache, k)
		}
	}
}
