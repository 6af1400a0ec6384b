package auth

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/medbook/internal/domain"
)

// Session owns the persisted credentials. Every API request reads the token
// through it, and a server-side rejection expires it.
type Session struct {
	mu      sync.Mutex
	store   domain.CredentialStore
	logger  *slog.Logger
	expired bool
	epoch   uint64

	onExpired []func()
}

// NewSession creates a session backed by store
func NewSession(store domain.CredentialStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger}
}

// OnExpired registers a callback for the unauthorized redirect. Callbacks run
// once per expiry, outside the session lock.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = append(s.onExpired, fn)
}

// Token returns the bearer token, or "" when signed out
func (s *Session) Token() string {
	v, _ := s.store.GetCredential(domain.KeyToken)
	return v
}

// RefreshToken returns the stored refresh token
func (s *Session) RefreshToken() string {
	v, _ := s.store.GetCredential(domain.KeyRefreshToken)
	return v
}

// IsAuthenticated reports whether a token is stored
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Epoch counts sign-ins; each epoch expires at most once
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Begin stores a fresh token pair and starts a new epoch
func (s *Session) Begin(token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetCredential(domain.KeyToken, token); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.store.SetCredential(domain.KeyRefreshToken, refreshToken); err != nil {
			return err
		}
	}
	s.epoch++
	s.expired = false
	return nil
}

// Expire clears the stored credentials and fires the redirect callbacks. token is
// the one the rejected request carried; a rejection of a token that has since been
// replaced is ignored. However many concurrent requests see the rejection, only the
// first call in an epoch acts.
func (s *Session) Expire(token string) {
	s.mu.Lock()
	if s.expired {
		s.mu.Unlock()
		return
	}
	if current, _ := s.store.GetCredential(domain.KeyToken); current != token {
		epoch := s.epoch
		s.mu.Unlock()
		s.logger.Debug("ignoring rejection of a replaced token", "epoch", epoch)
		return
	}
	s.expired = true
	if err := s.store.DeleteCredentials(domain.KeyToken, domain.KeyRefreshToken); err != nil {
		s.logger.Error("failed to clear credentials", "error", err)
	}
	callbacks := append([]func(){}, s.onExpired...)
	epoch := s.epoch
	s.mu.Unlock()

	s.logger.Info("session expired", "epoch", epoch)
	for _, fn := range callbacks {
		fn()
	}
}

// Clear removes the credentials without firing the redirect (explicit logout)
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
	return s.store.DeleteCredentials(domain.KeyToken, domain.KeyRefreshToken)
}
