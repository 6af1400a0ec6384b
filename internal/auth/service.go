package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
)

// Service handles sign-in and sign-out
type Service struct {
	repo    domain.AuthRepository
	session *Session
	cache   *query.Client
	logger  *slog.Logger
}

// NewService creates a new auth service
func NewService(repo domain.AuthRepository, session *Session, cache *query.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, session: session, cache: cache, logger: logger}
}

// Session returns the underlying session
func (s *Service) Session() *Session {
	return s.session
}

// Login authenticates and stores the token pair. The cache is cleared so the new
// user never sees results fetched for someone else.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	res, err := s.repo.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := s.start(res); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", "user", res.User.ID, "role", res.User.Role)
	return &res.User, nil
}

// Register creates an account and signs it in
func (s *Service) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	res, err := s.repo.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	if err := s.start(res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Refresh trades the stored refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context) error {
	rt := s.session.RefreshToken()
	if rt == "" {
		return domain.ErrUnauthorized
	}
	res, err := s.repo.Refresh(ctx, rt)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	if res.RefreshToken == "" {
		res.RefreshToken = rt
	}
	return s.session.Begin(res.Token, res.RefreshToken)
}

// Logout revokes the token server-side (best effort), then clears credentials
// and every cached query
func (s *Service) Logout(ctx context.Context) error {
	if s.session.IsAuthenticated() {
		if err := s.repo.Logout(ctx); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	if err := s.session.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	s.logger.Info("logged out")
	return nil
}

// Me returns the signed-in user
func (s *Service) Me(ctx context.Context) (*domain.User, error) {
	if !s.session.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.Me(ctx)
}

func (s *Service) start(res *domain.AuthResult) error {
	if res.Token == "" {
		return errors.New("login response contained no token")
	}
	if err := s.session.Begin(res.Token, res.RefreshToken); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}
