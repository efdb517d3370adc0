package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// AuthService coordinates login and logout.
type AuthService struct {
	users       repository.UserRepository
	sessions    auth.SessionStore
	tokenMgr    *auth.TokenManager
	logger      *zap.Logger
	maxAttempts int
	window      time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	SessionStore auth.SessionStore
	TokenManager *auth.TokenManager
	Logger       *zap.Logger
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User        *domain.User
	AccessToken string
	Token       domain.Token
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	return &AuthService{
		users:       deps.UserRepo,
		sessions:    deps.SessionStore,
		tokenMgr:    tokens,
		logger:      logger,
		maxAttempts: cfg.LoginMaxAttempts,
		window:      cfg.LoginWindow(),
	}
}

var errInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// Login checks credentials and issues an access token. Repeated failures for one email
// are throttled while the counter window is open.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	if s.throttled(ctx, email) {
		return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.registerFailure(ctx, email)
			return nil, errInvalidCredentials
		}
		return nil, apperrors.MapError(err)
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		s.registerFailure(ctx, email)
		return nil, errInvalidCredentials
	}
	if !user.Active() {
		return nil, apperrors.NewForbidden("user is blocked")
	}

	raw, token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if s.sessions != nil {
		if err := s.sessions.ResetFailures(ctx, email); err != nil {
			s.logger.Warn("reset login failures", zap.Error(err))
		}
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{User: user, AccessToken: raw, Token: token}, nil
}

// Logout revokes the token until it expires.
func (s *AuthService) Logout(ctx context.Context, token domain.Token) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return apperrors.NewStoreError(err)
	}
	s.logger.Info("user logged out", zap.Int64("user_id", token.UserID))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) throttled(ctx context.Context, email string) bool {
	if s.sessions == nil || s.maxAttempts <= 0 {
		return false
	}
	count, err := s.sessions.Failures(ctx, email)
	if err != nil {
		s.logger.Warn("read login failures", zap.Error(err))
		return false
	}
	return count >= int64(s.maxAttempts)
}

func (s *AuthService) registerFailure(ctx context.Context, email string) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.RegisterFailure(ctx, email, s.window); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
}
