package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"store-manager/internal/apperrors"
	"store-manager/internal/models"
	"store-manager/internal/notifier"
	"store-manager/internal/repository"
)

const resetTokenBytes = 32

type AuthService struct {
	users    repository.UserRepository
	resets   repository.ResetTokenRepository
	hasher   PasswordHasher
	tokens   *TokenService
	notifier notifier.Notifier
	logger   zerolog.Logger

	resetTTL     time.Duration
	resetBaseURL string
	now          func() time.Time
}

type AuthServiceParams struct {
	Users    repository.UserRepository
	Resets   repository.ResetTokenRepository
	Hasher   PasswordHasher
	Tokens   *TokenService
	Notifier notifier.Notifier
	Logger   zerolog.Logger

	ResetTTL   time.Duration
	AppBaseURL string
}

func NewAuthService(p AuthServiceParams) *AuthService {
	return &AuthService{
		users:        p.Users,
		resets:       p.Resets,
		hasher:       p.Hasher,
		tokens:       p.Tokens,
		notifier:     p.Notifier,
		logger:       p.Logger,
		resetTTL:     p.ResetTTL,
		resetBaseURL: p.AppBaseURL,
		now:          time.Now,
	}
}

// Register creates a user and returns it with a fresh session token.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	_, err := s.users.FindByEmail(ctx, req.Email, 0)
	if err == nil {
		return nil, "", apperrors.Conflict("User Already Exist")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperrors.Internal(err)
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		role = models.RoleNormalUser
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Address:      req.Address,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", apperrors.Conflict("User Already Exist")
		}
		return nil, "", apperrors.Internal(err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", role.String()).Msg("User registered successfully")
	return user, token, nil
}

// Login verifies credentials. A non-empty role narrows the lookup to that role.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	var roleFilter models.Role
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, "", apperrors.Validation("Invalid role")
		}
		roleFilter = r
	}

	user, err := s.users.FindByEmail(ctx, req.Email, roleFilter)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperrors.NotFound("User Not Found")
	}
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	if !s.hasher.Check(req.Password, user.PasswordHash) {
		s.logger.Warn().Int64("user_id", user.ID).Msg("Failed authentication attempt")
		return nil, "", apperrors.Unauthorized("Invalid Password")
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User authenticated successfully")
	return user, token, nil
}

// Authenticate resolves a session token to the current user row.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindUnauthorized, Message: "Unauthorized", Err: err}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Unauthorized("Unauthorized")
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	if !s.hasher.Check(req.CurrentPassword, user.PasswordHash) {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	if err := s.setPassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("Password changed")
	return nil
}

// ForgotPassword issues a reset token when the email is registered. Unknown
// emails succeed silently so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email, 0)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info().Msg("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	token, err := newResetToken()
	if err != nil {
		return apperrors.Internal(err)
	}

	now := s.now()
	reset := &models.PasswordReset{
		TokenHash: hashResetToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Save(ctx, reset); err != nil {
		return apperrors.Internal(err)
	}

	// Delivery failures are logged, not returned.
	if err := s.notifier.SendPasswordReset(ctx, user.Email, s.resetLink(token)); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Password reset delivery failed")
		return nil
	}

	s.logger.Info().Int64("user_id", user.ID).Time("expires_at", reset.ExpiresAt).Msg("Password reset token issued")
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The token is
// spent even if the password update fails afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	userID, err := s.resets.Consume(ctx, hashResetToken(req.Token), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Unauthorized("Invalid or expired reset token")
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return apperrors.Unauthorized("Invalid or expired reset token")
		}
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("Password reset completed")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *AuthService) resetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.resetBaseURL, url.QueryEscape(token))
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
