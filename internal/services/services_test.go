package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"store-manager/internal/apperrors"
	"store-manager/internal/models"
	"store-manager/internal/repository/repotest"
)

const testSecret = "test-secret-key-that-is-long-enough-0123"

type captureNotifier struct {
	mu    sync.Mutex
	email string
	link  string
	calls int
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.email, n.link = email, link
	n.calls++
	return nil
}

func (n *captureNotifier) token(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	u, err := url.Parse(n.link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type authFixture struct {
	svc      *AuthService
	users    *repotest.Users
	resets   *repotest.ResetTokens
	notifier *captureNotifier
}

func newAuthFixture() *authFixture {
	users := repotest.NewUsers()
	resets := repotest.NewResetTokens()
	n := &captureNotifier{}
	svc := NewAuthService(AuthServiceParams{
		Users:      users,
		Resets:     resets,
		Hasher:     NewBcryptHasher(bcrypt.MinCost),
		Tokens:     NewTokenService(testSecret, time.Hour),
		Notifier:   n,
		Logger:     zerolog.Nop(),
		ResetTTL:   30 * time.Minute,
		AppBaseURL: "http://localhost:5173",
	})
	return &authFixture{svc: svc, users: users, resets: resets, notifier: n}
}

func registerRequest(email, role string) models.RegisterRequest {
	return models.RegisterRequest{
		FullName: "Jane Example Storekeeper",
		Email:    email,
		Password: "Secret#123",
		Address:  "12 Market Street",
		Role:     role,
	}
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, token, err := f.svc.Register(ctx, registerRequest("jane@example.com", "Owner"))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleOwner, user.Role)
	assert.NotEqual(t, "Secret#123", user.PasswordHash)

	_, _, err = f.svc.Register(ctx, registerRequest("jane@example.com", "Owner"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, "User Already Exist", err.Error())
	assert.Equal(t, 1, f.users.Count())
}

func TestRegister_DefaultsRole(t *testing.T) {
	f := newAuthFixture()

	user, _, err := f.svc.Register(context.Background(), registerRequest("nobody@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, models.RoleNormalUser, user.Role)
}

func TestLoginThenAuthenticate(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	registered, _, err := f.svc.Register(ctx, registerRequest("owner@example.com", "owner"))
	require.NoError(t, err)

	user, token, err := f.svc.Login(ctx, models.LoginRequest{Email: "owner@example.com", Password: "Secret#123"})
	require.NoError(t, err)

	me, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, me.ID)
	assert.Equal(t, user.Email, me.Email)
	assert.Equal(t, models.RoleOwner, me.Role)
}

func TestLogin_Failures(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, _, err := f.svc.Register(ctx, registerRequest("owner@example.com", "Owner"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     models.LoginRequest
		kind    apperrors.Kind
		message string
	}{
		{
			name:    "wrong password",
			req:     models.LoginRequest{Email: "owner@example.com", Password: "Wrong#123"},
			kind:    apperrors.KindUnauthorized,
			message: "Invalid Password",
		},
		{
			name:    "unknown email",
			req:     models.LoginRequest{Email: "ghost@example.com", Password: "Secret#123"},
			kind:    apperrors.KindNotFound,
			message: "User Not Found",
		},
		{
			name:    "role mismatch",
			req:     models.LoginRequest{Email: "owner@example.com", Password: "Secret#123", Role: "Admin"},
			kind:    apperrors.KindNotFound,
			message: "User Not Found",
		},
		{
			name:    "invalid role",
			req:     models.LoginRequest{Email: "owner@example.com", Password: "Secret#123", Role: "superuser"},
			kind:    apperrors.KindValidation,
			message: "Invalid role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, token, err := f.svc.Login(ctx, tt.req)
			require.Error(t, err)
			assert.Empty(t, token)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, token, err := f.svc.Register(ctx, registerRequest("gone@example.com", ""))
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	_, err = f.svc.Authenticate(ctx, "not-a-token")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	f.users.Delete(user.ID)
	_, err = f.svc.Authenticate(ctx, token)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestAuthenticate_StorageFailure(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, token, err := f.svc.Register(ctx, registerRequest("down@example.com", ""))
	require.NoError(t, err)

	f.users.Err = errors.New("connection refused")
	_, err = f.svc.Authenticate(ctx, token)
	assert.True(t, apperrors.Is(err, apperrors.KindInternal))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, _, err := f.svc.Register(ctx, registerRequest("change@example.com", ""))
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.ID, models.ChangePasswordRequest{CurrentPassword: "Nope#1234", NewPassword: "Fresh#456"})
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", err.Error())

	err = f.svc.ChangePassword(ctx, user.ID, models.ChangePasswordRequest{CurrentPassword: "Secret#123", NewPassword: "Fresh#456"})
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, models.LoginRequest{Email: "change@example.com", Password: "Secret#123"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	_, _, err = f.svc.Login(ctx, models.LoginRequest{Email: "change@example.com", Password: "Fresh#456"})
	assert.NoError(t, err)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := newAuthFixture()

	err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, f.notifier.calls)
	assert.Equal(t, 0, f.resets.Len())
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, registerRequest("reset@example.com", ""))
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "reset@example.com"))
	assert.Equal(t, "reset@example.com", f.notifier.email)
	assert.True(t, strings.HasPrefix(f.notifier.link, "http://localhost:5173/reset-password?token="))

	token := f.notifier.token(t)
	require.Len(t, token, 64)

	req := models.ResetPasswordRequest{Token: token, NewPassword: "Brand#new1"}
	require.NoError(t, f.svc.ResetPassword(ctx, req))

	_, _, err = f.svc.Login(ctx, models.LoginRequest{Email: "reset@example.com", Password: "Brand#new1"})
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	assert.Equal(t, "Invalid or expired reset token", err.Error())
}

func TestResetPassword_Expired(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, registerRequest("late@example.com", ""))
	require.NoError(t, err)

	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return issued }
	require.NoError(t, f.svc.ForgotPassword(ctx, "late@example.com"))
	token := f.notifier.token(t)

	f.svc.now = func() time.Time { return issued.Add(31 * time.Minute) }
	err = f.svc.ResetPassword(ctx, models.ResetPasswordRequest{Token: token, NewPassword: "Brand#new1"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestResetPassword_ReissueDiscardsPrevious(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, registerRequest("twice@example.com", ""))
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "twice@example.com"))
	first := f.notifier.token(t)
	require.NoError(t, f.svc.ForgotPassword(ctx, "twice@example.com"))
	second := f.notifier.token(t)
	require.NotEqual(t, first, second)
	assert.Equal(t, 1, f.resets.Len())

	err = f.svc.ResetPassword(ctx, models.ResetPasswordRequest{Token: first, NewPassword: "Brand#new1"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	assert.NoError(t, f.svc.ResetPassword(ctx, models.ResetPasswordRequest{Token: second, NewPassword: "Brand#new1"}))
}

func TestHashResetToken(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		hashResetToken(""))
	assert.Len(t, hashResetToken("abc"), 64)
}

type failingNotifier struct{}

func (failingNotifier) SendPasswordReset(context.Context, string, string) error {
	return errors.New("smtp: connection refused")
}

func TestForgotPassword_DeliveryFailureLooksLikeSuccess(t *testing.T) {
	f := newAuthFixture()
	f.svc.notifier = failingNotifier{}
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, registerRequest("mailfail@example.com", ""))
	require.NoError(t, err)

	assert.NoError(t, f.svc.ForgotPassword(ctx, "mailfail@example.com"))
	assert.NoError(t, f.svc.ForgotPassword(ctx, "unknown@example.com"))
	assert.Equal(t, 1, f.resets.Len())
}
