package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsrz/intranet/internal/auth"
	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/domain"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

func newAuthEnv(t *testing.T) (*env, *AuthService, *fakeSessions, *domain.User) {
	t.Helper()
	e := newEnv()
	dept := createDept(t, e, "IT", nil)
	user, err := e.users.Create(context.Background(), UserCreateInput{
		Email: "admin@corp.local", Password: "pw", Lastname: "Admin", Firstname: "Root",
		Role: domain.RoleAdmin, DepartmentID: dept,
	})
	require.NoError(t, err)

	sessions := newFakeSessions()
	cfg := config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, LoginMaxAttempts: 3, LoginWindowMinutes: 1}
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: fakeUserRepo{s: e.store}, SessionStore: sessions})
	return e, svc, sessions, user
}

func TestLogin_Success(t *testing.T) {
	_, svc, sessions, user := newAuthEnv(t)
	sessions.failures["admin@corp.local"] = 2

	res, err := svc.Login(context.Background(), " Admin@Corp.Local ", "pw")
	require.NoError(t, err)

	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
	claims, err := svc.TokenManager().ParseToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), res.Token.ExpiresAt, time.Minute)
	assert.Zero(t, sessions.failures["admin@corp.local"])
}

func TestLogin_WrongPasswordThenThrottled(t *testing.T) {
	_, svc, sessions, _ := newAuthEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "admin@corp.local", "bad")
		require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "attempt %d: %v", i, err)
	}
	assert.Equal(t, int64(3), sessions.failures["admin@corp.local"])

	_, err := svc.Login(ctx, "admin@corp.local", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTooManyRequests))
}

func TestLogin_UnknownEmailCountsAsFailure(t *testing.T) {
	_, svc, sessions, _ := newAuthEnv(t)

	_, err := svc.Login(context.Background(), "ghost@corp.local", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Equal(t, int64(1), sessions.failures["ghost@corp.local"])
}

func TestLogin_Blocked(t *testing.T) {
	e, svc, _, user := newAuthEnv(t)
	blocked := domain.UserStatusBlocked
	_, err := e.users.Update(context.Background(), user.ID, UserUpdateInput{Status: &blocked})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "admin@corp.local", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestLogin_Validation(t *testing.T) {
	_, svc, _, _ := newAuthEnv(t)
	_, err := svc.Login(context.Background(), "", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestLogin_StoreFailure(t *testing.T) {
	e, _, _, _ := newAuthEnv(t)
	svc := NewAuthService(config.AuthConfig{JWTSecret: "x"}, AuthDependencies{
		UserRepo: fakeUserRepo{s: e.store, getErr: errStoreDown},
	})

	_, err := svc.Login(context.Background(), "admin@corp.local", "pw")
	assert.True(t, apperrors.IsStore(err))
}

func TestLogin_SessionStoreDownStillLogsIn(t *testing.T) {
	_, svc, sessions, _ := newAuthEnv(t)
	sessions.err = errStoreDown

	res, err := svc.Login(context.Background(), "admin@corp.local", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestLogout_RevokesToken(t *testing.T) {
	_, svc, sessions, _ := newAuthEnv(t)
	res, err := svc.Login(context.Background(), "admin@corp.local", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.Token))
	revoked, err := sessions.IsRevoked(context.Background(), res.Token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

var _ auth.SessionStore = (*fakeSessions)(nil)
