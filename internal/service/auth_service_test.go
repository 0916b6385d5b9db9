package service

import (
	"testing"

	"github.com/examhall/examhall/config"
	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (AuthService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLMinutes = 5
	return NewAuthService(env.userRepo, cfg), env
}

func TestSignupAlwaysCreatesStudent(t *testing.T) {
	auth, env := newAuthService(t)

	resp, err := auth.Signup(dto.SignupRequest{
		Email:    "new@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, resp.Role)

	user, err := env.userRepo.FindByEmail("new@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.HashedPassword)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Signup(dto.SignupRequest{Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = auth.Signup(dto.SignupRequest{Email: "dup@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestLoginAndAuthenticateRoundTrip(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Signup(dto.SignupRequest{Email: "login@example.com", Password: "secret1"})
	require.NoError(t, err)

	token, err := auth.Login(dto.LoginRequest{Email: "login@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	user, err := auth.Authenticate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Signup(dto.SignupRequest{Email: "login@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = auth.Login(dto.LoginRequest{Email: "login@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Authenticate("not-a-token")
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))
}
