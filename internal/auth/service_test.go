// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package auth_test

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/sec"
)

// # Test Doubles

type memoryUserRepo struct {
	byID    map[string]*auth.User
	byEmail map[string]*auth.User
}

func newMemoryUserRepo(users ...*auth.User) *memoryUserRepo {
	repo := &memoryUserRepo{byID: map[string]*auth.User{}, byEmail: map[string]*auth.User{}}
	for _, user := range users {
		repo.byID[user.ID] = user
		repo.byEmail[user.Email] = user
	}
	return repo
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryUserRepo) Create(_ context.Context, user *auth.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *memoryUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	user, ok := r.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

// capturingRecorder keeps every audit event handed to it.
type capturingRecorder struct {
	events []audit.Event
}

func (r *capturingRecorder) Record(_ context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (r *capturingRecorder) actions() []audit.Action {
	actions := make([]audit.Action, 0, len(r.events))
	for _, event := range r.events {
		actions = append(actions, event.Action)
	}
	return actions
}

// # Fixture

const testPassword = "correct horse battery staple"

type fixture struct {
	service  *auth.Service
	registry *auth.RedisSessionRegistry
	repo     *memoryUserRepo
	recorder *capturingRecorder
	tokens   *sec.TokenService
	user     *auth.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := sec.NewTokenService("unit-test-secret-0123456789abcdef", "lumera.shop")
	require.NoError(t, err)

	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	user := &auth.User{
		ID:           "0198ff3a-0000-7000-8000-000000000001",
		Email:        "alice@example.com",
		PasswordHash: hash,
		DisplayName:  "Alice",
		Role:         authz.RoleCustomer,
		Status:       authz.StatusActive,
	}

	registry := auth.NewSessionRegistry(client)
	repo := newMemoryUserRepo(user)
	recorder := &capturingRecorder{}

	return &fixture{
		service:  auth.NewService(repo, registry, tokens, recorder),
		registry: registry,
		repo:     repo,
		recorder: recorder,
		tokens:   tokens,
		user:     user,
	}
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	assert.Equal(t, msg, appErr.Error())
}

// # Tests

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.service.Register(ctx, auth.RegisterInput{
		Email:       "bob@example.com",
		Password:    "another fine password",
		DisplayName: "Bob",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, authz.RoleCustomer, user.Role)
	assert.Equal(t, authz.StatusActive, user.Status)
	assert.NotEqual(t, "another fine password", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("another fine password", user.PasswordHash))
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:       f.user.Email,
		Password:    "whatever",
		DisplayName: "Impostor",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

/*
TestService_Login covers the happy path: the pair carries two distinct,
decodable tokens of the right kinds, both recorded as live sessions.
*/
func TestService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{
		Email:     f.user.Email,
		Password:  testPassword,
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	accessClaims, err := f.tokens.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := f.tokens.Decode(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, sec.KindRefresh, refreshClaims.Kind)
	assert.Equal(t, f.user.ID, accessClaims.UserID)
	assert.NotEqual(t, accessClaims.TokenID(), refreshClaims.TokenID())

	sessions, err := f.registry.ListActiveSessions(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	assert.Equal(t, []audit.Action{audit.ActionLogin}, f.recorder.actions())
}

/*
TestService_Login_GenericRejection verifies the enumeration defense: an
unknown email, a wrong password, and a suspended account all return the
identical unauthorized error.
*/
func TestService_Login_GenericRejection(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) auth.LoginInput
	}{
		{
			name: "unknown_email",
			setup: func(f *fixture) auth.LoginInput {
				return auth.LoginInput{Email: "nobody@example.com", Password: testPassword}
			},
		},
		{
			name: "wrong_password",
			setup: func(f *fixture) auth.LoginInput {
				return auth.LoginInput{Email: f.user.Email, Password: "not the password"}
			},
		},
		{
			name: "suspended_account",
			setup: func(f *fixture) auth.LoginInput {
				f.user.Status = authz.StatusSuspended
				return auth.LoginInput{Email: f.user.Email, Password: testPassword}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			input := tt.setup(f)

			pair, err := f.service.Login(context.Background(), input)

			assert.Nil(t, pair)
			assertUnauthorized(t, err, "Invalid login credentials")
			assert.Equal(t, []audit.Action{audit.ActionLoginFailed}, f.recorder.actions())
		})
	}
}

/*
TestService_Refresh_Rotation verifies rotation and replay rejection: the
first refresh succeeds and kills the presented token, so a second use of
the same token is rejected.
*/
func TestService_Refresh_Rotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)

	rotated, err := f.service.Refresh(ctx, pair.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)

	// Replay of the consumed token is dead on arrival.
	replayed, err := f.service.Refresh(ctx, pair.RefreshToken, "", "")
	assert.Nil(t, replayed)
	assertUnauthorized(t, err, "Invalid or expired refresh token")
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)

	rotated, err := f.service.Refresh(ctx, pair.AccessToken, "", "")
	assert.Nil(t, rotated)
	assertUnauthorized(t, err, "Invalid or expired refresh token")
}

func TestService_Refresh_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)

	f.user.Status = authz.StatusSuspended

	rotated, err := f.service.Refresh(ctx, pair.RefreshToken, "", "")
	assert.Nil(t, rotated)
	assertUnauthorized(t, err, "User not found or suspended")
}

/*
TestService_Logout verifies that logout revokes both halves of the pair
and that repeating it is harmless.
*/
func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)
	claims, err := f.tokens.VerifyToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, claims, pair.RefreshToken))

	sessions, err := f.registry.ListActiveSessions(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Idempotent: a second logout with the same tokens still succeeds.
	assert.NoError(t, f.service.Logout(ctx, claims, pair.RefreshToken))
}

func TestService_RevokeSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)
	claims, err := f.tokens.VerifyToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeSession(ctx, f.user.ID, claims.TokenID()))

	revoked, err := f.registry.IsRevoked(ctx, claims.TokenID())
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestService_RevokeSession_NotOwned(t *testing.T) {
	f := newFixture(t)

	err := f.service.RevokeSession(context.Background(), f.user.ID, "someone-elses-token")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

/*
TestService_ChangePassword verifies the full rotation: the new password
works, the old one does not, and every live session is revoked.
*/
func TestService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.service.Login(ctx, auth.LoginInput{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)

	const newPassword = "an even finer password"
	require.NoError(t, f.service.ChangePassword(ctx, f.user.ID, testPassword, newPassword))

	assert.True(t, sec.CheckPasswordHash(newPassword, f.user.PasswordHash))
	assert.False(t, sec.CheckPasswordHash(testPassword, f.user.PasswordHash))

	claims, err := f.tokens.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	revoked, err := f.registry.IsRevoked(ctx, claims.TokenID())
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestService_ChangePassword_WrongCurrent(t *testing.T) {
	f := newFixture(t)

	err := f.service.ChangePassword(context.Background(), f.user.ID, "not the password", "irrelevant")

	assertUnauthorized(t, err, "Current password is incorrect")
	assert.True(t, sec.CheckPasswordHash(testPassword, f.user.PasswordHash))
}
