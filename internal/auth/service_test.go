// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/middleware"
)

type authFixture struct {
	svc      *Service
	users    *memUsers
	sessions *memSessions
	clock    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users: newMemUsers(),
		clock: time.Now().Truncate(time.Second),
	}
	f.sessions = &memSessions{sessions: make(map[string]Session), users: f.users}

	signer := newTestSigner(t, f.clock)
	signer.now = func() time.Time { return f.clock }

	f.svc = NewService(f.sessions, signer, f.users)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *authFixture) register(t *testing.T, phone, password, referral string) *UserInfo {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Name:         "Ana",
		Phone:        phone,
		Password:     password,
		ReferralCode: referral,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	u := f.register(t, " 923 456 789 ", "secret123", "")
	assert.Equal(t, "923456789", u.Phone)
	assert.Len(t, u.ReferralCode, 8)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Name: "Dup", Phone: "923456789", Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrPhoneTaken)

	_, err = f.svc.Register(context.Background(), RegisterRequest{
		Name: "Ref", Phone: "911111111", Password: "secret123", ReferralCode: "ZZZZZZZZ",
	})
	assert.ErrorIs(t, err, ErrInvalidReferralCode)

	invited := f.register(t, "922222222", "secret123", u.ReferralCode)
	assert.NotEmpty(t, invited.ID)
}

func TestLogin_CreatesVerifiableSession(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "923456789", "secret123", "")

	res, err := f.svc.Login(context.Background(), LoginRequest{
		Phone: "923456789", Password: "secret123",
	}, "test-agent", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(testSessionConfig.TTL), res.ExpiresAt)

	claims, err := f.svc.VerifySession(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "923456789", claims.Phone)
	assert.Equal(t, middleware.RoleUser, claims.Role)

	f.users.setRole(u.ID, middleware.RoleAdmin)
	claims, err = f.svc.VerifySession(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, middleware.RoleAdmin, claims.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "923456789", "secret123", "")

	tests := []struct {
		name  string
		phone string
		pass  string
	}{
		{"wrong password", "923456789", "nope-nope"},
		{"unknown phone", "900000000", "secret123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), LoginRequest{Phone: tc.phone, Password: tc.pass}, "", "")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_UpgradesLegacyBcryptHash(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "923456789", "secret123", "")

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdatePassword(context.Background(), u.ID, string(legacy)))
	f.users.rehashs = 0

	_, err = f.svc.Login(context.Background(), LoginRequest{Phone: "923456789", Password: "secret123"}, "", "")
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.rehashs)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
}

func TestVerifySession_RejectsRevokedAndExpired(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "923456789", "secret123", "")

	login := func() *LoginResult {
		res, err := f.svc.Login(context.Background(), LoginRequest{Phone: "923456789", Password: "secret123"}, "", "")
		require.NoError(t, err)
		return res
	}

	t.Run("logged out", func(t *testing.T) {
		res := login()
		claims, err := f.svc.VerifySession(context.Background(), res.Token)
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(context.Background(), claims.SessionID))
		require.NoError(t, f.svc.Logout(context.Background(), claims.SessionID))

		_, err = f.svc.VerifySession(context.Background(), res.Token)
		assert.ErrorIs(t, err, core.ErrSessionInvalid)
	})

	t.Run("expired row", func(t *testing.T) {
		res := login()
		claims, err := f.svc.VerifySession(context.Background(), res.Token)
		require.NoError(t, err)

		f.sessions.mu.Lock()
		s := f.sessions.sessions[claims.SessionID]
		s.ExpiresAt = f.clock.Add(-time.Minute)
		f.sessions.sessions[claims.SessionID] = s
		f.sessions.mu.Unlock()

		_, err = f.svc.VerifySession(context.Background(), res.Token)
		assert.ErrorIs(t, err, core.ErrSessionExpired)

		f.sessions.mu.Lock()
		_, stillThere := f.sessions.sessions[claims.SessionID]
		f.sessions.mu.Unlock()
		assert.False(t, stillThere)
	})
}

func TestRevokeAndPurge(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "923456789", "secret123", "")

	for range 3 {
		_, err := f.svc.Login(context.Background(), LoginRequest{Phone: "923456789", Password: "secret123"}, "", "")
		require.NoError(t, err)
	}

	n, err := f.svc.RevokeUserSessions(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = f.svc.Login(context.Background(), LoginRequest{Phone: "923456789", Password: "secret123"}, "", "")
	require.NoError(t, err)
	f.clock = f.clock.Add(testSessionConfig.TTL + time.Hour)

	n, err = f.svc.PurgeExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
