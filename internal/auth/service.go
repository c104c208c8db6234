// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/middleware"
)

type UserInfo struct {
	ID           string
	Name         string
	Phone        string
	PasswordHash string
	Role         string
	ReferralCode string
	CreatedAt    time.Time
}

// NewUser is a registration after validation and hashing. ReferralCode is
// the code of the inviting user, empty when there is none.
type NewUser struct {
	Name         string
	Phone        string
	PasswordHash string
	ReferralCode string
}

type UserProvider interface {
	GetByPhone(ctx context.Context, phone string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, u NewUser) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	signer       *CookieSigner
	userProvider UserProvider
	now          func() time.Time
}

func NewService(
	repo Repository,
	signer *CookieSigner,
	userProvider UserProvider,
) *Service {
	return &Service{
		repo:         repo,
		signer:       signer,
		userProvider: userProvider,
		now:          time.Now,
	}
}

// LoginResult is a fresh session and the signed cookie value that names it.
type LoginResult struct {
	User      *UserInfo
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, NewUser{
		Name:         strings.TrimSpace(req.Name),
		Phone:        normalizePhone(req.Phone),
		PasswordHash: passwordHash,
		ReferralCode: strings.ToUpper(strings.TrimSpace(req.ReferralCode)),
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*LoginResult, error) {
	user, err := s.userProvider.GetByPhone(ctx, normalizePhone(req.Phone))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // always hash so unknown phones cost the same
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	now := s.now()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.signer.TTL()),
		UserAgent: truncate(userAgent, 512),
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.signer.Sign(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout deletes the session row. An already missing session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

// VerifySession resolves a cookie value to the identity behind it. The role
// comes from the user row, not the cookie.
func (s *Service) VerifySession(
	ctx context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	sessionID, userID, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.FindWithUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify session: %w", core.ErrSessionInvalid)
		}
		return nil, err
	}

	if session.UserID != userID {
		return nil, fmt.Errorf("verify session: subject mismatch: %w", core.ErrSessionInvalid)
	}

	if session.IsExpiredAt(s.now()) {
		if err := s.repo.Delete(ctx, session.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "expired session cleanup failed", "session_id", session.ID, "error", err)
		}
		return nil, fmt.Errorf("verify session: %w", core.ErrSessionExpired)
	}

	return &middleware.SessionClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		Phone:     session.Phone,
		Role:      session.Role,
	}, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	return s.userProvider.GetByID(ctx, userID)
}

// RevokeUserSessions logs a user out everywhere.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteForUser(ctx, userID)
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func normalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ middleware.SessionVerifier = (*Service)(nil)
