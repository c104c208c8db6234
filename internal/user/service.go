// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/vipledger/internal/auth"
	"github.com/carterperez-dev/vipledger/internal/config"
	"github.com/carterperez-dev/vipledger/internal/core"
)

const maxReferralCodeAttempts = 5

type Service struct {
	repo Repository
	app  config.AppConfig

	generateCode func() (string, error)
}

func NewService(repo Repository, app config.AppConfig) *Service {
	return &Service{
		repo:         repo,
		app:          app,
		generateCode: core.GenerateReferralCode,
	}
}

// Create registers a user and its empty wallet in one transaction. A
// non-empty referral code must belong to an existing user.
func (s *Service) Create(ctx context.Context, nu auth.NewUser) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Name:         nu.Name,
		Phone:        nu.Phone,
		PasswordHash: nu.PasswordHash,
		Role:         RoleUser,
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if nu.ReferralCode != "" {
			referrer, err := tx.GetByReferralCode(ctx, nu.ReferralCode)
			if errors.Is(err, core.ErrNotFound) {
				return auth.ErrInvalidReferralCode
			}
			if err != nil {
				return err
			}
			user.ReferrerID = &referrer.ID
		}

		code, err := s.uniqueReferralCode(ctx, tx)
		if err != nil {
			return err
		}
		user.ReferralCode = code

		if err := tx.Create(ctx, user); err != nil {
			return err
		}
		return tx.CreateWallet(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) uniqueReferralCode(ctx context.Context, repo Repository) (string, error) {
	for range maxReferralCodeAttempts {
		code, err := s.generateCode()
		if err != nil {
			return "", err
		}

		exists, err := repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate referral code: %w", core.ErrConflict)
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Profile is the caller's own account with a shareable referral link.
type Profile struct {
	User         *User
	ReferralLink string
}

func (s *Service) GetMe(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:         user,
		ReferralLink: s.app.ReferralLink(user.ReferralCode),
	}, nil
}

func (s *Service) ListMyReferrals(ctx context.Context, userID string) ([]Referral, error) {
	if userID == "" {
		return nil, fmt.Errorf("list referrals: %w", core.ErrUnauthorized)
	}
	return s.repo.ListReferrals(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, id string) (*UserWithWallet, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return s.repo.GetWithWallet(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]UserWithWallet, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) ListReferrals(
	ctx context.Context,
	params ListUsersParams,
) ([]ReferralWithReferrer, int, error) {
	params.Normalize()
	return s.repo.ListAllReferrals(ctx, params)
}

// UpdateUserRole changes a user's role. Administrators cannot demote
// themselves.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorID, id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	if !validID(id) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}

	if actorID == id && role != RoleAdmin {
		return nil, fmt.Errorf("update role: cannot demote yourself: %w", core.ErrForbidden)
	}

	return s.repo.UpdateRole(ctx, id, role)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
