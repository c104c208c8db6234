// AngelaMos | 2026
// fake_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/vipledger/internal/core"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	users    *memUsers
}

func (m *memSessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = time.Now()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) FindWithUser(ctx context.Context, id string) (*SessionWithUser, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}

	u, err := m.users.GetByID(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	return &SessionWithUser{Session: s, Phone: u.Phone, Role: u.Role}, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("delete session: %w", core.ErrNotFound)
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) DeleteForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*UserInfo
	rehashs int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]*UserInfo)}
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, nu NewUser) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var referrerFound bool
	for _, u := range m.byID {
		if u.Phone == nu.Phone {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		if nu.ReferralCode != "" && u.ReferralCode == nu.ReferralCode {
			referrerFound = true
		}
	}
	if nu.ReferralCode != "" && !referrerFound {
		return nil, ErrInvalidReferralCode
	}

	code, err := core.GenerateReferralCode()
	if err != nil {
		return nil, err
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Name:         nu.Name,
		Phone:        nu.Phone,
		PasswordHash: nu.PasswordHash,
		Role:         "USER",
		ReferralCode: code,
		CreatedAt:    time.Now(),
	}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	m.rehashs++
	return nil
}

func (m *memUsers) setRole(userID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[userID].Role = role
}
