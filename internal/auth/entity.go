// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	UserAgent string    `db:"user_agent"`
	IPAddress string    `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Session) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionWithUser carries the owner's current phone and role, read on every
// lookup so a role change takes effect without a new login.
type SessionWithUser struct {
	Session
	Phone string `db:"phone"`
	Role  string `db:"role"`
}
