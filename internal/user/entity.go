// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	ReferralCode string    `db:"referral_code"`
	ReferrerID   *string   `db:"referrer_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserWithWallet is a user row joined with its wallet balances for the admin
// listings.
type UserWithWallet struct {
	User
	Balance           int64 `db:"balance"`
	WithdrawalBalance int64 `db:"withdrawal_balance"`
}

// Referral is a user invited by someone. IsActive means the invited user
// holds at least one ACTIVE investment.
type Referral struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

type ReferralWithReferrer struct {
	Referral
	ReferrerID    string `db:"referrer_id"`
	ReferrerName  string `db:"referrer_name"`
	ReferrerPhone string `db:"referrer_phone"`
}
