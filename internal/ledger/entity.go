// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"
)

const (
	InvestmentActive    = "ACTIVE"
	InvestmentCompleted = "COMPLETED"
	InvestmentCancelled = "CANCELLED"
)

const (
	WithdrawalPending  = "PENDING"
	WithdrawalApproved = "APPROVED"
	WithdrawalRejected = "REJECTED"
)

type Wallet struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	Balance           int64     `db:"balance"`
	WithdrawalBalance int64     `db:"withdrawal_balance"`
	UpdatedAt         time.Time `db:"updated_at"`
	Phone             string    `db:"phone"`
}

type Investment struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	PackageID      string     `db:"package_id"`
	Amount         int64      `db:"amount"`
	DailyReturn    int64      `db:"daily_return"`
	DurationDays   int        `db:"duration_days"`
	Status         string     `db:"status"`
	StartDate      time.Time  `db:"start_date"`
	EndDate        time.Time  `db:"end_date"`
	LastCreditedOn *time.Time `db:"last_credited_on"`
	CreditedDays   int        `db:"credited_days"`
	TotalReturned  int64      `db:"total_returned"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (i *Investment) IsActive() bool {
	return i.Status == InvestmentActive
}

// Matured reports whether the investment has reached its end date.
func (i *Investment) Matured(now time.Time) bool {
	return !now.Before(i.EndDate)
}

type InvestmentWithUser struct {
	Investment
	UserName  string `db:"user_name"`
	UserPhone string `db:"user_phone"`
}

type WithdrawalRequest struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Amount      int64      `db:"amount"`
	Destination string     `db:"destination"`
	Status      string     `db:"status"`
	ProcessedBy *string    `db:"processed_by"`
	ProcessedAt *time.Time `db:"processed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == WithdrawalPending
}

type WithdrawalWithUser struct {
	WithdrawalRequest
	UserName  string `db:"user_name"`
	UserPhone string `db:"user_phone"`
}

// Actor is the caller of a ledger operation as resolved from the session.
type Actor struct {
	UserID string
	Admin  bool
}

func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// ProcessResult summarises one run of daily return processing.
type ProcessResult struct {
	Processed int   `json:"processed"`
	Completed int   `json:"completed"`
	Skipped   int   `json:"skipped"`
	Credited  int64 `json:"credited"`
}
