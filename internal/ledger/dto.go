// AngelaMos | 2026
// dto.go

package ledger

import (
	"time"
)

type PurchaseRequest struct {
	PackageID string `json:"package_id" validate:"required,max=32"`
}

type WithdrawalCreateRequest struct {
	Amount      int64  `json:"amount"`
	Destination string `json:"destination" validate:"max=64"`
}

type CreditRequest struct {
	Amount int64 `json:"amount"`
}

type WalletResponse struct {
	WalletID          string    `json:"wallet_id"`
	Balance           int64     `json:"balance"`
	WithdrawalBalance int64     `json:"withdrawal_balance"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type InvestmentResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	PackageID      string     `json:"package_id"`
	Amount         int64      `json:"amount"`
	DailyReturn    int64      `json:"daily_return"`
	DurationDays   int        `json:"duration_days"`
	Status         string     `json:"status"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	CreditedDays   int        `json:"credited_days"`
	TotalReturned  int64      `json:"total_returned"`
	LastCreditedOn *time.Time `json:"last_credited_on,omitempty"`
	UserName       string     `json:"user_name,omitempty"`
	UserPhone      string     `json:"user_phone,omitempty"`
}

type WithdrawalResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Amount      int64      `json:"amount"`
	Destination string     `json:"destination"`
	Status      string     `json:"status"`
	ProcessedBy *string    `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UserName    string     `json:"user_name,omitempty"`
	UserPhone   string     `json:"user_phone,omitempty"`
}

// Dashboard is the per-user summary cached in redis.
type Dashboard struct {
	Wallet            WalletResponse       `json:"wallet"`
	ActiveInvestments []InvestmentResponse `json:"active_investments"`
	RecentWithdrawals []WithdrawalResponse `json:"recent_withdrawals"`
	TotalInvested     int64                `json:"total_invested"`
	DailyIncome       int64                `json:"daily_income"`
}

type ListParams struct {
	Page     int
	PageSize int
	Status   string
	UserID   string
	Search   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ToWalletResponse exposes the owner's phone as the wallet id when known.
func ToWalletResponse(w *Wallet) WalletResponse {
	walletID := w.Phone
	if walletID == "" {
		walletID = w.ID
	}
	return WalletResponse{
		WalletID:          walletID,
		Balance:           w.Balance,
		WithdrawalBalance: w.WithdrawalBalance,
		UpdatedAt:         w.UpdatedAt,
	}
}

func ToInvestmentResponse(i *Investment) InvestmentResponse {
	return InvestmentResponse{
		ID:             i.ID,
		UserID:         i.UserID,
		PackageID:      i.PackageID,
		Amount:         i.Amount,
		DailyReturn:    i.DailyReturn,
		DurationDays:   i.DurationDays,
		Status:         i.Status,
		StartDate:      i.StartDate,
		EndDate:        i.EndDate,
		CreditedDays:   i.CreditedDays,
		TotalReturned:  i.TotalReturned,
		LastCreditedOn: i.LastCreditedOn,
	}
}

func ToInvestmentResponseList(items []Investment) []InvestmentResponse {
	out := make([]InvestmentResponse, 0, len(items))
	for i := range items {
		out = append(out, ToInvestmentResponse(&items[i]))
	}
	return out
}

func ToInvestmentWithUserList(items []InvestmentWithUser) []InvestmentResponse {
	out := make([]InvestmentResponse, 0, len(items))
	for i := range items {
		resp := ToInvestmentResponse(&items[i].Investment)
		resp.UserName = items[i].UserName
		resp.UserPhone = items[i].UserPhone
		out = append(out, resp)
	}
	return out
}

func ToWithdrawalResponse(w *WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		Destination: w.Destination,
		Status:      w.Status,
		ProcessedBy: w.ProcessedBy,
		ProcessedAt: w.ProcessedAt,
		CreatedAt:   w.CreatedAt,
	}
}

func ToWithdrawalResponseList(items []WithdrawalRequest) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(items))
	for i := range items {
		out = append(out, ToWithdrawalResponse(&items[i]))
	}
	return out
}

func ToWithdrawalWithUserList(items []WithdrawalWithUser) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(items))
	for i := range items {
		resp := ToWithdrawalResponse(&items[i].WithdrawalRequest)
		resp.UserName = items[i].UserName
		resp.UserPhone = items[i].UserPhone
		out = append(out, resp)
	}
	return out
}
