// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code"`
	ReferrerID   *string   `json:"referrer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProfileResponse struct {
	UserResponse
	ReferralLink string `json:"referral_link"`
}

type AdminUserResponse struct {
	UserResponse
	Balance           int64 `json:"balance"`
	WithdrawalBalance int64 `json:"withdrawal_balance"`
}

type ReferralResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type ReferrerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AdminReferralResponse struct {
	ReferralResponse
	Referrer ReferrerSummary `json:"referrer"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
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

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         u.Role,
		ReferralCode: u.ReferralCode,
		ReferrerID:   u.ReferrerID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToAdminUserResponse(u *UserWithWallet) AdminUserResponse {
	return AdminUserResponse{
		UserResponse:      ToUserResponse(&u.User),
		Balance:           u.Balance,
		WithdrawalBalance: u.WithdrawalBalance,
	}
}

func ToAdminUserResponseList(users []UserWithWallet) []AdminUserResponse {
	responses := make([]AdminUserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToAdminUserResponse(&users[i]))
	}
	return responses
}

func toReferralResponse(r Referral) ReferralResponse {
	return ReferralResponse{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

func ToReferralResponseList(refs []Referral) []ReferralResponse {
	responses := make([]ReferralResponse, 0, len(refs))
	for _, r := range refs {
		responses = append(responses, toReferralResponse(r))
	}
	return responses
}

func ToAdminReferralResponseList(refs []ReferralWithReferrer) []AdminReferralResponse {
	responses := make([]AdminReferralResponse, 0, len(refs))
	for _, r := range refs {
		responses = append(responses, AdminReferralResponse{
			ReferralResponse: toReferralResponse(r.Referral),
			Referrer: ReferrerSummary{
				ID:    r.ReferrerID,
				Name:  r.ReferrerName,
				Phone: r.ReferrerPhone,
			},
		})
	}
	return responses
}
