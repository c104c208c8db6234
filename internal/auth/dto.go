// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Phone    string `json:"phone"    validate:"required,min=6,max=20"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Name         string `json:"name"          validate:"required,min=1,max=100"`
	Phone        string `json:"phone"         validate:"required,min=6,max=20"`
	Password     string `json:"password"      validate:"required,min=6,max=128"`
	ReferralCode string `json:"referral_code" validate:"omitempty,len=8,alphanum"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func ToUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         u.Role,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt,
	}
}
