// AngelaMos | 2026
// errors.go

package auth

import (
	"errors"
	"net/http"

	"github.com/carterperez-dev/vipledger/internal/core"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPhoneTaken          = errors.New("phone already registered")
	ErrInvalidReferralCode = errors.New("invalid referral code")
)

func toAppError(err error) *core.AppError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return core.NewAppError(err, "invalid phone or password", http.StatusUnauthorized, "INVALID_CREDENTIALS")
	case errors.Is(err, ErrPhoneTaken):
		return core.NewAppError(err, "phone number already registered", http.StatusConflict, "PHONE_TAKEN")
	case errors.Is(err, ErrInvalidReferralCode):
		return core.NewAppError(err, "referral code not found", http.StatusBadRequest, "INVALID_REFERRAL_CODE")
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("user")
	default:
		return core.StorageError(err)
	}
}
