// AngelaMos | 2026
// errors.go

package ledger

import (
	"errors"
	"net/http"

	"github.com/carterperez-dev/vipledger/internal/core"
)

var (
	ErrUnauthenticated               = errors.New("not authenticated")
	ErrUnauthorized                  = errors.New("admin role required")
	ErrUnknownPackage                = errors.New("unknown package")
	ErrInsufficientFunds             = errors.New("insufficient balance")
	ErrInvestmentLimitReached        = errors.New("active investment limit reached")
	ErrBelowMinimum                  = errors.New("amount below minimum withdrawal")
	ErrMissingDestination            = errors.New("destination account is required")
	ErrInsufficientWithdrawalBalance = errors.New("insufficient withdrawal balance")
	ErrInvalidAmount                 = errors.New("amount must be positive")
	ErrNotPending                    = errors.New("withdrawal request is not pending")
	ErrNotActive                     = errors.New("investment is not active")
)

type errorReason struct {
	status  int
	code    string
	message string
}

var errorTable = []struct {
	err    error
	reason errorReason
}{
	{ErrUnauthenticated, errorReason{http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"}},
	{ErrUnauthorized, errorReason{http.StatusForbidden, "UNAUTHORIZED", "access denied"}},
	{ErrUnknownPackage, errorReason{http.StatusBadRequest, "UNKNOWN_PACKAGE", "package not found"}},
	{ErrInsufficientFunds, errorReason{http.StatusBadRequest, "INSUFFICIENT_FUNDS", "insufficient balance"}},
	{ErrInvestmentLimitReached, errorReason{http.StatusBadRequest, "INVESTMENT_LIMIT_REACHED", "active investment limit reached"}},
	{ErrBelowMinimum, errorReason{http.StatusBadRequest, "BELOW_MINIMUM", "amount is below the minimum withdrawal"}},
	{ErrMissingDestination, errorReason{http.StatusBadRequest, "MISSING_DESTINATION", "destination account is required"}},
	{ErrInsufficientWithdrawalBalance, errorReason{http.StatusBadRequest, "INSUFFICIENT_WITHDRAWAL_BALANCE", "insufficient withdrawal balance"}},
	{ErrInvalidAmount, errorReason{http.StatusBadRequest, "INVALID_AMOUNT", "amount must be positive"}},
	{ErrNotPending, errorReason{http.StatusConflict, "NOT_PENDING", "withdrawal request is no longer pending"}},
	{ErrNotActive, errorReason{http.StatusConflict, "NOT_ACTIVE", "investment is not active"}},
	{core.ErrNotFound, errorReason{http.StatusNotFound, "NOT_FOUND", "not found"}},
}

// Code returns the reason code for err, STORAGE_ERROR for anything that is
// not a known business failure.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.reason.code
		}
	}
	return "STORAGE_ERROR"
}

// ToAppError converts a ledger error into its client representation.
// Unknown errors become storage errors with a generic message.
func ToAppError(err error) *core.AppError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return core.NewAppError(err, e.reason.message, e.reason.status, e.reason.code)
		}
	}
	return core.StorageError(err)
}

// IsBusinessError reports whether err is a validation or business-rule
// failure as opposed to a storage failure.
func IsBusinessError(err error) bool {
	return Code(err) != "STORAGE_ERROR"
}
