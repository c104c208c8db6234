// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/vipledger/internal/core"
)

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	UserPhoneKey contextKey = "user_phone"
	SessionKey   contextKey = "session"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*SessionClaims, error)
}

// SessionClaims is the identity resolved from a session cookie. Role is read
// from the user row on every request, not from the cookie.
type SessionClaims struct {
	SessionID string
	UserID    string
	Phone     string
	Role      string
}

func Authenticator(
	verifier SessionVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			claims, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims)))
		})
	}
}

func OptionalAuth(
	verifier SessionVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token != "" {
				claims, err := verifier.VerifySession(r.Context(), token)
				if err == nil {
					r = r.WithContext(withSession(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func withSession(ctx context.Context, claims *SessionClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	ctx = context.WithValue(ctx, UserPhoneKey, claims.Phone)
	ctx = context.WithValue(ctx, SessionKey, claims)
	return ctx
}

// WithSession attaches claims to ctx the same way Authenticator does.
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return withSession(ctx, claims)
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin)(next)
}

// ExtractToken reads the session cookie, falling back to a bearer token for
// non-browser clients.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrSessionExpired):
		core.JSONError(w, core.SessionExpiredError())
	case errors.Is(err, core.ErrSessionInvalid), errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.SessionInvalidError())
	case errors.Is(err, core.ErrUnauthorized):
		core.JSONError(w, core.SessionInvalidError())
	default:
		core.JSONError(w, err)
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

func GetUserPhone(ctx context.Context) string {
	if phone, ok := ctx.Value(UserPhoneKey).(string); ok {
		return phone
	}
	return ""
}

func GetSession(ctx context.Context) *SessionClaims {
	if claims, ok := ctx.Value(SessionKey).(*SessionClaims); ok {
		return claims
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == RoleAdmin
}
