// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/vipledger/internal/config"
	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	cookie    config.SessionConfig
}

func NewHandler(service *Service, cookie config.SessionConfig) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		cookie:    cookie,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, credentialLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(credentialLimiter).Post("/register", h.Register)
		r.With(credentialLimiter).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/logout", h.Logout)
		})
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Delete("/admin/users/{userID}/sessions", h.RevokeUserSessions)
		r.Post("/admin/sessions/purge", h.PurgeExpiredSessions)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, toAppError(err))
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Login(r.Context(), req, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		core.JSONError(w, toAppError(err))
		return
	}

	http.SetCookie(w, h.sessionCookie(result.Token, result.ExpiresAt))

	core.OK(w, LoginResponse{
		User:      ToUserResponse(result.User),
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Logout(r.Context(), session.SessionID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, SessionResponse{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Phone:     session.Phone,
		Role:      session.Role,
	})
}

func (h *Handler) RevokeUserSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RevokeUserSessions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]int64{"revoked": n})
}

func (h *Handler) PurgeExpiredSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.PurgeExpiredSessions(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]int64{"purged": n})
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
