// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Get("/me/referrals", h.ListMyReferrals)
	})
}

// RegisterAdminRoutes registers admin-only user management endpoints. Paths
// are absolute so other packages can share the /admin prefix.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/users", h.ListUsers)
		r.Get("/admin/users/{userID}", h.GetUser)
		r.Put("/admin/users/{userID}/role", h.UpdateUserRole)
		r.Get("/admin/referrals", h.ListReferrals)
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid role")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "cannot change your own role")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ProfileResponse{
		UserResponse: ToUserResponse(profile.User),
		ReferralLink: profile.ReferralLink,
	})
}

func (h *Handler) ListMyReferrals(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.ListMyReferrals(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToReferralResponseList(refs))
}

// ListUsers returns a paginated list of users with their wallet balances.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(w, ToAdminUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToAdminUserResponse(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUserRole(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// ListReferrals returns every referred user alongside the user who invited
// them.
func (h *Handler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	refs, total, err := h.service.ListReferrals(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(w, ToAdminReferralResponseList(refs), params.Page, params.PageSize, total)
}

func listParams(r *http.Request) ListUsersParams {
	return ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
