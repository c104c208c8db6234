// AngelaMos | 2026
// handler.go

package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
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

func actorFrom(r *http.Request) Actor {
	return Actor{
		UserID: middleware.GetUserID(r.Context()),
		Admin:  middleware.IsAdmin(r.Context()),
	}
}

func writeError(w http.ResponseWriter, err error) {
	core.JSONError(w, ToAppError(err))
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/wallet", h.GetWallet)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/investments", h.ListMyInvestments)
		r.Post("/investments", h.Purchase)
		r.Get("/withdrawals", h.ListMyWithdrawals)
		r.Post("/withdrawals", h.RequestWithdrawal)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/investments", h.ListInvestments)
		r.Post("/admin/investments/{investmentID}/cancel", h.CancelInvestment)
		r.Get("/admin/withdrawals", h.ListWithdrawals)
		r.Post("/admin/withdrawals/{withdrawalID}/approve", h.ApproveWithdrawal)
		r.Post("/admin/withdrawals/{withdrawalID}/reject", h.RejectWithdrawal)
		r.Post("/admin/returns/process", h.ProcessReturns)
		r.Get("/admin/users/{userID}/investments", h.ListUserInvestments)
		r.Post("/admin/users/{userID}/balance", h.CreditBalance)
		r.Post("/admin/users/{userID}/withdrawal-balance", h.CreditWithdrawalBalance)
	})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.GetWallet(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToWalletResponse(wallet))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, d)
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	inv, err := h.service.PurchasePackage(r.Context(), actorFrom(r), req.PackageID)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToInvestmentResponse(inv))
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	wr, err := h.service.RequestWithdrawal(
		r.Context(),
		actorFrom(r),
		req.Destination,
		req.Amount,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToWithdrawalResponse(wr))
}

func (h *Handler) ListMyInvestments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMyInvestments(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToInvestmentResponseList(items))
}

func (h *Handler) ListMyWithdrawals(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMyWithdrawals(
		r.Context(),
		actorFrom(r),
		parseIntQuery(r, "limit", 100),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToWithdrawalResponseList(items))
}

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	wr, err := h.service.ApproveWithdrawal(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "withdrawalID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToWithdrawalResponse(wr))
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	wr, err := h.service.RejectWithdrawal(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "withdrawalID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToWithdrawalResponse(wr))
}

func (h *Handler) CancelInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.CancelInvestment(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "investmentID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToInvestmentResponse(inv))
}

func (h *Handler) ProcessReturns(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ProcessReturns(r.Context(), actorFrom(r))
	if err != nil {
		if result != nil {
			slog.ErrorContext(r.Context(), "return processing stopped mid-batch",
				"error", err,
				"processed", result.Processed,
				"completed", result.Completed,
				"skipped", result.Skipped,
				"credited", result.Credited,
			)
		}
		writeError(w, err)
		return
	}

	core.OK(w, result)
}

func (h *Handler) CreditBalance(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.service.CreditBalance)
}

func (h *Handler) CreditWithdrawalBalance(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.service.CreditWithdrawalBalance)
}

func (h *Handler) credit(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, actor Actor, userID string, amount int64) (*Wallet, error),
) {
	var req CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	wallet, err := apply(r.Context(), actorFrom(r), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToWalletResponse(wallet))
}

func (h *Handler) ListUserInvestments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUserInvestments(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToInvestmentResponseList(items))
}

func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	items, total, err := h.service.ListInvestments(r.Context(), actorFrom(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(w, ToInvestmentWithUserList(items), params.Page, params.PageSize, total)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	items, total, err := h.service.ListWithdrawals(r.Context(), actorFrom(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(w, ToWithdrawalWithUserList(items), params.Page, params.PageSize, total)
}

func listParams(r *http.Request) ListParams {
	return ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
