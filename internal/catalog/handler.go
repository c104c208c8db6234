// AngelaMos | 2026
// handler.go

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/vipledger/internal/core"
)

type PackageResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DailyReturn  int64  `json:"daily_return"`
	DurationDays int    `json:"duration_days"`
	TotalReturn  int64  `json:"total_return"`
	DailyRate    string `json:"daily_rate_percent"`
	TotalRate    string `json:"total_rate_percent"`
}

func ToPackageResponse(p Package) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		DailyReturn:  p.DailyReturn,
		DurationDays: p.DurationDays,
		TotalReturn:  p.TotalReturn(),
		DailyRate:    p.DailyRate().StringFixed(2),
		TotalRate:    p.TotalRate().StringFixed(2),
	}
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/packages", h.List)
	r.Get("/packages/{packageID}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all := All()
	out := make([]PackageResponse, 0, len(all))
	for _, p := range all {
		out = append(out, ToPackageResponse(p))
	}
	core.OK(w, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := Lookup(chi.URLParam(r, "packageID"))
	if !ok {
		core.NotFound(w, "package")
		return
	}
	core.OK(w, ToPackageResponse(p))
}
