package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hd-motorparts/partsledger/internal/platform/httpx"
)

// Handler exposes the read-only report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/dashboard", h.handleDashboard)
	r.Get("/reports/vat", h.handleVAT)
	r.Get("/reports/profitability", h.handleProfitability)
	r.Get("/reports/period", h.handlePeriod)
	r.Get("/reports/inventory", h.handleInventory)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dr, err := rangeFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid date filter", err.Error())
		return
	}
	metrics, err := h.service.Dashboard(r.Context(), dr)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}

func (h *Handler) handleVAT(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intParam(q.Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid year", err.Error())
		return
	}
	month, err := intParam(q.Get("month"))
	if err != nil || month > 12 {
		httpx.Problem(w, http.StatusBadRequest, "invalid month", "")
		return
	}
	report, err := h.service.VAT(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleProfitability(w http.ResponseWriter, r *http.Request) {
	dr, err := rangeFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid date filter", err.Error())
		return
	}
	rows, err := h.service.Profitability(r.Context(), dr, r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) handlePeriod(w http.ResponseWriter, r *http.Request) {
	dr, err := rangeFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid date filter", err.Error())
		return
	}
	report, err := h.service.SalesByPeriod(r.Context(), dr)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Inventory(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("report request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.Problem(w, http.StatusInternalServerError, "internal error", "")
}

func rangeFromQuery(r *http.Request) (DateRange, error) {
	var dr DateRange
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return DateRange{}, err
		}
		dr.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return DateRange{}, err
		}
		dr.To = to
	}
	return dr, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
