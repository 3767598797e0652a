package summary

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler handles HTTP requests for trip summaries and exports
type Handler struct {
	service *Service
}

// NewHandler creates a new summary handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountTripRoutes registers endpoints under /trips/{tripId}
func (h *Handler) MountTripRoutes(r chi.Router) {
	r.Get("/summary", h.GetSummary)
	r.Get("/export", h.Export)
}

// GetSummary handles GET /trips/{tripId}/summary
// @Summary      Get trip summary
// @Description  Totals, balances, proposed and recorded settlements, and spending by category and status
// @Tags         summary
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /trips/{tripId}/summary [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.TripSummary(r.Context(), tripID, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// Export handles GET /trips/{tripId}/export
// @Summary      Export trip data
// @Description  Download expenses with their splits, optionally with balances and settlements, as JSON or CSV
// @Tags         summary
// @Produce      json
// @Produce      text/csv
// @Param        tripId path int true "Trip ID"
// @Param        format query string false "json or csv" default(json)
// @Param        from query string false "Earliest expense date (YYYY-MM-DD)"
// @Param        to query string false "Latest expense date (YYYY-MM-DD)"
// @Param        category query []string false "Categories to include" collectionFormat(multi)
// @Param        include_balances query bool false "Add member balances"
// @Param        include_settlements query bool false "Add recorded settlements"
// @Success      200 {file} file
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format, err := ParseFormat(q.Get("format"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter, err := expense.ParseListFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	opts := ExportOptions{
		From:               filter.From,
		To:                 filter.To,
		IncludeBalances:    q.Get("include_balances") == "true",
		IncludeSettlements: q.Get("include_settlements") == "true",
	}
	for _, c := range q["category"] {
		opts.Categories = append(opts.Categories, expense.Category(c))
	}

	exp, err := h.service.BuildExport(r.Context(), tripID, actorID, opts)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	filename := fmt.Sprintf("trip-%d-export.%s", tripID, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if format == FormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		err = WriteCSV(w, exp)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err = WriteJSON(w, exp)
	}
	if err != nil {
		slog.Error("summary: write export", "trip_id", tripID, "format", format, "error", err)
	}
}
