package balance

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler handles HTTP requests for trip balances
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountTripRoutes registers endpoints under /trips/{tripId}
func (h *Handler) MountTripRoutes(r chi.Router) {
	r.Get("/balances", h.GetBalances)
}

// GetBalances handles GET /trips/{tripId}/balances
// @Summary      Get trip balances
// @Description  Paid, owed and net balance of every trip member. Positive net means the member is owed money.
// @Tags         balances
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]Balance}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /trips/{tripId}/balances [get]
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	balances, err := h.service.TripBalances(r.Context(), tripID, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, balances)
}
