package trip

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler handles HTTP requests for trip membership
type Handler struct {
	service *Service
}

// NewHandler creates a new trip handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountTripRoutes registers endpoints under /trips/{tripId}
func (h *Handler) MountTripRoutes(r chi.Router) {
	r.Get("/members", h.GetMembers)
}

// GetMembers handles GET /trips/{tripId}/members
// @Summary      List trip members
// @Description  Get the members of a trip in join order
// @Tags         trips
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /trips/{tripId}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.RequireMember(r.Context(), tripID, userID); err != nil {
		response.FromError(w, r, err)
		return
	}

	members, err := h.service.Members(r.Context(), tripID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp := make([]*MemberResponse, len(members))
	for i, m := range members {
		resp[i] = m.ToResponse()
	}
	response.JSON(w, http.StatusOK, resp)
}
