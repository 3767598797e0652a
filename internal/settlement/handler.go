package settlement

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/request"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/confirm", h.Confirm)

	return r
}

// MountTripRoutes registers endpoints under /trips/{tripId}
func (h *Handler) MountTripRoutes(r chi.Router) {
	r.Post("/settlements", h.Create)
	r.Get("/settlements", h.List)
	r.Get("/settlements/plan", h.Plan)
}

// Create handles POST /trips/{tripId}/settlements
// @Summary      Record a settlement
// @Description  Record a real-world transfer between two trip members. It has no effect on splits until the recipient confirms it.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body CreateSettlementRequest true "Settlement"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req CreateSettlementRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := request.Validate(&req); err != nil {
		response.FromError(w, r, err)
		return
	}

	st, err := h.service.CreateSettlement(r.Context(), req.ToCreateInput(tripID, actorID))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, st.ToResponse())
}

// List handles GET /trips/{tripId}/settlements
// @Summary      List trip settlements
// @Description  Recorded settlements of a trip, newest first
// @Tags         settlements
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        confirmed query bool false "Filter by confirmation state"
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var confirmed *bool
	if v := r.URL.Query().Get("confirmed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "confirmed must be true or false")
			return
		}
		confirmed = &b
	}

	settlements, err := h.service.ListTripSettlements(r.Context(), tripID, actorID, confirmed)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp := make([]*SettlementResponse, len(settlements))
	for i, st := range settlements {
		resp[i] = st.ToResponse()
	}
	response.JSONWithMeta(w, http.StatusOK, resp, &response.Meta{Total: len(resp)})
}

// Plan handles GET /trips/{tripId}/settlements/plan
// @Summary      Propose settlements
// @Description  Transfers that would clear the trip's outstanding debts. pairwise keeps who owes whom; minimal uses the fewest transfers.
// @Tags         settlements
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        algorithm query string false "pairwise or minimal"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/settlements/plan [get]
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	alg, err := ParseAlgorithm(r.URL.Query().Get("algorithm"), h.service.DefaultAlgorithm())
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	plan, err := h.service.Plan(r.Context(), tripID, actorID, alg)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, PlanResponse{Algorithm: alg, Total: Total(plan), Transfers: plan})
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	st, err := h.service.GetSettlement(r.Context(), id, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, st.ToResponse())
}

// Confirm handles POST /settlements/{id}/confirm
// @Summary      Confirm settlement
// @Description  The recipient confirms receiving the money. Every unpaid split the sender owes on the recipient's expenses in the trip becomes paid.
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=ConfirmResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/{id}/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	confirmed, err := h.service.ConfirmSettlement(r.Context(), id, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, ConfirmResponse{Confirmed: confirmed, Message: "Settlement confirmed"})
}
