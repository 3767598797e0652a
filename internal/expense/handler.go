package expense

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/money"
	"github.com/fkhayef/tripsplit/pkg/request"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Reference data
	r.Get("/categories", h.ListCategories)
	r.Get("/statuses", h.ListStatuses)
	r.Get("/currencies", h.ListCurrencies)

	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Split operations
	r.Put("/{id}/splits", h.UpdateSplits)
	r.Post("/{id}/splits/{userId}/pay", h.MarkSplitAsPaid)

	return r
}

// MountTripRoutes registers endpoints under /trips/{tripId}
func (h *Handler) MountTripRoutes(r chi.Router) {
	r.Post("/expenses", h.Create)
	r.Get("/expenses", h.ListByTrip)
}

// Create handles POST /trips/{tripId}/expenses
// @Summary      Create a new expense
// @Description  Create an expense paid by the caller, split equally, by exact amounts, or by percentage
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "tripId", "Invalid trip ID")
	if !ok {
		return
	}
	payerID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := request.Validate(&req); err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.CreateExpense(r.Context(), req.ToCreateInput(tripID, payerID))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, result.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its members and splits
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid expense ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetExpense(r.Context(), id, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, result.ToResponse())
}

// ListByTrip handles GET /trips/{tripId}/expenses
// @Summary      List expenses of a trip
// @Description  Get a trip's expenses, newest first, with optional filters
// @Tags         expenses
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        category query string false "Category filter"
// @Param        status query string false "Status filter"
// @Param        paid_by query int false "Payer user ID"
// @Param        from query string false "Earliest expense date (YYYY-MM-DD)"
// @Param        to query string false "Latest expense date (YYYY-MM-DD)"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/expenses [get]
func (h *Handler) ListByTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "tripId", "Invalid trip ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	filter, err := ParseListFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	expenses, err := h.service.ListTripExpenses(r.Context(), tripID, actorID, filter)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = e.ToResponse()
	}
	response.JSONWithMeta(w, http.StatusOK, resp, &response.Meta{Total: len(resp)})
}

// Update handles PUT /expenses/{id}
// @Summary      Update an expense
// @Description  Edit descriptive fields or reject a pending expense. The amount cannot change.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /expenses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid expense ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := request.Validate(&req); err != nil {
		response.FromError(w, r, err)
		return
	}

	expense, err := h.service.UpdateExpense(r.Context(), id, actorID, req.ToUpdateInput())
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, expense.ToResponse())
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense. Only the payer can delete, and only while no one else has paid.
// @Tags         expenses
// @Param        id path int true "Expense ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid expense ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id, actorID); err != nil {
		response.FromError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSplits handles PUT /expenses/{id}/splits
// @Summary      Replace expense splits
// @Description  Replace every split with explicit amounts that sum to the expense amount
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        request body UpdateSplitsRequest true "New splits"
// @Success      200 {object} response.APIResponse{data=[]SplitResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /expenses/{id}/splits [put]
func (h *Handler) UpdateSplits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid expense ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateSplitsRequest
	if err := request.Decode(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	if err := request.Validate(&req); err != nil {
		response.FromError(w, r, err)
		return
	}

	splits, err := h.service.UpdateSplits(r.Context(), id, actorID, req.ToSplitUpdates())
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, SplitsToResponse(splits))
}

// MarkSplitAsPaid handles POST /expenses/{id}/splits/{userId}/pay
// @Summary      Mark split as paid
// @Description  The split's own user records that they paid the payer directly
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        userId path int true "Split user ID"
// @Success      200 {object} response.APIResponse{data=MarkPaidResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id}/splits/{userId}/pay [post]
func (h *Handler) MarkSplitAsPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Invalid expense ID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return
	}
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	changed, err := h.service.MarkSplitPaid(r.Context(), id, userID, actorID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	msg := "Split marked as paid"
	if !changed {
		msg = "Split was already paid"
	}
	response.JSON(w, http.StatusOK, MarkPaidResponse{Changed: changed, Message: msg})
}

// ListCategories handles GET /expenses/categories
// @Summary      List expense categories
// @Tags         expenses
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]string}
// @Router       /expenses/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, Categories)
}

// ListStatuses handles GET /expenses/statuses
// @Summary      List expense statuses
// @Tags         expenses
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]string}
// @Router       /expenses/statuses [get]
func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, Statuses)
}

// ListCurrencies handles GET /expenses/currencies
// @Summary      List supported currencies
// @Tags         expenses
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]string}
// @Router       /expenses/currencies [get]
func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, money.SupportedCurrencies)
}

// ParseListFilter reads the expense filter query parameters shared by the
// list and export endpoints.
func ParseListFilter(r *http.Request) (ListFilter, error) {
	var filter ListFilter
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		c := Category(v)
		filter.Category = &c
	}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		filter.Status = &st
	}
	if v := q.Get("paid_by"); v != "" {
		payerID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperr.Validation("paid_by must be a user ID")
		}
		filter.PayerID = &payerID
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(dateFormat, v)
		if err != nil {
			return filter, apperr.Validation("from must be a date (YYYY-MM-DD)")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(dateFormat, v)
		if err != nil {
			return filter, apperr.Validation("to must be a date (YYYY-MM-DD)")
		}
		// inclusive of the whole day
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	return filter, nil
}

func pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, msg)
		return 0, false
	}
	return id, true
}
