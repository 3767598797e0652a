package notification

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/request"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// Handler serves the caller's notification inbox
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/read-all", h.MarkAllRead)
	r.Post("/{id}/read", h.MarkRead)

	return r
}

// InboxItem is a notification as shown in the inbox. Link points at the
// API resource the notification is about.
type InboxItem struct {
	ID        int64  `json:"id"`
	Type      Type   `json:"type"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at"`
}

func inboxItem(n *Notification) InboxItem {
	return InboxItem{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		IsRead:    n.IsRead,
		Link:      link(n),
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func link(n *Notification) string {
	if n.RelatedEntityType == nil || n.RelatedEntityID == nil {
		return ""
	}
	switch *n.RelatedEntityType {
	case entityExpense:
		return fmt.Sprintf("/api/v1/expenses/%d", *n.RelatedEntityID)
	case entitySettlement:
		return fmt.Sprintf("/api/v1/settlements/%d", *n.RelatedEntityID)
	}
	return ""
}

// List handles GET /notifications
// @Summary      List notifications
// @Description  The caller's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Param        unread_only query bool false "Only unread notifications"
// @Success      200 {object} response.APIResponse{data=[]InboxItem}
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	page := request.ParsePage(r)
	items, total, err := h.service.ListByRecipientID(r.Context(), userID, page.Number, page.PerPage, request.QueryBool(r, "unread_only"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	inbox := make([]InboxItem, 0, len(items))
	for _, n := range items {
		inbox = append(inbox, inboxItem(n))
	}
	response.JSONWithMeta(w, http.StatusOK, inbox, response.PageMeta(page.Number, page.PerPage, total))
}

// UnreadCount handles GET /notifications/unread-count
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=map[string]int}
// @Router       /notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead handles POST /notifications/{id}/read
// @Summary      Mark notification as read
// @Tags         notifications
// @Produce      json
// @Param        id path int true "Notification ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, userID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"read": id})
}

// MarkAllRead handles POST /notifications/read-all
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=map[string]int}
// @Router       /notifications/read-all [post]
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	n, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"marked_read": n})
}
