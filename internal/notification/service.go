package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Common errors
var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
	ErrNotRecipient         = apperr.Forbidden("not the recipient of this notification")
)

var (
	_ expense.Notifier    = (*Service)(nil)
	_ settlement.Notifier = (*Service)(nil)
)

// Service handles notification business logic
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new notification service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create creates a new notification
func (s *Service) Create(ctx context.Context, recipientID int64, typ Type, message string, entityType string, entityID int64) (*Notification, error) {
	n := &Notification{
		RecipientID:       recipientID,
		Type:              typ,
		Message:           message,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListByRecipientID retrieves a page of notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	notification, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.store.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	return s.store.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.store.GetUnreadCount(ctx, userID)
}

// NotifyExpenseAdded tells a member what they owe on a new expense
func (s *Service) NotifyExpenseAdded(ctx context.Context, recipientID int64, e *expense.Expense, share money.Amount) error {
	msg := fmt.Sprintf("User %d added '%s'. Your share is %s %s", e.PayerID, e.Title, share, e.Currency)
	_, err := s.Create(ctx, recipientID, TypeExpenseAdded, msg, entityExpense, e.ID)
	return err
}

// NotifySplitPaid tells a payer that a member paid their share
func (s *Service) NotifySplitPaid(ctx context.Context, recipientID int64, e *expense.Expense, borrowerID int64) error {
	msg := fmt.Sprintf("User %d paid their share of '%s'", borrowerID, e.Title)
	_, err := s.Create(ctx, recipientID, TypeSplitPaid, msg, entityExpense, e.ID)
	return err
}

// NotifySettlementCreated tells the other party about a recorded transfer
func (s *Service) NotifySettlementCreated(ctx context.Context, recipientID int64, st *settlement.Settlement) error {
	var msg string
	if recipientID == st.ToUserID {
		msg = fmt.Sprintf("User %d recorded paying you %s %s. Please confirm once received", st.FromUserID, st.Amount, st.Currency)
	} else {
		msg = fmt.Sprintf("User %d recorded a settlement of %s %s from you", st.ToUserID, st.Amount, st.Currency)
	}
	_, err := s.Create(ctx, recipientID, TypeSettlementCreated, msg, entitySettlement, st.ID)
	return err
}

// NotifySettlementConfirmed tells the sender their transfer was confirmed
func (s *Service) NotifySettlementConfirmed(ctx context.Context, recipientID int64, st *settlement.Settlement, splitsPaid int) error {
	msg := fmt.Sprintf("User %d confirmed your payment of %s %s", st.ToUserID, st.Amount, st.Currency)
	if splitsPaid > 0 {
		msg += fmt.Sprintf(" and %d of your splits are now paid", splitsPaid)
	}
	_, err := s.Create(ctx, recipientID, TypeSettlementConfirmed, msg, entitySettlement, st.ID)
	return err
}
