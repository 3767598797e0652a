package notification

import "time"

// Notification is an in-app message for one user
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Type              Type      `json:"type"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"` // "expense" or "settlement"
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Type classifies a notification
type Type string

const (
	TypeExpenseAdded        Type = "expense_added"
	TypeSplitPaid           Type = "split_paid"
	TypeSettlementCreated   Type = "settlement_created"
	TypeSettlementConfirmed Type = "settlement_confirmed"
)

const (
	entityExpense    = "expense"
	entitySettlement = "settlement"
)
