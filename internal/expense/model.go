package expense

import (
	"time"

	"github.com/fkhayef/tripsplit/pkg/money"
)

// Status represents where an expense is in its lifecycle
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSettled  Status = "settled"
)

// Statuses lists every expense status.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusSettled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Category classifies an expense
type Category string

const (
	CategoryAccommodation  Category = "accommodation"
	CategoryTransportation Category = "transportation"
	CategoryFood           Category = "food"
	CategoryActivities     Category = "activities"
	CategoryShopping       Category = "shopping"
	CategoryEmergency      Category = "emergency"
	CategoryOther          Category = "other"
)

// Categories lists every expense category.
var Categories = []Category{
	CategoryAccommodation,
	CategoryTransportation,
	CategoryFood,
	CategoryActivities,
	CategoryShopping,
	CategoryEmergency,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single payment made by one trip member on behalf of others
type Expense struct {
	ID           int64        `json:"id"`
	TripID       int64        `json:"trip_id"`
	PayerID      int64        `json:"payer_id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Amount       money.Amount `json:"amount"`
	Currency     string       `json:"currency"`
	Category     Category     `json:"category"`
	Status       Status       `json:"status"`
	ExpenseDate  time.Time    `json:"expense_date"`
	ReceiptURL   *string      `json:"receipt_url,omitempty"`
	SplitEqually bool         `json:"split_equally"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Member is a participant considered when splitting an expense
type Member struct {
	ID        int64 `json:"id"`
	ExpenseID int64 `json:"expense_id"`
	UserID    int64 `json:"user_id"`
	Included  bool  `json:"is_included"`
}

// Split is one member's share of an expense
type Split struct {
	ID        int64        `json:"id"`
	ExpenseID int64        `json:"expense_id"`
	UserID    int64        `json:"user_id"`
	Amount    money.Amount `json:"amount"`
	IsPaid    bool         `json:"is_paid"`
	PaidAt    *time.Time   `json:"paid_at,omitempty"`
	Notes     *string      `json:"notes,omitempty"`
}

// ExpenseWithSplits combines an expense with its members and splits
type ExpenseWithSplits struct {
	Expense *Expense
	Members []*Member
	Splits  []*Split
}

// ListFilter narrows ListTripExpenses. Nil fields match everything.
type ListFilter struct {
	Category        *Category
	Status          *Status
	PayerID         *int64
	From            *time.Time
	To              *time.Time
	ExcludeRejected bool
}

// Matches reports whether e passes the filter.
func (f ListFilter) Matches(e *Expense) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.PayerID != nil && e.PayerID != *f.PayerID {
		return false
	}
	if f.From != nil && e.ExpenseDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.ExpenseDate.After(*f.To) {
		return false
	}
	if f.ExcludeRejected && e.Status == StatusRejected {
		return false
	}
	return true
}
