package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/tripsplit/internal/expense/split"
	"github.com/fkhayef/tripsplit/pkg/money"
)

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

// CreateExpenseRequest represents the request to create an expense.
// Equal mode uses Members; manual and percentage modes use Splits.
type CreateExpenseRequest struct {
	Title       string              `json:"title" validate:"required,min=1,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=1000"`
	Amount      money.Amount        `json:"amount" swaggertype:"string" example:"100.00" validate:"gt=0"`
	Currency    string              `json:"currency,omitempty" validate:"omitempty,len=3"`
	Category    Category            `json:"category,omitempty" validate:"omitempty,oneof=accommodation transportation food activities shopping emergency other"`
	ExpenseDate *time.Time          `json:"expense_date,omitempty"`
	ReceiptURL  *string             `json:"receipt_url,omitempty" validate:"omitempty,url"`
	SplitMode   string              `json:"split_mode,omitempty" validate:"omitempty,oneof=equal manual percentage"`
	Members     []int64             `json:"members,omitempty" validate:"omitempty,dive,gt=0"`
	Splits      []*SplitParticipant `json:"splits,omitempty" validate:"omitempty,dive"`
}

// SplitParticipant is one member's explicit share in a request
type SplitParticipant struct {
	UserID     int64            `json:"user_id" validate:"required,gt=0"`
	Amount     *money.Amount    `json:"amount,omitempty" swaggertype:"string" example:"50.00"`
	Percentage *decimal.Decimal `json:"percentage,omitempty" swaggertype:"string" example:"50"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ToCreateInput converts the request for the service
func (req *CreateExpenseRequest) ToCreateInput(tripID, payerID int64) CreateInput {
	in := CreateInput{
		TripID:      tripID,
		PayerID:     payerID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		ExpenseDate: req.ExpenseDate,
		ReceiptURL:  req.ReceiptURL,
		Mode:        split.Mode(req.SplitMode),
	}
	if in.Mode == "" {
		in.Mode = split.ModeEqual
	}

	if len(req.Splits) > 0 {
		in.Members = make([]split.Input, len(req.Splits))
		for i, p := range req.Splits {
			in.Members[i] = split.Input{UserID: p.UserID, Amount: p.Amount, Percentage: p.Percentage}
		}
		return in
	}
	in.Members = split.Members(req.Members...)
	return in
}

// UpdateExpenseRequest represents the request to update an expense
type UpdateExpenseRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *Category  `json:"category,omitempty" validate:"omitempty,oneof=accommodation transportation food activities shopping emergency other"`
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	ReceiptURL  *string    `json:"receipt_url,omitempty" validate:"omitempty,url"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected settled"`
}

// ToUpdateInput converts the request for the service
func (req *UpdateExpenseRequest) ToUpdateInput() UpdateInput {
	return UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ExpenseDate: req.ExpenseDate,
		ReceiptURL:  req.ReceiptURL,
		Status:      req.Status,
	}
}

// UpdateSplitsRequest replaces every split of an expense
type UpdateSplitsRequest struct {
	Splits []*SplitAmount `json:"splits" validate:"required,min=1,dive"`
}

// SplitAmount is an explicit split amount
type SplitAmount struct {
	UserID int64        `json:"user_id" validate:"required,gt=0"`
	Amount money.Amount `json:"amount" swaggertype:"string" example:"50.00" validate:"gte=0"`
	Notes  *string      `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ToSplitUpdates converts the request for the service
func (req *UpdateSplitsRequest) ToSplitUpdates() []SplitUpdate {
	updates := make([]SplitUpdate, len(req.Splits))
	for i, s := range req.Splits {
		updates[i] = SplitUpdate{UserID: s.UserID, Amount: s.Amount, Notes: s.Notes}
	}
	return updates
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID           int64             `json:"id"`
	TripID       int64             `json:"trip_id"`
	PayerID      int64             `json:"payer_id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	Amount       money.Amount      `json:"amount" swaggertype:"string" example:"100.00"`
	Currency     string            `json:"currency"`
	Category     Category          `json:"category"`
	Status       Status            `json:"status"`
	ExpenseDate  string            `json:"expense_date"`
	ReceiptURL   *string           `json:"receipt_url,omitempty"`
	SplitEqually bool              `json:"split_equally"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Members      []*MemberResponse `json:"members,omitempty"`
	Splits       []*SplitResponse  `json:"splits,omitempty"`
}

// MemberResponse represents an expense participant
type MemberResponse struct {
	UserID   int64 `json:"user_id"`
	Included bool  `json:"is_included"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	ID        int64        `json:"id"`
	ExpenseID int64        `json:"expense_id"`
	UserID    int64        `json:"user_id"`
	Amount    money.Amount `json:"amount" swaggertype:"string" example:"50.00"`
	IsPaid    bool         `json:"is_paid"`
	PaidAt    *string      `json:"paid_at,omitempty"`
	Notes     *string      `json:"notes,omitempty"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:           e.ID,
		TripID:       e.TripID,
		PayerID:      e.PayerID,
		Title:        e.Title,
		Description:  e.Description,
		Amount:       e.Amount,
		Currency:     e.Currency,
		Category:     e.Category,
		Status:       e.Status,
		ExpenseDate:  e.ExpenseDate.Format(timeFormat),
		ReceiptURL:   e.ReceiptURL,
		SplitEqually: e.SplitEqually,
		CreatedAt:    e.CreatedAt.Format(timeFormat),
		UpdatedAt:    e.UpdatedAt.Format(timeFormat),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	resp := &SplitResponse{
		ID:        s.ID,
		ExpenseID: s.ExpenseID,
		UserID:    s.UserID,
		Amount:    s.Amount,
		IsPaid:    s.IsPaid,
		Notes:     s.Notes,
	}
	if s.PaidAt != nil {
		paidAt := s.PaidAt.Format(timeFormat)
		resp.PaidAt = &paidAt
	}
	return resp
}

// ToResponse converts an expense with its rows to a single DTO
func (e *ExpenseWithSplits) ToResponse() *ExpenseResponse {
	resp := e.Expense.ToResponse()
	resp.Members = make([]*MemberResponse, len(e.Members))
	for i, m := range e.Members {
		resp.Members[i] = &MemberResponse{UserID: m.UserID, Included: m.Included}
	}
	resp.Splits = SplitsToResponse(e.Splits)
	return resp
}

// SplitsToResponse converts splits to DTOs
func SplitsToResponse(splits []*Split) []*SplitResponse {
	out := make([]*SplitResponse, len(splits))
	for i, s := range splits {
		out[i] = s.ToResponse()
	}
	return out
}

// MarkPaidResponse reports the outcome of marking a split paid
type MarkPaidResponse struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}
