package settlement

import (
	"time"

	"github.com/fkhayef/tripsplit/pkg/money"
)

const timeFormat = "2006-01-02T15:04:05Z"

// CreateSettlementRequest represents the request to record a settlement.
// The caller must be either the sender or the recipient.
type CreateSettlementRequest struct {
	FromUserID     int64        `json:"from_user_id" validate:"required,gt=0"`
	ToUserID       int64        `json:"to_user_id" validate:"required,gt=0,nefield=FromUserID"`
	Amount         money.Amount `json:"amount" swaggertype:"string" example:"50.00" validate:"gt=0"`
	Currency       string       `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes          *string      `json:"notes,omitempty" validate:"omitempty,max=500"`
	SettlementDate *time.Time   `json:"settlement_date,omitempty"`
}

// ToCreateInput converts the request for the service
func (req *CreateSettlementRequest) ToCreateInput(tripID, actorID int64) CreateInput {
	return CreateInput{
		TripID:         tripID,
		ActorID:        actorID,
		FromUserID:     req.FromUserID,
		ToUserID:       req.ToUserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Notes:          req.Notes,
		SettlementDate: req.SettlementDate,
	}
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID             int64        `json:"id"`
	TripID         int64        `json:"trip_id"`
	FromUserID     int64        `json:"from_user_id"`
	ToUserID       int64        `json:"to_user_id"`
	Amount         money.Amount `json:"amount" swaggertype:"string" example:"50.00"`
	Currency       string       `json:"currency"`
	Notes          *string      `json:"notes,omitempty"`
	Confirmed      bool         `json:"confirmed"`
	ConfirmedAt    *string      `json:"confirmed_at,omitempty"`
	SettlementDate string       `json:"settlement_date"`
	CreatedBy      int64        `json:"created_by"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	resp := &SettlementResponse{
		ID:             s.ID,
		TripID:         s.TripID,
		FromUserID:     s.FromUserID,
		ToUserID:       s.ToUserID,
		Amount:         s.Amount,
		Currency:       s.Currency,
		Notes:          s.Notes,
		Confirmed:      s.Confirmed,
		SettlementDate: s.SettlementDate.Format(timeFormat),
		CreatedBy:      s.CreatedBy,
	}
	if s.ConfirmedAt != nil {
		at := s.ConfirmedAt.Format(timeFormat)
		resp.ConfirmedAt = &at
	}
	return resp
}

// PlanResponse is a proposed set of transfers
type PlanResponse struct {
	Algorithm Algorithm    `json:"algorithm"`
	Total     money.Amount `json:"total" swaggertype:"string" example:"50.00"`
	Transfers []Candidate  `json:"transfers"`
}

// ConfirmResponse reports a successful confirmation
type ConfirmResponse struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message"`
}
