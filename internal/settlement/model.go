package settlement

import (
	"strings"
	"time"

	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Settlement is a recorded real-world transfer from one trip member to
// another. It starts unconfirmed and becomes confirmed exactly once.
type Settlement struct {
	ID             int64        `json:"id"`
	TripID         int64        `json:"trip_id"`
	FromUserID     int64        `json:"from_user_id"`
	ToUserID       int64        `json:"to_user_id"`
	Amount         money.Amount `json:"amount"`
	Currency       string       `json:"currency"`
	Notes          *string      `json:"notes,omitempty"`
	Confirmed      bool         `json:"confirmed"`
	ConfirmedAt    *time.Time   `json:"confirmed_at,omitempty"`
	SettlementDate time.Time    `json:"settlement_date"`
	CreatedBy      int64        `json:"created_by"`
}

// Candidate is a proposed transfer produced by a planner
type Candidate struct {
	FromUserID int64        `json:"from_user_id"`
	ToUserID   int64        `json:"to_user_id"`
	Amount     money.Amount `json:"amount" swaggertype:"string" example:"50.00"`
	Currency   string       `json:"currency"`
}

// Algorithm selects how a settlement plan is built
type Algorithm string

const (
	// AlgorithmPairwise sums unpaid splits per debtor and payer, keeping
	// track of who owes whom.
	AlgorithmPairwise Algorithm = "pairwise"
	// AlgorithmMinimal nets balances into the fewest transfers.
	AlgorithmMinimal Algorithm = "minimal"
)

// ParseAlgorithm parses an algorithm name; empty yields def.
func ParseAlgorithm(s string, def Algorithm) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case AlgorithmPairwise:
		return AlgorithmPairwise, nil
	case AlgorithmMinimal:
		return AlgorithmMinimal, nil
	default:
		return "", apperr.Validationf("unknown settlement algorithm %q: use pairwise or minimal", s)
	}
}
