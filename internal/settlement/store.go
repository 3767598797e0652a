package settlement

import (
	"context"
	"time"
)

// Store is the persistence port for settlements and the split fan-out
// applied when one is confirmed. Lookups return nil, nil when missing.
type Store interface {
	// WithinTx runs fn in one unit of work that commits or rolls back as a
	// whole. Nested calls join the outer unit.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateSettlement(ctx context.Context, s *Settlement) error
	GetSettlement(ctx context.Context, id int64) (*Settlement, error)
	// GetSettlementForUpdate locks the settlement until the unit of work ends.
	GetSettlementForUpdate(ctx context.Context, id int64) (*Settlement, error)
	// ListTripSettlements lists newest first; a nil confirmed matches both states.
	ListTripSettlements(ctx context.Context, tripID int64, confirmed *bool) ([]*Settlement, error)
	// ConfirmSettlement reports false when the settlement was already confirmed.
	ConfirmSettlement(ctx context.Context, id int64, at time.Time) (bool, error)

	// MarkSplitsPaidBetween marks paid every unpaid split of debtorID on
	// non-rejected expenses creditorID paid in the trip, returning the ids
	// of the expenses it touched.
	MarkSplitsPaidBetween(ctx context.Context, tripID, debtorID, creditorID int64, at time.Time) ([]int64, error)
	// SettleExpenses moves to settled those of expenseIDs that have no
	// unpaid splits left, returning how many changed.
	SettleExpenses(ctx context.Context, expenseIDs []int64, at time.Time) (int, error)
}
