package balance

import (
	"context"
	"log/slog"

	"github.com/fkhayef/tripsplit/internal/cache"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/trip"
)

// ExpenseReader is the slice of the expense store balances are built from.
// Both calls are scoped to a single trip.
type ExpenseReader interface {
	ListTripExpenses(ctx context.Context, tripID int64, filter expense.ListFilter) ([]*expense.Expense, error)
	ListTripSplits(ctx context.Context, tripID int64) ([]*expense.Split, error)
}

// Ledger is a point-in-time read of everything a trip's money views need.
// Expenses include rejected ones; consumers decide whether to count them.
type Ledger struct {
	TripID    int64
	MemberIDs []int64
	Expenses  []*expense.Expense
	Splits    []*expense.Split
}

// Balances computes the member balances of the ledger.
func (l *Ledger) Balances() []Balance {
	return Compute(l.MemberIDs, l.Expenses, l.Splits)
}

// ExpenseByID indexes the ledger's expenses.
func (l *Ledger) ExpenseByID() map[int64]*expense.Expense {
	byID := make(map[int64]*expense.Expense, len(l.Expenses))
	for _, e := range l.Expenses {
		byID[e.ID] = e
	}
	return byID
}

// Service serves trip balances, cached per trip version when a cache is set
type Service struct {
	trips    *trip.Service
	expenses ExpenseReader
	cache    *cache.TripCache
}

// NewService creates a new balance service. c may be nil.
func NewService(trips *trip.Service, expenses ExpenseReader, c *cache.TripCache) *Service {
	return &Service{trips: trips, expenses: expenses, cache: c}
}

// LoadLedger reads the members, expenses and splits of a trip
func (s *Service) LoadLedger(ctx context.Context, tripID int64) (*Ledger, error) {
	memberIDs, err := s.trips.MemberIDs(ctx, tripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListTripExpenses(ctx, tripID, expense.ListFilter{})
	if err != nil {
		return nil, err
	}
	splits, err := s.expenses.ListTripSplits(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return &Ledger{TripID: tripID, MemberIDs: memberIDs, Expenses: expenses, Splits: splits}, nil
}

// Balances returns the balances of every trip member in join order
func (s *Service) Balances(ctx context.Context, tripID int64) ([]Balance, error) {
	load := func(ctx context.Context) (interface{}, error) {
		ledger, err := s.LoadLedger(ctx, tripID)
		if err != nil {
			return nil, err
		}
		return ledger.Balances(), nil
	}

	key, err := s.cache.BuildKey(ctx, tripID, "balances")
	if err != nil {
		slog.Warn("balance: build cache key", "trip_id", tripID, "error", err)
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]Balance), nil
	}

	var balances []Balance
	if err := s.cache.FetchJSON(ctx, key, &balances, load); err != nil {
		return nil, err
	}
	if balances == nil {
		balances = []Balance{}
	}
	return balances, nil
}

// TripBalances returns a trip's balances to one of its members
func (s *Service) TripBalances(ctx context.Context, tripID, actorID int64) ([]Balance, error) {
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.Balances(ctx, tripID)
}
