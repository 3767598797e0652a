// Package summary composes balances, settlement plans and expense totals
// into a trip-wide report and export.
package summary

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/cache"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// SettlementReader lists a trip's recorded settlements.
type SettlementReader interface {
	ListTripSettlements(ctx context.Context, tripID int64, confirmed *bool) ([]*settlement.Settlement, error)
}

// Summary is the trip-wide report. Amounts of different currencies are
// summed as tags; nothing is converted.
type Summary struct {
	TripID              int64                             `json:"trip_id"`
	Currency            string                            `json:"currency"`
	ExpenseCount        int                               `json:"expense_count"`
	TotalExpenses       money.Amount                      `json:"total_expenses"`
	TotalOutstanding    money.Amount                      `json:"total_outstanding"`
	TotalRepaid         money.Amount                      `json:"total_repaid"`
	Balances            []balance.Balance                 `json:"balances"`
	Algorithm           settlement.Algorithm              `json:"algorithm"`
	SettlementsNeeded   []settlement.Candidate            `json:"settlements_needed"`
	RecordedSettlements []*settlement.Settlement          `json:"recorded_settlements"`
	ByCategory          map[expense.Category]money.Amount `json:"by_category"`
	ByStatus            map[expense.Status]money.Amount   `json:"by_status"`
}

// Service builds trip summaries and exports
type Service struct {
	trips           *trip.Service
	balances        *balance.Service
	settlements     SettlementReader
	cache           *cache.TripCache
	algorithm       settlement.Algorithm
	defaultCurrency string
}

// Option configures a Service
type Option func(*Service)

// WithAlgorithm sets the planner used for settlements_needed.
func WithAlgorithm(alg settlement.Algorithm) Option {
	return func(s *Service) { s.algorithm = alg }
}

// WithDefaultCurrency sets the currency reported for a trip without expenses.
func WithDefaultCurrency(code string) Option {
	return func(s *Service) { s.defaultCurrency = code }
}

// NewService creates a new summary service. c may be nil.
func NewService(trips *trip.Service, balances *balance.Service, settlements SettlementReader, c *cache.TripCache, opts ...Option) *Service {
	s := &Service{
		trips:           trips,
		balances:        balances,
		settlements:     settlements,
		cache:           c,
		algorithm:       settlement.AlgorithmPairwise,
		defaultCurrency: "INR",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TripSummary returns the summary of a trip to one of its members
func (s *Service) TripSummary(ctx context.Context, tripID, actorID int64) (*Summary, error) {
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (interface{}, error) {
		return s.Build(ctx, tripID)
	}
	key, err := s.cache.BuildKey(ctx, tripID, "summary", string(s.algorithm))
	if err != nil {
		slog.Warn("summary: build cache key", "trip_id", tripID, "error", err)
		return s.Build(ctx, tripID)
	}

	var out Summary
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return nil, err
	}
	return &out, nil
}

// Build computes a trip summary from the store, bypassing the cache
func (s *Service) Build(ctx context.Context, tripID int64) (*Summary, error) {
	var (
		ledger   *balance.Ledger
		recorded []*settlement.Settlement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ledger, err = s.balances.LoadLedger(gctx, tripID)
		return err
	})
	g.Go(func() error {
		var err error
		recorded, err = s.settlements.ListTripSettlements(gctx, tripID, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if recorded == nil {
		recorded = []*settlement.Settlement{}
	}

	out := &Summary{
		TripID:              tripID,
		Currency:            settlement.DominantCurrency(ledger.Expenses, s.defaultCurrency),
		Balances:            ledger.Balances(),
		Algorithm:           s.algorithm,
		SettlementsNeeded:   settlement.BuildPlan(s.algorithm, ledger, s.defaultCurrency),
		RecordedSettlements: recorded,
		ByCategory:          make(map[expense.Category]money.Amount),
		ByStatus:            make(map[expense.Status]money.Amount),
	}

	byID := ledger.ExpenseByID()
	for _, e := range ledger.Expenses {
		out.ByStatus[e.Status] += e.Amount
		if e.Status == expense.StatusRejected {
			continue
		}
		out.ExpenseCount++
		out.TotalExpenses += e.Amount
		out.ByCategory[e.Category] += e.Amount
	}
	for _, sp := range ledger.Splits {
		e, ok := byID[sp.ExpenseID]
		if !ok || e.Status == expense.StatusRejected || sp.UserID == e.PayerID {
			continue
		}
		if sp.IsPaid {
			out.TotalRepaid += sp.Amount
		} else {
			out.TotalOutstanding += sp.Amount
		}
	}
	return out, nil
}
