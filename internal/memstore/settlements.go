package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/settlement"
)

type settlementStore struct {
	s    *Store
	inTx bool
}

var _ settlement.Store = (*settlementStore)(nil)

func (a *settlementStore) lock() func() {
	if a.inTx {
		return func() {}
	}
	a.s.mu.Lock()
	return a.s.mu.Unlock
}

func (a *settlementStore) WithinTx(ctx context.Context, fn func(tx settlement.Store) error) error {
	if a.inTx {
		return fn(a)
	}
	return a.s.withinTx(ctx, func() error {
		return fn(&settlementStore{s: a.s, inTx: true})
	})
}

func (a *settlementStore) CreateSettlement(ctx context.Context, st *settlement.Settlement) error {
	defer a.lock()()
	l := &a.s.ledger
	l.settlementSeq++
	st.ID = l.settlementSeq
	l.settlements[st.ID] = *st
	return nil
}

func (a *settlementStore) GetSettlement(ctx context.Context, id int64) (*settlement.Settlement, error) {
	defer a.lock()()
	st, ok := a.s.ledger.settlements[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (a *settlementStore) GetSettlementForUpdate(ctx context.Context, id int64) (*settlement.Settlement, error) {
	return a.GetSettlement(ctx, id)
}

func (a *settlementStore) ListTripSettlements(ctx context.Context, tripID int64, confirmed *bool) ([]*settlement.Settlement, error) {
	defer a.lock()()
	var out []*settlement.Settlement
	for _, st := range a.s.ledger.settlements {
		if st.TripID != tripID || (confirmed != nil && st.Confirmed != *confirmed) {
			continue
		}
		st := st
		out = append(out, &st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SettlementDate.Equal(out[j].SettlementDate) {
			return out[i].SettlementDate.After(out[j].SettlementDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (a *settlementStore) ConfirmSettlement(ctx context.Context, id int64, at time.Time) (bool, error) {
	defer a.lock()()
	st, ok := a.s.ledger.settlements[id]
	if !ok || st.Confirmed {
		return false, nil
	}
	confirmedAt := at
	st.Confirmed = true
	st.ConfirmedAt = &confirmedAt
	a.s.ledger.settlements[id] = st
	return true, nil
}

func (a *settlementStore) MarkSplitsPaidBetween(ctx context.Context, tripID, debtorID, creditorID int64, at time.Time) ([]int64, error) {
	defer a.lock()()
	l := &a.s.ledger

	var candidates []int64
	for id, e := range l.expenses {
		if e.TripID == tripID && e.PayerID == creditorID && e.Status != expense.StatusRejected {
			candidates = append(candidates, id)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	var touched []int64
	for _, id := range candidates {
		rows := l.splits[id]
		for i := range rows {
			if rows[i].UserID != debtorID || rows[i].IsPaid {
				continue
			}
			paidAt := at
			rows[i].IsPaid = true
			rows[i].PaidAt = &paidAt
			touched = append(touched, id)
		}
	}
	return touched, nil
}

func (a *settlementStore) SettleExpenses(ctx context.Context, expenseIDs []int64, at time.Time) (int, error) {
	defer a.lock()()
	l := &a.s.ledger

	n := 0
	for _, id := range expenseIDs {
		e, ok := l.expenses[id]
		if !ok || l.unpaid(id) > 0 || !expense.CanTransition(e.Status, expense.TriggerSettlementConfirmed) {
			continue
		}
		e.Status, _ = expense.Transition(e.Status, expense.TriggerSettlementConfirmed)
		e.UpdatedAt = at
		l.expenses[id] = e
		n++
	}
	return n, nil
}
