package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/fkhayef/tripsplit/internal/expense"
)

type expenseStore struct {
	s    *Store
	inTx bool
}

var _ expense.Store = (*expenseStore)(nil)

// lock takes the ledger lock unless the caller already holds it through a
// unit of work.
func (a *expenseStore) lock() func() {
	if a.inTx {
		return func() {}
	}
	a.s.mu.Lock()
	return a.s.mu.Unlock
}

func (a *expenseStore) WithinTx(ctx context.Context, fn func(tx expense.Store) error) error {
	if a.inTx {
		return fn(a)
	}
	return a.s.withinTx(ctx, func() error {
		return fn(&expenseStore{s: a.s, inTx: true})
	})
}

func (a *expenseStore) CreateExpense(ctx context.Context, e *expense.Expense, members []*expense.Member, splits []*expense.Split) error {
	defer a.lock()()
	l := &a.s.ledger

	l.expenseSeq++
	e.ID = l.expenseSeq
	l.expenses[e.ID] = *e
	l.insertRows(e.ID, members, splits)
	return nil
}

func (l *ledger) insertRows(expenseID int64, members []*expense.Member, splits []*expense.Split) {
	l.expMembers[expenseID] = nil
	for _, m := range members {
		l.memberSeq++
		m.ID = l.memberSeq
		m.ExpenseID = expenseID
		l.expMembers[expenseID] = append(l.expMembers[expenseID], *m)
	}
	l.splits[expenseID] = nil
	for _, sp := range splits {
		l.splitSeq++
		sp.ID = l.splitSeq
		sp.ExpenseID = expenseID
		l.splits[expenseID] = append(l.splits[expenseID], *sp)
	}
}

func (a *expenseStore) GetExpense(ctx context.Context, id int64) (*expense.Expense, error) {
	defer a.lock()()
	e, ok := a.s.ledger.expenses[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// GetExpenseForUpdate needs no row lock: a unit of work holds the whole
// ledger.
func (a *expenseStore) GetExpenseForUpdate(ctx context.Context, id int64) (*expense.Expense, error) {
	return a.GetExpense(ctx, id)
}

func (a *expenseStore) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	defer a.lock()()
	current, ok := a.s.ledger.expenses[e.ID]
	if !ok {
		return nil
	}
	current.Title = e.Title
	current.Description = e.Description
	current.Category = e.Category
	current.Status = e.Status
	current.ExpenseDate = e.ExpenseDate
	current.ReceiptURL = e.ReceiptURL
	current.SplitEqually = e.SplitEqually
	current.UpdatedAt = e.UpdatedAt
	a.s.ledger.expenses[e.ID] = current
	return nil
}

func (a *expenseStore) UpdateStatus(ctx context.Context, expenseID int64, from, to expense.Status, at time.Time) (bool, error) {
	defer a.lock()()
	e, ok := a.s.ledger.expenses[expenseID]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	e.UpdatedAt = at
	a.s.ledger.expenses[expenseID] = e
	return true, nil
}

func (a *expenseStore) DeleteExpense(ctx context.Context, id int64) error {
	defer a.lock()()
	l := &a.s.ledger
	if _, ok := l.expenses[id]; !ok {
		return expense.ErrExpenseNotFound
	}
	delete(l.expenses, id)
	delete(l.expMembers, id)
	delete(l.splits, id)
	return nil
}

func (a *expenseStore) ListTripExpenses(ctx context.Context, tripID int64, filter expense.ListFilter) ([]*expense.Expense, error) {
	defer a.lock()()
	return a.s.ledger.tripExpenses(tripID, filter), nil
}

// tripExpenses lists matching expenses newest first, like the SQL store.
func (l *ledger) tripExpenses(tripID int64, filter expense.ListFilter) []*expense.Expense {
	var out []*expense.Expense
	for _, e := range l.expenses {
		if e.TripID != tripID || !filter.Matches(&e) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpenseDate.Equal(out[j].ExpenseDate) {
			return out[i].ExpenseDate.After(out[j].ExpenseDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (a *expenseStore) ListMembers(ctx context.Context, expenseID int64) ([]*expense.Member, error) {
	defer a.lock()()
	rows := a.s.ledger.expMembers[expenseID]
	out := make([]*expense.Member, len(rows))
	for i := range rows {
		m := rows[i]
		out[i] = &m
	}
	return out, nil
}

func (a *expenseStore) ListSplits(ctx context.Context, expenseID int64) ([]*expense.Split, error) {
	defer a.lock()()
	return copySplits(a.s.ledger.splits[expenseID]), nil
}

func (a *expenseStore) ListTripSplits(ctx context.Context, tripID int64) ([]*expense.Split, error) {
	defer a.lock()()
	l := &a.s.ledger

	var ids []int64
	for id, e := range l.expenses {
		if e.TripID == tripID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*expense.Split
	for _, id := range ids {
		out = append(out, copySplits(l.splits[id])...)
	}
	return out, nil
}

func copySplits(rows []expense.Split) []*expense.Split {
	out := make([]*expense.Split, len(rows))
	for i := range rows {
		sp := rows[i]
		out[i] = &sp
	}
	return out
}

func (a *expenseStore) GetSplit(ctx context.Context, expenseID, userID int64) (*expense.Split, error) {
	defer a.lock()()
	for _, sp := range a.s.ledger.splits[expenseID] {
		if sp.UserID == userID {
			sp := sp
			return &sp, nil
		}
	}
	return nil, nil
}

func (a *expenseStore) ReplaceSplits(ctx context.Context, expenseID int64, members []*expense.Member, splits []*expense.Split) error {
	defer a.lock()()
	a.s.ledger.insertRows(expenseID, members, splits)
	return nil
}

func (a *expenseStore) MarkSplitPaid(ctx context.Context, expenseID, userID int64, at time.Time) (bool, error) {
	defer a.lock()()
	rows := a.s.ledger.splits[expenseID]
	for i := range rows {
		if rows[i].UserID != userID {
			continue
		}
		if rows[i].IsPaid {
			return false, nil
		}
		paidAt := at
		rows[i].IsPaid = true
		rows[i].PaidAt = &paidAt
		return true, nil
	}
	return false, nil
}

func (a *expenseStore) CountUnpaidSplits(ctx context.Context, expenseID int64) (int, error) {
	defer a.lock()()
	return a.s.ledger.unpaid(expenseID), nil
}

func (l *ledger) unpaid(expenseID int64) int {
	n := 0
	for _, sp := range l.splits[expenseID] {
		if !sp.IsPaid {
			n++
		}
	}
	return n
}
