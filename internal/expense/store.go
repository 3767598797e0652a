package expense

import (
	"context"
	"time"
)

// Store is the persistence port for expenses, their members and splits.
// Lookups return nil, nil when the row does not exist.
type Store interface {
	// WithinTx runs fn in one unit of work; everything fn does through tx
	// commits together or not at all. Nested calls join the outer unit.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateExpense(ctx context.Context, e *Expense, members []*Member, splits []*Split) error
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	// GetExpenseForUpdate is GetExpense plus a row lock held until the unit of work ends.
	GetExpenseForUpdate(ctx context.Context, id int64) (*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	UpdateStatus(ctx context.Context, expenseID int64, from, to Status, at time.Time) (bool, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListTripExpenses(ctx context.Context, tripID int64, filter ListFilter) ([]*Expense, error)

	ListMembers(ctx context.Context, expenseID int64) ([]*Member, error)
	ListSplits(ctx context.Context, expenseID int64) ([]*Split, error)
	ListTripSplits(ctx context.Context, tripID int64) ([]*Split, error)
	GetSplit(ctx context.Context, expenseID, userID int64) (*Split, error)
	ReplaceSplits(ctx context.Context, expenseID int64, members []*Member, splits []*Split) error
	// MarkSplitPaid reports false when the split was already paid.
	MarkSplitPaid(ctx context.Context, expenseID, userID int64, at time.Time) (bool, error)
	CountUnpaidSplits(ctx context.Context, expenseID int64) (int, error)
}
