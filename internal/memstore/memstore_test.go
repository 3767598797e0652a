package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/pkg/money"
)

func newExpense(tripID, payerID int64, amount string) *expense.Expense {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &expense.Expense{
		TripID:      tripID,
		PayerID:     payerID,
		Title:       "dinner",
		Amount:      money.MustParse(amount),
		Currency:    "INR",
		Category:    expense.CategoryFood,
		Status:      expense.StatusPending,
		ExpenseDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func halfSplits(payerID, otherID int64, half string) []*expense.Split {
	return []*expense.Split{
		{UserID: payerID, Amount: money.MustParse(half), IsPaid: true},
		{UserID: otherID, Amount: money.MustParse(half)},
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	store := s.Expenses()
	boom := errors.New("boom")

	var id int64
	err := store.WithinTx(ctx, func(tx expense.Store) error {
		e := newExpense(1, 1, "100.00")
		require.NoError(t, tx.CreateExpense(ctx, e, nil, halfSplits(1, 2, "50.00")))
		id = e.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	splits, err := store.ListTripSplits(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, splits)
}

func TestWithinTxRollsBackWhenContextEnds(t *testing.T) {
	s := New()
	store := s.Expenses()
	ctx, cancel := context.WithCancel(context.Background())

	e := newExpense(1, 1, "100.00")
	require.NoError(t, store.CreateExpense(ctx, e, nil, halfSplits(1, 2, "50.00")))

	err := store.WithinTx(ctx, func(tx expense.Store) error {
		changed, err := tx.MarkSplitPaid(ctx, e.ID, 2, time.Now())
		require.NoError(t, err)
		require.True(t, changed)
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	sp, err := store.GetSplit(context.Background(), e.ID, 2)
	require.NoError(t, err)
	assert.False(t, sp.IsPaid)
}

func TestNestedWithinTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := New().Expenses()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx expense.Store) error {
		inner := tx.WithinTx(ctx, func(tx expense.Store) error {
			return tx.CreateExpense(ctx, newExpense(1, 1, "10.00"), nil, nil)
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	expenses, err := store.ListTripExpenses(ctx, 1, expense.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New().Expenses()

	e := newExpense(1, 1, "10.00")
	require.NoError(t, store.CreateExpense(ctx, e, nil, nil))
	e.Title = "changed outside"

	got, err := store.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Title)
}

func TestMarkSplitsPaidBetweenSkipsRejectedAndOtherPayers(t *testing.T) {
	ctx := context.Background()
	s := New()
	expenses := s.Expenses()
	settlements := s.Settlements()

	owed := newExpense(1, 1, "100.00")
	require.NoError(t, expenses.CreateExpense(ctx, owed, nil, halfSplits(1, 2, "50.00")))

	rejected := newExpense(1, 1, "20.00")
	rejected.Status = expense.StatusRejected
	require.NoError(t, expenses.CreateExpense(ctx, rejected, nil, halfSplits(1, 2, "10.00")))

	otherPayer := newExpense(1, 3, "30.00")
	require.NoError(t, expenses.CreateExpense(ctx, otherPayer, nil, halfSplits(3, 2, "15.00")))

	otherTrip := newExpense(2, 1, "40.00")
	require.NoError(t, expenses.CreateExpense(ctx, otherTrip, nil, halfSplits(1, 2, "20.00")))

	var touched []int64
	err := settlements.WithinTx(ctx, func(tx settlement.Store) error {
		var err error
		touched, err = tx.MarkSplitsPaidBetween(ctx, 1, 2, 1, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{owed.ID}, touched)

	for _, id := range []int64{rejected.ID, otherPayer.ID, otherTrip.ID} {
		sp, err := expenses.GetSplit(ctx, id, 2)
		require.NoError(t, err)
		assert.False(t, sp.IsPaid, "expense %d", id)
	}

	n, err := settlements.SettleExpenses(ctx, touched, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := expenses.GetExpense(ctx, owed.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusSettled, got.Status)
}

func TestTripMembership(t *testing.T) {
	ctx := context.Background()
	s := New()
	tr := s.AddTrip("Goa", 10, 20)
	require.NoError(t, s.AddMember(tr.ID, 30))
	require.Error(t, s.AddMember(tr.ID, 20))
	require.Error(t, s.AddMember(99, 1))

	members, err := s.Trips().GetMembers(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, int64(10), members[0].UserID)
	assert.Equal(t, "organizer", string(members[0].Role))
	assert.Equal(t, int64(30), members[2].UserID)

	missing, err := s.Trips().GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
