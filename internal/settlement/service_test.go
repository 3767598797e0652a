package settlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/expense/split"
	"github.com/fkhayef/tripsplit/internal/memstore"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
	dave  int64 = 4
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type sent struct {
	kind       string
	recipient  int64
	settlement int64
	splitsPaid int
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recordingNotifier) NotifySettlementCreated(ctx context.Context, recipientID int64, s *settlement.Settlement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{kind: "created", recipient: recipientID, settlement: s.ID})
	return nil
}

func (n *recordingNotifier) NotifySettlementConfirmed(ctx context.Context, recipientID int64, s *settlement.Settlement, splitsPaid int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{kind: "confirmed", recipient: recipientID, settlement: s.ID, splitsPaid: splitsPaid})
	return nil
}

type confirmMetrics struct {
	cleared []int
}

func (m *confirmMetrics) SettlementConfirmed(n int) {
	m.cleared = append(m.cleared, n)
}

type fixture struct {
	store       *memstore.Store
	tripID      int64
	expenses    *expense.Service
	balances    *balance.Service
	settlements *settlement.Service
	notifier    *recordingNotifier
	metrics     *confirmMetrics
}

func newFixture(t *testing.T, opts ...settlement.Option) *fixture {
	t.Helper()
	ms := memstore.New()
	tr := ms.AddTrip("Hampi", alice, bob, carol)
	trips := trip.NewService(ms.Trips())
	balances := balance.NewService(trips, ms.Expenses(), nil)

	f := &fixture{
		store:    ms,
		tripID:   tr.ID,
		balances: balances,
		notifier: &recordingNotifier{},
		metrics:  &confirmMetrics{},
	}
	f.expenses = expense.NewService(ms.Expenses(), trips, split.NewFactory(),
		expense.WithClock(func() time.Time { return fixedNow }))
	opts = append([]settlement.Option{
		settlement.WithNotifier(f.notifier),
		settlement.WithMetrics(f.metrics),
		settlement.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	f.settlements = settlement.NewService(ms.Settlements(), trips, balances, opts...)
	return f
}

func (f *fixture) spend(t *testing.T, payer int64, amount string, members ...int64) int64 {
	t.Helper()
	out, err := f.expenses.CreateExpense(context.Background(), expense.CreateInput{
		TripID:  f.tripID,
		PayerID: payer,
		Amount:  money.MustParse(amount),
		Members: split.Members(members...),
	})
	require.NoError(t, err)
	return out.Expense.ID
}

func (f *fixture) record(t *testing.T, actor, from, to int64, amount string) *settlement.Settlement {
	t.Helper()
	st, err := f.settlements.CreateSettlement(context.Background(), settlement.CreateInput{
		TripID:     f.tripID,
		ActorID:    actor,
		FromUserID: from,
		ToUserID:   to,
		Amount:     money.MustParse(amount),
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) getExpense(t *testing.T, id int64) *expense.ExpenseWithSplits {
	t.Helper()
	out, err := f.expenses.GetExpense(context.Background(), id, alice)
	require.NoError(t, err)
	return out
}

func paidBy(splits []*expense.Split) map[int64]bool {
	out := make(map[int64]bool, len(splits))
	for _, sp := range splits {
		out[sp.UserID] = sp.IsPaid
	}
	return out
}

func TestCreateSettlement(t *testing.T) {
	f := newFixture(t)
	notes := "upi"
	st, err := f.settlements.CreateSettlement(context.Background(), settlement.CreateInput{
		TripID:     f.tripID,
		ActorID:    bob,
		FromUserID: bob,
		ToUserID:   alice,
		Amount:     money.MustParse("70.00"),
		Currency:   "inr",
		Notes:      &notes,
	})
	require.NoError(t, err)

	assert.NotZero(t, st.ID)
	assert.False(t, st.Confirmed)
	assert.Nil(t, st.ConfirmedAt)
	assert.Equal(t, "INR", st.Currency)
	assert.Equal(t, bob, st.CreatedBy)
	assert.Equal(t, fixedNow, st.SettlementDate)
	assert.Equal(t, []sent{{kind: "created", recipient: alice, settlement: st.ID}}, f.notifier.sent)

	// the recipient may record it too; the sender is told
	st2 := f.record(t, alice, carol, alice, "5.00")
	assert.Equal(t, sent{kind: "created", recipient: carol, settlement: st2.ID}, f.notifier.sent[1])
}

func TestCreateSettlementErrors(t *testing.T) {
	tests := []struct {
		name string
		in   settlement.CreateInput
		is   error
	}{
		{"outsider", settlement.CreateInput{ActorID: dave, FromUserID: dave, ToUserID: alice, Amount: money.MustParse("1.00")}, trip.ErrNotMember},
		{"not a party", settlement.CreateInput{ActorID: carol, FromUserID: bob, ToUserID: alice, Amount: money.MustParse("1.00")}, settlement.ErrNotParty},
		{"self", settlement.CreateInput{ActorID: bob, FromUserID: bob, ToUserID: bob, Amount: money.MustParse("1.00")}, settlement.ErrCannotSettleSelf},
		{"zero amount", settlement.CreateInput{ActorID: bob, FromUserID: bob, ToUserID: alice}, settlement.ErrNonPositiveAmount},
		{"party off trip", settlement.CreateInput{ActorID: bob, FromUserID: bob, ToUserID: dave, Amount: money.MustParse("1.00")}, settlement.ErrPartyNotMember},
		{"bad currency", settlement.CreateInput{ActorID: bob, FromUserID: bob, ToUserID: alice, Amount: money.MustParse("1.00"), Currency: "QQQ"}, settlement.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.in.TripID = f.tripID
			_, err := f.settlements.CreateSettlement(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.is)

			all, err := f.settlements.ListTripSettlements(context.Background(), f.tripID, alice, nil)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestConfirmSettlementClearsDebts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dinner := f.spend(t, alice, "100.00", alice, bob)
	cab := f.spend(t, alice, "60.00", alice, bob, carol)
	lunch := f.spend(t, bob, "30.00", alice, bob)

	st := f.record(t, bob, bob, alice, "70.00")

	ok, err := f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	d := f.getExpense(t, dinner)
	assert.Equal(t, expense.StatusSettled, d.Expense.Status)
	assert.True(t, paidBy(d.Splits)[bob])

	c := f.getExpense(t, cab)
	assert.Equal(t, expense.StatusPending, c.Expense.Status)
	assert.Equal(t, map[int64]bool{alice: true, bob: true, carol: false}, paidBy(c.Splits))

	// debts in the other direction are untouched
	l := f.getExpense(t, lunch)
	assert.Equal(t, expense.StatusPending, l.Expense.Status)
	assert.False(t, paidBy(l.Splits)[alice])

	got, err := f.settlements.GetSettlement(ctx, st.ID, carol)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
	require.NotNil(t, got.ConfirmedAt)
	assert.Equal(t, fixedNow, *got.ConfirmedAt)

	assert.Equal(t, []int{2}, f.metrics.cleared)
	assert.Contains(t, f.notifier.sent, sent{kind: "confirmed", recipient: bob, settlement: st.ID, splitsPaid: 2})

	// carol pays directly: the cab is approved, not settled
	_, err = f.expenses.MarkSplitPaid(ctx, cab, carol, carol)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, f.getExpense(t, cab).Expense.Status)
}

func TestConfirmSettlementRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dinner := f.spend(t, alice, "90.00", alice, bob, carol)
	st := f.record(t, bob, bob, alice, "30.00")

	_, err := f.settlements.ConfirmSettlement(ctx, st.ID, carol)
	require.ErrorIs(t, err, settlement.ErrNotRecipient)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, bob)
	require.ErrorIs(t, err, settlement.ErrNotRecipient)

	_, err = f.settlements.ConfirmSettlement(ctx, 999, alice)
	require.ErrorIs(t, err, settlement.ErrSettlementNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Equal(t, map[int64]bool{alice: true, bob: false, carol: false}, paidBy(f.getExpense(t, dinner).Splits))

	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)

	// a second confirmation must not clear carol's split
	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.ErrorIs(t, err, settlement.ErrAlreadyConfirmed)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Equal(t, map[int64]bool{alice: true, bob: true, carol: false}, paidBy(f.getExpense(t, dinner).Splits))
	assert.Equal(t, []int{1}, f.metrics.cleared)
}

func TestConfirmSkipsRejectedExpenses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hotel := f.spend(t, alice, "40.00", alice, bob)
	rejected := expense.StatusRejected
	_, err := f.expenses.UpdateExpense(ctx, hotel, alice, expense.UpdateInput{Status: &rejected})
	require.NoError(t, err)

	st := f.record(t, bob, bob, alice, "20.00")
	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)

	h := f.getExpense(t, hotel)
	assert.Equal(t, expense.StatusRejected, h.Expense.Status)
	assert.False(t, paidBy(h.Splits)[bob])
	assert.Equal(t, []int{0}, f.metrics.cleared)
}

func TestConfirmAfterPartialDirectPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	trek := f.spend(t, alice, "90.00", alice, bob, carol)

	_, err := f.expenses.MarkSplitPaid(ctx, trek, carol, carol)
	require.NoError(t, err)
	st := f.record(t, alice, bob, alice, "30.00")
	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)

	assert.Equal(t, expense.StatusSettled, f.getExpense(t, trek).Expense.Status)
}

func TestListTripSettlements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.record(t, bob, bob, alice, "10.00")
	f.record(t, carol, carol, alice, "20.00")
	_, err := f.settlements.ConfirmSettlement(ctx, first.ID, alice)
	require.NoError(t, err)

	all, err := f.settlements.ListTripSettlements(ctx, f.tripID, carol, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yes, no := true, false
	confirmed, err := f.settlements.ListTripSettlements(ctx, f.tripID, carol, &yes)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)

	pending, err := f.settlements.ListTripSettlements(ctx, f.tripID, carol, &no)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, carol, pending[0].FromUserID)

	_, err = f.settlements.ListTripSettlements(ctx, f.tripID, dave, nil)
	require.ErrorIs(t, err, trip.ErrNotMember)
}

func TestPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.spend(t, alice, "100.00", alice, bob)
	f.spend(t, alice, "60.00", alice, bob, carol)

	pairwise, err := f.settlements.Plan(ctx, f.tripID, carol, "")
	require.NoError(t, err)
	assert.Equal(t, []settlement.Candidate{
		{FromUserID: bob, ToUserID: alice, Amount: money.MustParse("70.00"), Currency: "INR"},
		{FromUserID: carol, ToUserID: alice, Amount: money.MustParse("20.00"), Currency: "INR"},
	}, pairwise)

	minimal, err := f.settlements.Plan(ctx, f.tripID, carol, settlement.AlgorithmMinimal)
	require.NoError(t, err)
	assert.Equal(t, []settlement.Candidate{
		{FromUserID: carol, ToUserID: alice, Amount: money.MustParse("20.00"), Currency: "INR"},
		{FromUserID: bob, ToUserID: alice, Amount: money.MustParse("70.00"), Currency: "INR"},
	}, minimal)

	_, err = f.settlements.Plan(ctx, f.tripID, dave, "")
	require.ErrorIs(t, err, trip.ErrNotMember)
}

func TestPlanDefaultAlgorithmOption(t *testing.T) {
	f := newFixture(t, settlement.WithAlgorithm(settlement.AlgorithmMinimal), settlement.WithDefaultCurrency("EUR"))
	assert.Equal(t, settlement.AlgorithmMinimal, f.settlements.DefaultAlgorithm())
	assert.Equal(t, "EUR", f.settlements.DefaultCurrency())

	plan, err := f.settlements.PlanTrip(context.Background(), f.tripID, "")
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlanClearsAfterConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.spend(t, alice, "100.00", alice, bob)

	st := f.record(t, bob, bob, alice, "50.00")
	_, err := f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)

	for _, alg := range []settlement.Algorithm{settlement.AlgorithmPairwise, settlement.AlgorithmMinimal} {
		plan, err := f.settlements.PlanTrip(ctx, f.tripID, alg)
		require.NoError(t, err)
		assert.Empty(t, plan, alg)
	}
}
