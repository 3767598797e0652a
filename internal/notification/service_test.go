package notification_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/expense/split"
	"github.com/fkhayef/tripsplit/internal/memstore"
	"github.com/fkhayef/tripsplit/internal/notification"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/money"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
)

type fixture struct {
	tripID        int64
	notifications *notification.Service
	expenses      *expense.Service
	settlements   *settlement.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := memstore.New()
	tr := ms.AddTrip("Kasol", alice, bob, carol)
	trips := trip.NewService(ms.Trips())
	notifications := notification.NewService(ms.Notifications())

	return &fixture{
		tripID:        tr.ID,
		notifications: notifications,
		expenses: expense.NewService(ms.Expenses(), trips, split.NewFactory(),
			expense.WithNotifier(notifications)),
		settlements: settlement.NewService(ms.Settlements(), trips, balance.NewService(trips, ms.Expenses(), nil),
			settlement.WithNotifier(notifications)),
	}
}

func (f *fixture) inbox(t *testing.T, userID int64) []*notification.Notification {
	t.Helper()
	list, _, err := f.notifications.ListByRecipientID(context.Background(), userID, 1, 100, false)
	require.NoError(t, err)
	return list
}

func TestExpenseAndSettlementNotifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.expenses.CreateExpense(ctx, expense.CreateInput{
		TripID:  f.tripID,
		PayerID: alice,
		Title:   "Cafe",
		Amount:  money.MustParse("90.00"),
		Members: split.Members(alice, bob, carol),
	})
	require.NoError(t, err)

	assert.Empty(t, f.inbox(t, alice))
	bobs := f.inbox(t, bob)
	require.Len(t, bobs, 1)
	assert.Equal(t, notification.TypeExpenseAdded, bobs[0].Type)
	assert.Equal(t, "User 1 added 'Cafe'. Your share is 30.00 INR", bobs[0].Message)
	require.NotNil(t, bobs[0].RelatedEntityID)
	assert.Equal(t, out.Expense.ID, *bobs[0].RelatedEntityID)
	assert.Equal(t, "expense", *bobs[0].RelatedEntityType)

	_, err = f.expenses.MarkSplitPaid(ctx, out.Expense.ID, carol, carol)
	require.NoError(t, err)
	alices := f.inbox(t, alice)
	require.Len(t, alices, 1)
	assert.Equal(t, notification.TypeSplitPaid, alices[0].Type)
	assert.Equal(t, "User 3 paid their share of 'Cafe'", alices[0].Message)

	st, err := f.settlements.CreateSettlement(ctx, settlement.CreateInput{
		TripID: f.tripID, ActorID: bob, FromUserID: bob, ToUserID: alice, Amount: money.MustParse("30.00"),
	})
	require.NoError(t, err)
	alices = f.inbox(t, alice)
	require.Len(t, alices, 2)
	assert.Equal(t, notification.TypeSettlementCreated, alices[0].Type)
	assert.Equal(t, "User 2 recorded paying you 30.00 INR. Please confirm once received", alices[0].Message)

	_, err = f.settlements.ConfirmSettlement(ctx, st.ID, alice)
	require.NoError(t, err)
	bobs = f.inbox(t, bob)
	require.Len(t, bobs, 2)
	assert.Equal(t, notification.TypeSettlementConfirmed, bobs[0].Type)
	assert.Equal(t, "User 1 confirmed your payment of 30.00 INR and 1 of your splits are now paid", bobs[0].Message)
	assert.Equal(t, "settlement", *bobs[0].RelatedEntityType)
}

func TestNotifySettlementCreatedBySender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.settlements.CreateSettlement(ctx, settlement.CreateInput{
		TripID: f.tripID, ActorID: alice, FromUserID: carol, ToUserID: alice, Amount: money.MustParse("12.50"),
	})
	require.NoError(t, err)

	carols := f.inbox(t, carol)
	require.Len(t, carols, 1)
	assert.Equal(t, "User 1 recorded a settlement of 12.50 INR from you", carols[0].Message)
}

func TestReadState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		n, err := f.notifications.Create(ctx, bob, notification.TypeExpenseAdded, fmt.Sprintf("message %d", i), "expense", int64(i+1))
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := f.notifications.Create(ctx, carol, notification.TypeSplitPaid, "for carol", "expense", 1)
	require.NoError(t, err)

	page, total, err := f.notifications.ListByRecipientID(ctx, bob, 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	err = f.notifications.MarkAsRead(ctx, ids[0], carol)
	require.ErrorIs(t, err, notification.ErrNotRecipient)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = f.notifications.MarkAsRead(ctx, 999, bob)
	require.ErrorIs(t, err, notification.ErrNotificationNotFound)

	require.NoError(t, f.notifications.MarkAsRead(ctx, ids[0], bob))
	count, err := f.notifications.GetUnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	unread, total, err := f.notifications.ListByRecipientID(ctx, bob, 1, 20, true)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, unread, 4)

	n, err := f.notifications.MarkAllAsRead(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	count, err = f.notifications.GetUnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = f.notifications.GetUnreadCount(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.notifications.Create(ctx, bob, notification.TypeExpenseAdded, "hello", "expense", 1)
		require.NoError(t, err)
	}

	r := chi.NewRouter()
	r.Use(middleware.ActorMiddleware)
	r.Mount("/notifications", notification.NewHandler(f.notifications).Routes())

	call := func(method, path string, actor int64) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(middleware.UserIDHeader, fmt.Sprint(actor))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	rec, body := call(http.MethodGet, "/notifications?per_page=2", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var meta struct {
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(body["meta"], &meta))
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	var inbox []notification.InboxItem
	require.NoError(t, json.Unmarshal(body["data"], &inbox))
	require.Len(t, inbox, 2)
	assert.Equal(t, "/api/v1/expenses/1", inbox[0].Link)
	assert.False(t, inbox[0].IsRead)

	rec, _ = call(http.MethodPost, "/notifications/1/read", carol)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = call(http.MethodPost, "/notifications/abc/read", bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(http.MethodPost, "/notifications/1/read", bob)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = call(http.MethodPost, "/notifications/read-all", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked_read":2}`, string(body["data"]))

	rec, body = call(http.MethodGet, "/notifications/unread-count", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":0}`, string(body["data"]))
}
