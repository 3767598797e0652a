package expense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/pkg/apperr"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    Status
		trigger Trigger
		want    Status
		ok      bool
	}{
		{StatusPending, TriggerAllSplitsPaid, StatusApproved, true},
		{StatusPending, TriggerSettlementConfirmed, StatusSettled, true},
		{StatusPending, TriggerRejected, StatusRejected, true},
		{StatusApproved, TriggerSettlementConfirmed, StatusSettled, true},
		{StatusApproved, TriggerRejected, StatusApproved, false},
		{StatusApproved, TriggerAllSplitsPaid, StatusApproved, false},
		{StatusSettled, TriggerAllSplitsPaid, StatusSettled, false},
		{StatusSettled, TriggerRejected, StatusSettled, false},
		{StatusRejected, TriggerAllSplitsPaid, StatusRejected, false},
		{StatusRejected, TriggerSettlementConfirmed, StatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			got, err := Transition(tt.from, tt.trigger)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.trigger))
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		})
	}
}

func TestNothingReturnsToPending(t *testing.T) {
	for _, from := range Statuses {
		for _, trigger := range []Trigger{TriggerAllSplitsPaid, TriggerSettlementConfirmed, TriggerRejected} {
			got, _ := Transition(from, trigger)
			if from != StatusPending {
				assert.NotEqual(t, StatusPending, got, "%s via %s", from, trigger)
			}
		}
	}
}

func TestTriggerFor(t *testing.T) {
	trigger, ok := triggerFor(StatusRejected)
	assert.True(t, ok)
	assert.Equal(t, TriggerRejected, trigger)

	for _, st := range []Status{StatusPending, StatusApproved, StatusSettled} {
		_, ok := triggerFor(st)
		assert.False(t, ok, st)
	}
}

func TestListFilterMatches(t *testing.T) {
	food := CategoryFood
	rejected := StatusRejected
	e := &Expense{Category: CategoryFood, Status: StatusPending, PayerID: 7}

	assert.True(t, ListFilter{}.Matches(e))
	assert.True(t, ListFilter{Category: &food}.Matches(e))
	assert.False(t, ListFilter{Status: &rejected}.Matches(e))

	e.Status = StatusRejected
	assert.False(t, ListFilter{ExcludeRejected: true}.Matches(e))
}
