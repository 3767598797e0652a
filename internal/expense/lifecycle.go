package expense

import (
	"fmt"

	"github.com/fkhayef/tripsplit/pkg/apperr"
)

// Trigger is an event that may move an expense to another status
type Trigger string

const (
	// TriggerAllSplitsPaid fires when direct payment marking clears the last unpaid split.
	TriggerAllSplitsPaid Trigger = "all_splits_paid"
	// TriggerSettlementConfirmed fires when a confirmed settlement clears the last unpaid split.
	TriggerSettlementConfirmed Trigger = "settlement_confirmed"
	// TriggerRejected is an explicit rejection by the payer.
	TriggerRejected Trigger = "rejected"
)

// ErrInvalidTransition is returned for status changes the lifecycle forbids.
var ErrInvalidTransition = apperr.Conflict("invalid expense status change")

// transitions is the complete expense state machine. Anything not listed,
// including every move back to pending, is rejected.
var transitions = map[Status]map[Trigger]Status{
	StatusPending: {
		TriggerAllSplitsPaid:       StatusApproved,
		TriggerSettlementConfirmed: StatusSettled,
		TriggerRejected:            StatusRejected,
	},
	StatusApproved: {
		TriggerSettlementConfirmed: StatusSettled,
	},
}

// Transition returns the status reached from current on trigger.
func Transition(current Status, trigger Trigger) (Status, error) {
	next, ok := transitions[current][trigger]
	if !ok {
		msg := fmt.Sprintf("cannot apply %s to a %s expense", trigger, current)
		return current, apperr.Wrap(apperr.KindConflict, msg, ErrInvalidTransition)
	}
	return next, nil
}

// CanTransition reports whether trigger is allowed from current.
func CanTransition(current Status, trigger Trigger) bool {
	_, ok := transitions[current][trigger]
	return ok
}

// triggerFor maps an explicitly requested status to the trigger that
// reaches it. Only rejection can be requested directly.
func triggerFor(target Status) (Trigger, bool) {
	if target == StatusRejected {
		return TriggerRejected, true
	}
	return "", false
}
