// Package balance derives per-member balances for a trip from its
// expenses and splits.
package balance

import (
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Balance is one member's position in a trip. A positive NetBalance means
// the member is owed money; a negative one means they owe money.
//
// TotalOwed sums every split assigned to the member, their own share
// included. SettledCredit sums the paid splits on expenses the member paid,
// the payer's own share included: that money is no longer owed to them.
type Balance struct {
	UserID          int64        `json:"user_id"`
	TotalPaid       money.Amount `json:"total_paid"`
	TotalOwed       money.Amount `json:"total_owed"`
	AlreadyPaidOwed money.Amount `json:"already_paid_owed"`
	RemainingOwed   money.Amount `json:"remaining_owed"`
	SettledCredit   money.Amount `json:"settled_credit"`
	NetBalance      money.Amount `json:"net_balance"`
}

// IsCreditor reports whether the member is owed money.
func (b Balance) IsCreditor() bool { return b.NetBalance.IsPositive() }

// IsDebtor reports whether the member owes money.
func (b Balance) IsDebtor() bool { return b.NetBalance.IsNegative() }

// Compute aggregates balances for memberIDs, in the given order. Rejected
// expenses and their splits are ignored, as are splits whose expense is
// not in expenses. Net balances of members who are payers or split users
// of every counted expense sum to zero.
func Compute(memberIDs []int64, expenses []*expense.Expense, splits []*expense.Split) []Balance {
	if len(memberIDs) == 0 {
		return []Balance{}
	}

	index := make(map[int64]int, len(memberIDs))
	out := make([]Balance, len(memberIDs))
	for i, id := range memberIDs {
		index[id] = i
		out[i].UserID = id
	}

	counted := make(map[int64]*expense.Expense, len(expenses))
	for _, e := range expenses {
		if e.Status == expense.StatusRejected {
			continue
		}
		counted[e.ID] = e
		if i, ok := index[e.PayerID]; ok {
			out[i].TotalPaid += e.Amount
		}
	}

	for _, sp := range splits {
		e, ok := counted[sp.ExpenseID]
		if !ok {
			continue
		}
		if i, ok := index[sp.UserID]; ok {
			out[i].TotalOwed += sp.Amount
			if sp.IsPaid {
				out[i].AlreadyPaidOwed += sp.Amount
			}
		}
		if sp.IsPaid {
			if i, ok := index[e.PayerID]; ok {
				out[i].SettledCredit += sp.Amount
			}
		}
	}

	for i := range out {
		b := &out[i]
		b.RemainingOwed = b.TotalOwed - b.AlreadyPaidOwed
		b.NetBalance = b.TotalPaid - b.SettledCredit - b.RemainingOwed
	}
	return out
}

// Totals returns the sum of positive net balances and the sum of the
// absolute negative ones.
func Totals(balances []Balance) (credit, debt money.Amount) {
	for _, b := range balances {
		switch {
		case b.IsCreditor():
			credit += b.NetBalance
		case b.IsDebtor():
			debt += b.NetBalance.Abs()
		}
	}
	return credit, debt
}
