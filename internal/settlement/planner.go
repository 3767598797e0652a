package settlement

import (
	"sort"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// BuildPlan proposes transfers for a ledger. fallbackCurrency tags minimal
// transfers of a trip that has no expenses.
func BuildPlan(alg Algorithm, ledger *balance.Ledger, fallbackCurrency string) []Candidate {
	if alg == AlgorithmMinimal {
		return MinimalTransfers(ledger.Balances(), DominantCurrency(ledger.Expenses, fallbackCurrency))
	}
	return PairwiseAggregation(ledger.Expenses, ledger.Splits)
}

type pairKey struct {
	from, to int64
	currency string
}

// PairwiseAggregation groups every unpaid split of a non-rejected expense
// by debtor, payer and currency and proposes one transfer per group.
// The result is ordered by debtor, then creditor, then currency.
func PairwiseAggregation(expenses []*expense.Expense, splits []*expense.Split) []Candidate {
	byID := make(map[int64]*expense.Expense, len(expenses))
	for _, e := range expenses {
		if e.Status != expense.StatusRejected {
			byID[e.ID] = e
		}
	}

	sums := make(map[pairKey]money.Amount)
	for _, sp := range splits {
		e, ok := byID[sp.ExpenseID]
		if !ok || sp.IsPaid || sp.UserID == e.PayerID || !sp.Amount.IsPositive() {
			continue
		}
		sums[pairKey{from: sp.UserID, to: e.PayerID, currency: e.Currency}] += sp.Amount
	}

	out := make([]Candidate, 0, len(sums))
	for k, amount := range sums {
		out = append(out, Candidate{FromUserID: k.from, ToUserID: k.to, Amount: amount, Currency: k.currency})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromUserID != out[j].FromUserID {
			return out[i].FromUserID < out[j].FromUserID
		}
		if out[i].ToUserID != out[j].ToUserID {
			return out[i].ToUserID < out[j].ToUserID
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

type position struct {
	userID    int64
	remaining money.Amount
}

// MinimalTransfers nets balances greedily. Debtors are taken smallest
// debt first and creditors largest credit first, ties by user id, and
// each debtor pays the current creditor until one side is exhausted.
func MinimalTransfers(balances []balance.Balance, currency string) []Candidate {
	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.IsDebtor():
			debtors = append(debtors, position{userID: b.UserID, remaining: b.NetBalance.Abs()})
		case b.IsCreditor():
			creditors = append(creditors, position{userID: b.UserID, remaining: b.NetBalance})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		if debtors[i].remaining != debtors[j].remaining {
			return debtors[i].remaining < debtors[j].remaining
		}
		return debtors[i].userID < debtors[j].userID
	})
	sort.SliceStable(creditors, func(i, j int) bool {
		if creditors[i].remaining != creditors[j].remaining {
			return creditors[i].remaining > creditors[j].remaining
		}
		return creditors[i].userID < creditors[j].userID
	})

	out := []Candidate{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amount := money.Min(d.remaining, c.remaining)
		if amount.IsPositive() {
			out = append(out, Candidate{FromUserID: d.userID, ToUserID: c.userID, Amount: amount, Currency: currency})
		}
		d.remaining -= amount
		c.remaining -= amount
		if c.remaining.IsZero() {
			j++
		}
		if d.remaining.IsZero() {
			i++
		}
	}
	return out
}

// DominantCurrency returns the currency carrying the largest total over
// non-rejected expenses, or fallback when there are none. Ties go to the
// alphabetically first code.
func DominantCurrency(expenses []*expense.Expense, fallback string) string {
	totals := make(map[string]money.Amount)
	for _, e := range expenses {
		if e.Status != expense.StatusRejected {
			totals[e.Currency] += e.Amount
		}
	}
	best := ""
	for code, total := range totals {
		if best == "" || total > totals[best] || (total == totals[best] && code < best) {
			best = code
		}
	}
	if best == "" {
		return fallback
	}
	return best
}

// Total sums the amounts of a plan.
func Total(plan []Candidate) money.Amount {
	var total money.Amount
	for _, c := range plan {
		total += c.Amount
	}
	return total
}
