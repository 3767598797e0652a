package summary

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/pkg/apperr"
)

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses an export format; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apperr.Validationf("unknown export format %q: use json or csv", s)
	}
}

// ExportOptions narrows what an export contains. Balances always cover the
// whole trip, whatever the expense filters.
type ExportOptions struct {
	From               *time.Time
	To                 *time.Time
	Categories         []expense.Category
	IncludeBalances    bool
	IncludeSettlements bool
}

// ExportedExpense is an expense with its splits
type ExportedExpense struct {
	*expense.Expense
	Splits []*expense.Split `json:"splits"`
}

// Export is a trip's data as handed to the user
type Export struct {
	TripID      int64                    `json:"trip_id"`
	TripName    string                   `json:"trip_name"`
	ExportedAt  time.Time                `json:"exported_at"`
	Expenses    []ExportedExpense        `json:"expenses"`
	Balances    []balance.Balance        `json:"balances,omitempty"`
	Settlements []*settlement.Settlement `json:"settlements,omitempty"`
}

// BuildExport collects a trip's data for a member
func (s *Service) BuildExport(ctx context.Context, tripID, actorID int64, opts ExportOptions) (*Export, error) {
	t, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	for _, c := range opts.Categories {
		if !c.Valid() {
			return nil, apperr.Validationf("unknown expense category %q", c)
		}
	}

	ledger, err := s.balances.LoadLedger(ctx, tripID)
	if err != nil {
		return nil, err
	}

	splitsByExpense := make(map[int64][]*expense.Split)
	for _, sp := range ledger.Splits {
		splitsByExpense[sp.ExpenseID] = append(splitsByExpense[sp.ExpenseID], sp)
	}

	filter := expense.ListFilter{From: opts.From, To: opts.To}
	out := &Export{
		TripID:     tripID,
		TripName:   t.Name,
		ExportedAt: time.Now().UTC(),
		Expenses:   []ExportedExpense{},
	}
	for _, e := range ledger.Expenses {
		if !filter.Matches(e) || !inCategories(e.Category, opts.Categories) {
			continue
		}
		splits := splitsByExpense[e.ID]
		if splits == nil {
			splits = []*expense.Split{}
		}
		out.Expenses = append(out.Expenses, ExportedExpense{Expense: e, Splits: splits})
	}

	if opts.IncludeBalances {
		out.Balances = ledger.Balances()
	}
	if opts.IncludeSettlements {
		out.Settlements, err = s.settlements.ListTripSettlements(ctx, tripID, nil)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func inCategories(c expense.Category, categories []expense.Category) bool {
	if len(categories) == 0 {
		return true
	}
	for _, want := range categories {
		if c == want {
			return true
		}
	}
	return false
}

// WriteJSON writes the export as an indented JSON document
func WriteJSON(w io.Writer, exp *Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exp)
}

// WriteCSV writes one row per split, followed by balance and settlement
// sections when the export carries them. Sections are separated by an
// empty line and start with their own header row.
func WriteCSV(w io.Writer, exp *Export) error {
	cw := csv.NewWriter(w)

	_ = cw.Write([]string{
		"expense_id", "expense_date", "title", "category", "status", "payer_id",
		"amount", "currency", "split_user_id", "split_amount", "split_paid",
	})
	for _, e := range exp.Expenses {
		for _, sp := range e.Splits {
			_ = cw.Write([]string{
				id(e.ID),
				e.ExpenseDate.Format("2006-01-02"),
				e.Title,
				string(e.Category),
				string(e.Status),
				id(e.PayerID),
				e.Amount.String(),
				e.Currency,
				id(sp.UserID),
				sp.Amount.String(),
				strconv.FormatBool(sp.IsPaid),
			})
		}
	}

	if len(exp.Balances) > 0 {
		_ = cw.Write([]string{})
		_ = cw.Write([]string{"user_id", "total_paid", "total_owed", "remaining_owed", "net_balance"})
		for _, b := range exp.Balances {
			_ = cw.Write([]string{
				id(b.UserID),
				b.TotalPaid.String(),
				b.TotalOwed.String(),
				b.RemainingOwed.String(),
				b.NetBalance.String(),
			})
		}
	}

	if len(exp.Settlements) > 0 {
		_ = cw.Write([]string{})
		_ = cw.Write([]string{"settlement_id", "settlement_date", "from_user_id", "to_user_id", "amount", "currency", "confirmed"})
		for _, st := range exp.Settlements {
			_ = cw.Write([]string{
				id(st.ID),
				st.SettlementDate.Format("2006-01-02"),
				id(st.FromUserID),
				id(st.ToUserID),
				st.Amount.String(),
				st.Currency,
				strconv.FormatBool(st.Confirmed),
			})
		}
	}

	cw.Flush()
	return cw.Error()
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
