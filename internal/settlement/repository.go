package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fkhayef/tripsplit/internal/database"
	"github.com/fkhayef/tripsplit/internal/expense"
)

const settlementColumns = `id, trip_id, from_user_id, to_user_id, amount_cents, currency, notes,
	confirmed, confirmed_at, settlement_date, created_by`

var _ Store = (*Repository)(nil)

// Repository handles settlement data persistence in Postgres
type Repository struct {
	db   *sql.DB
	q    database.DBTX
	inTx bool
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithinTx runs fn in a transaction, joining the current one if any
func (r *Repository) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx, inTx: true})
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*Settlement, error) {
	s := &Settlement{}
	err := row.Scan(
		&s.ID,
		&s.TripID,
		&s.FromUserID,
		&s.ToUserID,
		&s.Amount,
		&s.Currency,
		&s.Notes,
		&s.Confirmed,
		&s.ConfirmedAt,
		&s.SettlementDate,
		&s.CreatedBy,
	)
	return s, err
}

// CreateSettlement inserts an unconfirmed settlement and fills in its id
func (r *Repository) CreateSettlement(ctx context.Context, s *Settlement) error {
	query := `
		INSERT INTO settlements (trip_id, from_user_id, to_user_id, amount_cents, currency, notes,
			settlement_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		s.TripID,
		s.FromUserID,
		s.ToUserID,
		s.Amount,
		s.Currency,
		s.Notes,
		s.SettlementDate,
		s.CreatedBy,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by its ID
func (r *Repository) GetSettlement(ctx context.Context, id int64) (*Settlement, error) {
	return r.getSettlement(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)
}

// GetSettlementForUpdate retrieves a settlement and locks its row
func (r *Repository) GetSettlementForUpdate(ctx context.Context, id int64) (*Settlement, error) {
	return r.getSettlement(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getSettlement(ctx context.Context, query string, id int64) (*Settlement, error) {
	s, err := scanSettlement(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// ListTripSettlements retrieves a trip's settlements, newest first
func (r *Repository) ListTripSettlements(ctx context.Context, tripID int64, confirmed *bool) ([]*Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE trip_id = $1`
	args := []any{tripID}
	if confirmed != nil {
		query += ` AND confirmed = $2`
		args = append(args, *confirmed)
	}
	query += ` ORDER BY settlement_date DESC, id DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// ConfirmSettlement flips an unconfirmed settlement to confirmed
func (r *Repository) ConfirmSettlement(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE settlements SET confirmed = TRUE, confirmed_at = $2
		WHERE id = $1 AND confirmed = FALSE
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to confirm settlement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to confirm settlement: %w", err)
	}
	return n == 1, nil
}

// MarkSplitsPaidBetween marks the debtor's unpaid splits on the creditor's
// expenses as paid and returns the affected expense ids
func (r *Repository) MarkSplitsPaidBetween(ctx context.Context, tripID, debtorID, creditorID int64, at time.Time) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `
		UPDATE expense_splits s
		SET is_paid = TRUE, paid_at = $4
		FROM expenses e
		WHERE s.expense_id = e.id
			AND e.trip_id = $1
			AND s.user_id = $2
			AND e.payer_id = $3
			AND e.status <> $5
			AND s.is_paid = FALSE
		RETURNING s.expense_id
	`, tripID, debtorID, creditorID, at, expense.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to mark splits paid: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense ids: %w", err)
	}

	return ids, nil
}

// SettleExpenses moves fully paid expenses among expenseIDs to settled
func (r *Repository) SettleExpenses(ctx context.Context, expenseIDs []int64, at time.Time) (int, error) {
	if len(expenseIDs) == 0 {
		return 0, nil
	}
	result, err := r.q.ExecContext(ctx, `
		UPDATE expenses e
		SET status = $2, updated_at = $3
		WHERE e.id = ANY($1)
			AND e.status = ANY($4)
			AND NOT EXISTS (
				SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.is_paid = FALSE
			)
	`, pq.Array(expenseIDs), expense.StatusSettled, at, pq.Array(settleableStatuses()))
	if err != nil {
		return 0, fmt.Errorf("failed to settle expenses: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to settle expenses: %w", err)
	}
	return int(n), nil
}

// settleableStatuses lists the statuses a confirmation may move to settled.
func settleableStatuses() []string {
	var out []string
	for _, st := range expense.Statuses {
		if expense.CanTransition(st, expense.TriggerSettlementConfirmed) {
			out = append(out, string(st))
		}
	}
	return out
}
