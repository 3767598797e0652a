package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fkhayef/tripsplit/internal/database"
)

const expenseColumns = `id, trip_id, payer_id, title, description, amount_cents, currency, category,
	status, expense_date, receipt_url, split_equally, created_at, updated_at`

const splitColumns = `id, expense_id, user_id, amount_cents, is_paid, paid_at, notes`

var _ Store = (*Repository)(nil)

// Repository handles expense, member and split persistence in Postgres
type Repository struct {
	db   *sql.DB
	q    database.DBTX
	inTx bool
}

// NewRepository creates a new expense repository
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

func scanExpense(row rowScanner) (*Expense, error) {
	e := &Expense{}
	err := row.Scan(
		&e.ID,
		&e.TripID,
		&e.PayerID,
		&e.Title,
		&e.Description,
		&e.Amount,
		&e.Currency,
		&e.Category,
		&e.Status,
		&e.ExpenseDate,
		&e.ReceiptURL,
		&e.SplitEqually,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func scanSplit(row rowScanner) (*Split, error) {
	s := &Split{}
	err := row.Scan(
		&s.ID,
		&s.ExpenseID,
		&s.UserID,
		&s.Amount,
		&s.IsPaid,
		&s.PaidAt,
		&s.Notes,
	)
	return s, err
}

// CreateExpense inserts an expense with its members and splits and fills
// in the generated ids
func (r *Repository) CreateExpense(ctx context.Context, e *Expense, members []*Member, splits []*Split) error {
	query := `
		INSERT INTO expenses (trip_id, payer_id, title, description, amount_cents, currency, category,
			status, expense_date, receipt_url, split_equally, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		e.TripID,
		e.PayerID,
		e.Title,
		e.Description,
		e.Amount,
		e.Currency,
		e.Category,
		e.Status,
		e.ExpenseDate,
		e.ReceiptURL,
		e.SplitEqually,
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return r.insertRows(ctx, e.ID, members, splits)
}

func (r *Repository) insertRows(ctx context.Context, expenseID int64, members []*Member, splits []*Split) error {
	for _, m := range members {
		m.ExpenseID = expenseID
		err := r.q.QueryRowContext(ctx, `
			INSERT INTO expense_members (expense_id, user_id, is_included)
			VALUES ($1, $2, $3)
			RETURNING id
		`, expenseID, m.UserID, m.Included).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to create expense member: %w", err)
		}
	}

	for _, s := range splits {
		s.ExpenseID = expenseID
		err := r.q.QueryRowContext(ctx, `
			INSERT INTO expense_splits (expense_id, user_id, amount_cents, is_paid, paid_at, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, expenseID, s.UserID, s.Amount, s.IsPaid, s.PaidAt, s.Notes).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to create split: %w", err)
		}
	}

	return nil
}

// GetExpense retrieves an expense by its ID
func (r *Repository) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	return r.getExpense(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
}

// GetExpenseForUpdate retrieves an expense and locks its row
func (r *Repository) GetExpenseForUpdate(ctx context.Context, id int64) (*Expense, error) {
	return r.getExpense(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getExpense(ctx context.Context, query string, id int64) (*Expense, error) {
	e, err := scanExpense(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense saves the editable fields of an expense
func (r *Repository) UpdateExpense(ctx context.Context, e *Expense) error {
	query := `
		UPDATE expenses
		SET title = $2, description = $3, category = $4, status = $5, expense_date = $6,
			receipt_url = $7, split_equally = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.Category,
		e.Status,
		e.ExpenseDate,
		e.ReceiptURL,
		e.SplitEqually,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// UpdateStatus moves an expense from one status to another; it reports
// false when the expense was no longer in the from status
func (r *Repository) UpdateStatus(ctx context.Context, expenseID int64, from, to Status, at time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE expenses SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, expenseID, from, to, at)
	if err != nil {
		return false, fmt.Errorf("failed to update expense status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update expense status: %w", err)
	}
	return n == 1, nil
}

// DeleteExpense deletes an expense; members and splits cascade
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// ListTripExpenses lists a trip's expenses ordered by date, newest first
func (r *Repository) ListTripExpenses(ctx context.Context, tripID int64, filter ListFilter) ([]*Expense, error) {
	conds := []string{"trip_id = $1"}
	args := []any{tripID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Category != nil {
		add("category = $%d", *filter.Category)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.PayerID != nil {
		add("payer_id = $%d", *filter.PayerID)
	}
	if filter.From != nil {
		add("expense_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("expense_date <= $%d", *filter.To)
	}
	if filter.ExcludeRejected {
		add("status <> $%d", StatusRejected)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY expense_date DESC, id DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// ListMembers retrieves the members of an expense in insertion order
func (r *Repository) ListMembers(ctx context.Context, expenseID int64) ([]*Member, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, expense_id, user_id, is_included
		FROM expense_members
		WHERE expense_id = $1
		ORDER BY id
	`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.ExpenseID, &m.UserID, &m.Included); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// ListSplits retrieves all splits of an expense in insertion order
func (r *Repository) ListSplits(ctx context.Context, expenseID int64) ([]*Split, error) {
	return r.listSplits(ctx, `
		SELECT `+splitColumns+`
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY id
	`, expenseID)
}

// ListTripSplits retrieves every split of every expense in a trip
func (r *Repository) ListTripSplits(ctx context.Context, tripID int64) ([]*Split, error) {
	return r.listSplits(ctx, `
		SELECT s.id, s.expense_id, s.user_id, s.amount_cents, s.is_paid, s.paid_at, s.notes
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.trip_id = $1
		ORDER BY s.expense_id, s.id
	`, tripID)
}

func (r *Repository) listSplits(ctx context.Context, query string, id int64) ([]*Split, error) {
	rows, err := r.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

// GetSplit retrieves one member's split of an expense
func (r *Repository) GetSplit(ctx context.Context, expenseID, userID int64) (*Split, error) {
	s, err := scanSplit(r.q.QueryRowContext(ctx, `
		SELECT `+splitColumns+`
		FROM expense_splits
		WHERE expense_id = $1 AND user_id = $2
	`, expenseID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	return s, nil
}

// ReplaceSplits swaps an expense's members and splits for new ones
func (r *Repository) ReplaceSplits(ctx context.Context, expenseID int64, members []*Member, splits []*Split) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM expense_members WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense members: %w", err)
	}
	return r.insertRows(ctx, expenseID, members, splits)
}

// MarkSplitPaid flags a split as paid; it reports false when it already was
func (r *Repository) MarkSplitPaid(ctx context.Context, expenseID, userID int64, at time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE expense_splits SET is_paid = TRUE, paid_at = $3
		WHERE expense_id = $1 AND user_id = $2 AND is_paid = FALSE
	`, expenseID, userID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark split paid: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark split paid: %w", err)
	}
	return n == 1, nil
}

// CountUnpaidSplits counts the splits of an expense still awaiting payment
func (r *Repository) CountUnpaidSplits(ctx context.Context, expenseID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM expense_splits WHERE expense_id = $1 AND is_paid = FALSE
	`, expenseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid splits: %w", err)
	}
	return n, nil
}
