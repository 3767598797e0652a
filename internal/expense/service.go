package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fkhayef/tripsplit/internal/expense/split"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Common errors
var (
	ErrExpenseNotFound     = apperr.NotFound("expense not found")
	ErrSplitNotFound       = apperr.NotFound("split not found")
	ErrNotPayer            = apperr.Forbidden("only the payer can change this expense")
	ErrNotSplitOwner       = apperr.Forbidden("only the split's own user can mark it paid")
	ErrNotTripMember       = apperr.Validation("every member must belong to the trip")
	ErrInvalidCategory     = apperr.Validation("unknown expense category")
	ErrInvalidCurrency     = apperr.Validation("unknown currency code")
	ErrExpenseRejected     = apperr.Conflict("expense has been rejected")
	ErrExpenseClosed       = apperr.Conflict("splits can only change while the expense is pending")
	ErrSplitsAlreadyPaid   = apperr.Conflict("expense has splits that were already paid")
	ErrCannotDeleteExpense = apperr.Conflict("cannot delete an expense with paid splits")
)

// Service handles expense business logic
type Service struct {
	store           Store
	trips           *trip.Service
	splitFactory    *split.Factory
	notifier        Notifier
	cache           Invalidator
	metrics         Metrics
	now             func() time.Time
	defaultCurrency string
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, trips *trip.Service, splitFactory *split.Factory, opts ...Option) *Service {
	s := &Service{
		store:           store,
		trips:           trips,
		splitFactory:    splitFactory,
		now:             time.Now,
		defaultCurrency: "INR",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput describes a new expense
type CreateInput struct {
	TripID      int64
	PayerID     int64
	Title       string
	Description *string
	Amount      money.Amount
	Currency    string
	Category    Category
	ExpenseDate *time.Time
	ReceiptURL  *string
	Mode        split.Mode // empty means equal
	// Members in caller order; amounts or percentages are read in manual
	// and percentage mode. The last member absorbs rounding remainders.
	Members []split.Input
}

// CreateExpense creates an expense together with its members and splits
func (s *Service) CreateExpense(ctx context.Context, in CreateInput) (*ExpenseWithSplits, error) {
	tripMembers, err := s.trips.RequireMember(ctx, in.TripID, in.PayerID)
	if err != nil {
		return nil, err
	}

	currency, err := s.currency(in.Currency)
	if err != nil {
		return nil, err
	}
	category := in.Category
	if category == "" {
		category = CategoryOther
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	strategy, err := s.splitFactory.CreateFromString(string(in.Mode))
	if err != nil {
		return nil, err
	}
	shares, err := strategy.Calculate(in.Amount, in.PayerID, in.Members)
	if err != nil {
		return nil, err
	}
	if err := requireTripMembers(tripMembers, shares); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expenseDate := now
	if in.ExpenseDate != nil {
		expenseDate = in.ExpenseDate.UTC()
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = string(category)
	}

	expense := &Expense{
		TripID:       in.TripID,
		PayerID:      in.PayerID,
		Title:        title,
		Description:  in.Description,
		Amount:       in.Amount,
		Currency:     currency,
		Category:     category,
		Status:       StatusPending,
		ExpenseDate:  expenseDate,
		ReceiptURL:   in.ReceiptURL,
		SplitEqually: strategy.Mode() == split.ModeEqual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	members, splits := buildRows(shares, now, nil)

	err = s.store.WithinTx(ctx, func(tx Store) error {
		return tx.CreateExpense(ctx, expense, members, splits)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, expense.TripID)
	if s.metrics != nil {
		s.metrics.ExpenseCreated(string(strategy.Mode()))
	}
	if s.notifier != nil {
		for _, sp := range splits {
			if sp.UserID == expense.PayerID {
				continue
			}
			if err := s.notifier.NotifyExpenseAdded(ctx, sp.UserID, expense, sp.Amount); err != nil {
				slog.Warn("expense: notify expense added", "expense_id", expense.ID, "user_id", sp.UserID, "error", err)
			}
		}
	}

	slog.Info("expense created",
		"expense_id", expense.ID,
		"trip_id", expense.TripID,
		"amount", expense.Amount.String(),
		"mode", strategy.Mode(),
	)

	return &ExpenseWithSplits{Expense: expense, Members: members, Splits: splits}, nil
}

// GetExpense retrieves an expense with its members and splits
func (s *Service) GetExpense(ctx context.Context, id, actorID int64) (*ExpenseWithSplits, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}
	if _, err := s.trips.RequireMember(ctx, expense.TripID, actorID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	splits, err := s.store.ListSplits(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Members: members, Splits: splits}, nil
}

// ListTripExpenses lists a trip's expenses, newest first
func (s *Service) ListTripExpenses(ctx context.Context, tripID, actorID int64, filter ListFilter) ([]*Expense, error) {
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.Validationf("unknown expense status %q", *filter.Status)
	}
	return s.store.ListTripExpenses(ctx, tripID, filter)
}

// UpdateInput holds the editable fields of an expense; nil means unchanged
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *Category
	ExpenseDate *time.Time
	ReceiptURL  *string
	Status      *Status
}

// UpdateExpense edits an expense. Only the payer may do so, and the only
// status change allowed here is pending to rejected.
func (s *Service) UpdateExpense(ctx context.Context, id, actorID int64, in UpdateInput) (*Expense, error) {
	if in.Category != nil && !in.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	var updated *Expense
	err := s.store.WithinTx(ctx, func(tx Store) error {
		expense, err := tx.GetExpenseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if expense == nil {
			return ErrExpenseNotFound
		}
		if expense.PayerID != actorID {
			return ErrNotPayer
		}

		if in.Status != nil && *in.Status != expense.Status {
			trigger, ok := triggerFor(*in.Status)
			if !ok {
				return apperr.Wrap(apperr.KindConflict,
					fmt.Sprintf("status cannot be set to %s directly", *in.Status), ErrInvalidTransition)
			}
			next, err := Transition(expense.Status, trigger)
			if err != nil {
				return err
			}
			expense.Status = next
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperr.Validation("title cannot be empty")
			}
			expense.Title = title
		}
		if in.Description != nil {
			expense.Description = in.Description
		}
		if in.Category != nil {
			expense.Category = *in.Category
		}
		if in.ExpenseDate != nil {
			expense.ExpenseDate = in.ExpenseDate.UTC()
		}
		if in.ReceiptURL != nil {
			expense.ReceiptURL = in.ReceiptURL
		}
		expense.UpdatedAt = s.now().UTC()

		if err := tx.UpdateExpense(ctx, expense); err != nil {
			return err
		}
		updated = expense
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.TripID)
	return updated, nil
}

// DeleteExpense deletes an expense if no other member has paid their split
func (s *Service) DeleteExpense(ctx context.Context, id, actorID int64) error {
	var tripID int64
	err := s.store.WithinTx(ctx, func(tx Store) error {
		expense, err := tx.GetExpenseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if expense == nil {
			return ErrExpenseNotFound
		}
		if expense.PayerID != actorID {
			return ErrNotPayer
		}

		splits, err := tx.ListSplits(ctx, id)
		if err != nil {
			return err
		}
		for _, sp := range splits {
			if sp.IsPaid && sp.UserID != expense.PayerID {
				return ErrCannotDeleteExpense
			}
		}

		tripID = expense.TripID
		return tx.DeleteExpense(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, tripID)
	return nil
}

// SplitUpdate is one member's new share of an expense
type SplitUpdate struct {
	UserID int64
	Amount money.Amount
	Notes  *string
}

// UpdateSplits replaces an expense's splits with explicit amounts that
// must sum to the expense amount. The expense stops being an equal split.
func (s *Service) UpdateSplits(ctx context.Context, id, actorID int64, updates []SplitUpdate) ([]*Split, error) {
	inputs := make([]split.Input, len(updates))
	notes := make(map[int64]*string, len(updates))
	for i, u := range updates {
		amount := u.Amount
		inputs[i] = split.Input{UserID: u.UserID, Amount: &amount}
		notes[u.UserID] = u.Notes
	}

	strategy, err := s.splitFactory.Create(split.ModeManual)
	if err != nil {
		return nil, err
	}

	var (
		tripID int64
		splits []*Split
	)
	err = s.store.WithinTx(ctx, func(tx Store) error {
		expense, err := tx.GetExpenseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if expense == nil {
			return ErrExpenseNotFound
		}
		if expense.PayerID != actorID {
			return ErrNotPayer
		}
		if expense.Status != StatusPending {
			return ErrExpenseClosed
		}

		existing, err := tx.ListSplits(ctx, id)
		if err != nil {
			return err
		}
		for _, sp := range existing {
			if sp.IsPaid && sp.UserID != expense.PayerID {
				return ErrSplitsAlreadyPaid
			}
		}

		shares, err := strategy.Calculate(expense.Amount, expense.PayerID, inputs)
		if err != nil {
			return err
		}
		tripMembers, err := s.trips.MemberIDs(ctx, expense.TripID)
		if err != nil {
			return err
		}
		if err := requireTripMembers(tripMembers, shares); err != nil {
			return err
		}

		now := s.now().UTC()
		members, rows := buildRows(shares, now, notes)
		if err := tx.ReplaceSplits(ctx, id, members, rows); err != nil {
			return err
		}

		expense.SplitEqually = false
		expense.UpdatedAt = now
		if err := tx.UpdateExpense(ctx, expense); err != nil {
			return err
		}

		tripID = expense.TripID
		splits = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tripID)
	return splits, nil
}

// MarkSplitPaid records that userID paid their share of an expense
// directly. It reports false when the split was already paid. Clearing the
// last unpaid split approves the expense.
func (s *Service) MarkSplitPaid(ctx context.Context, expenseID, userID, actorID int64) (bool, error) {
	var (
		changed bool
		expense *Expense
	)
	err := s.store.WithinTx(ctx, func(tx Store) error {
		changed = false
		e, err := tx.GetExpenseForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrExpenseNotFound
		}
		if actorID != userID {
			return ErrNotSplitOwner
		}

		sp, err := tx.GetSplit(ctx, expenseID, userID)
		if err != nil {
			return err
		}
		if sp == nil {
			return ErrSplitNotFound
		}
		if sp.IsPaid {
			expense = e
			return nil
		}
		if e.Status == StatusRejected {
			return ErrExpenseRejected
		}

		now := s.now().UTC()
		changed, err = tx.MarkSplitPaid(ctx, expenseID, userID, now)
		if err != nil {
			return err
		}

		unpaid, err := tx.CountUnpaidSplits(ctx, expenseID)
		if err != nil {
			return err
		}
		if unpaid == 0 && CanTransition(e.Status, TriggerAllSplitsPaid) {
			next, _ := Transition(e.Status, TriggerAllSplitsPaid)
			if _, err := tx.UpdateStatus(ctx, expenseID, e.Status, next, now); err != nil {
				return err
			}
			e.Status = next
			e.UpdatedAt = now
		}
		expense = e
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.invalidate(ctx, expense.TripID)
		if s.notifier != nil && expense.PayerID != userID {
			if err := s.notifier.NotifySplitPaid(ctx, expense.PayerID, expense, userID); err != nil {
				slog.Warn("expense: notify split paid", "expense_id", expense.ID, "user_id", userID, "error", err)
			}
		}
	}
	return changed, nil
}

func (s *Service) currency(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		code = s.defaultCurrency
	}
	normalized, err := money.NormalizeCurrency(code)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, fmt.Sprintf("unknown currency code %q", code), ErrInvalidCurrency)
	}
	return normalized, nil
}

func (s *Service) invalidate(ctx context.Context, tripID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tripID); err != nil {
		slog.Warn("expense: invalidate trip cache", "trip_id", tripID, "error", err)
	}
}

func requireTripMembers(tripMembers []int64, shares []split.Share) error {
	for _, sh := range shares {
		if !trip.Contains(tripMembers, sh.UserID) {
			return apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("user %d is not a member of this trip", sh.UserID), ErrNotTripMember)
		}
	}
	return nil
}

// buildRows turns calculated shares into member and split rows. Paid
// shares (the payer's) are stamped with now.
func buildRows(shares []split.Share, now time.Time, notes map[int64]*string) ([]*Member, []*Split) {
	members := make([]*Member, len(shares))
	splits := make([]*Split, len(shares))
	for i, sh := range shares {
		members[i] = &Member{UserID: sh.UserID, Included: true}
		sp := &Split{
			UserID: sh.UserID,
			Amount: sh.Amount,
			IsPaid: sh.IsPaid,
			Notes:  notes[sh.UserID],
		}
		if sh.IsPaid {
			paidAt := now
			sp.PaidAt = &paidAt
		}
		splits[i] = sp
	}
	return members, splits
}
