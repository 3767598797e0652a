package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Common errors
var (
	ErrSettlementNotFound = apperr.NotFound("settlement not found")
	ErrNotParty           = apperr.Forbidden("only the sender or the recipient can record a settlement")
	ErrNotRecipient       = apperr.Forbidden("only the recipient can confirm a settlement")
	ErrAlreadyConfirmed   = apperr.Conflict("settlement is already confirmed")
	ErrCannotSettleSelf   = apperr.Validation("cannot create a settlement with yourself")
	ErrNonPositiveAmount  = apperr.Validation("settlement amount must be positive")
	ErrPartyNotMember     = apperr.Validation("both parties must be members of the trip")
	ErrInvalidCurrency    = apperr.Validation("unknown currency code")
)

// Service handles settlement planning, recording and confirmation
type Service struct {
	store           Store
	trips           *trip.Service
	balances        *balance.Service
	notifier        Notifier
	cache           Invalidator
	metrics         Metrics
	now             func() time.Time
	defaultCurrency string
	algorithm       Algorithm
}

// NewService creates a new settlement service
func NewService(store Store, trips *trip.Service, balances *balance.Service, opts ...Option) *Service {
	s := &Service{
		store:           store,
		trips:           trips,
		balances:        balances,
		now:             time.Now,
		defaultCurrency: "INR",
		algorithm:       AlgorithmPairwise,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultAlgorithm returns the planner used when a caller names none
func (s *Service) DefaultAlgorithm() Algorithm {
	return s.algorithm
}

// DefaultCurrency returns the currency tag used when none is given
func (s *Service) DefaultCurrency() string {
	return s.defaultCurrency
}

// CreateInput describes a transfer to record
type CreateInput struct {
	TripID         int64
	ActorID        int64
	FromUserID     int64
	ToUserID       int64
	Amount         money.Amount
	Currency       string
	Notes          *string
	SettlementDate *time.Time
}

// CreateSettlement records an unconfirmed transfer between two trip members
func (s *Service) CreateSettlement(ctx context.Context, in CreateInput) (*Settlement, error) {
	members, err := s.trips.RequireMember(ctx, in.TripID, in.ActorID)
	if err != nil {
		return nil, err
	}
	if in.ActorID != in.FromUserID && in.ActorID != in.ToUserID {
		return nil, ErrNotParty
	}
	if in.FromUserID == in.ToUserID {
		return nil, ErrCannotSettleSelf
	}
	if !in.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if !trip.Contains(members, in.FromUserID) || !trip.Contains(members, in.ToUserID) {
		return nil, ErrPartyNotMember
	}

	code := in.Currency
	if strings.TrimSpace(code) == "" {
		code = s.defaultCurrency
	}
	currency, err := money.NormalizeCurrency(code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("unknown currency code %q", code), ErrInvalidCurrency)
	}

	date := s.now().UTC()
	if in.SettlementDate != nil {
		date = in.SettlementDate.UTC()
	}

	st := &Settlement{
		TripID:         in.TripID,
		FromUserID:     in.FromUserID,
		ToUserID:       in.ToUserID,
		Amount:         in.Amount,
		Currency:       currency,
		Notes:          in.Notes,
		SettlementDate: date,
		CreatedBy:      in.ActorID,
	}
	if err := s.store.CreateSettlement(ctx, st); err != nil {
		return nil, err
	}

	s.invalidate(ctx, st.TripID)
	if s.notifier != nil {
		recipient := st.ToUserID
		if in.ActorID == st.ToUserID {
			recipient = st.FromUserID
		}
		if err := s.notifier.NotifySettlementCreated(ctx, recipient, st); err != nil {
			slog.Warn("settlement: notify created", "settlement_id", st.ID, "user_id", recipient, "error", err)
		}
	}

	slog.Info("settlement recorded",
		"settlement_id", st.ID,
		"trip_id", st.TripID,
		"from", st.FromUserID,
		"to", st.ToUserID,
		"amount", st.Amount.String(),
	)
	return st, nil
}

// GetSettlement retrieves a settlement visible to a trip member
func (s *Service) GetSettlement(ctx context.Context, id, actorID int64) (*Settlement, error) {
	st, err := s.store.GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrSettlementNotFound
	}
	if _, err := s.trips.RequireMember(ctx, st.TripID, actorID); err != nil {
		return nil, err
	}
	return st, nil
}

// ListTripSettlements lists a trip's recorded settlements, newest first
func (s *Service) ListTripSettlements(ctx context.Context, tripID, actorID int64, confirmed *bool) ([]*Settlement, error) {
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListTripSettlements(ctx, tripID, confirmed)
}

// Plan proposes the transfers that would clear a trip's debts
func (s *Service) Plan(ctx context.Context, tripID, actorID int64, alg Algorithm) ([]Candidate, error) {
	if _, err := s.trips.RequireMember(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.PlanTrip(ctx, tripID, alg)
}

// PlanTrip is Plan without the membership check, for operators
func (s *Service) PlanTrip(ctx context.Context, tripID int64, alg Algorithm) ([]Candidate, error) {
	if alg == "" {
		alg = s.algorithm
	}
	ledger, err := s.balances.LoadLedger(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return BuildPlan(alg, ledger, s.defaultCurrency), nil
}

// ConfirmSettlement confirms a settlement on behalf of its recipient. In
// the same transaction it marks paid every unpaid split the sender owes on
// expenses the recipient paid in the trip, and settles the expenses that
// leaves fully paid. Nothing is applied unless all of it commits.
func (s *Service) ConfirmSettlement(ctx context.Context, id, actorID int64) (bool, error) {
	var (
		confirmed *Settlement
		touched   []int64
		settled   int
	)
	err := s.store.WithinTx(ctx, func(tx Store) error {
		st, err := tx.GetSettlementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return ErrSettlementNotFound
		}
		if st.ToUserID != actorID {
			return ErrNotRecipient
		}
		if st.Confirmed {
			return ErrAlreadyConfirmed
		}

		now := s.now().UTC()
		ok, err := tx.ConfirmSettlement(ctx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyConfirmed
		}

		touched, err = tx.MarkSplitsPaidBetween(ctx, st.TripID, st.FromUserID, st.ToUserID, now)
		if err != nil {
			return err
		}
		settled, err = tx.SettleExpenses(ctx, touched, now)
		if err != nil {
			return err
		}

		st.Confirmed = true
		st.ConfirmedAt = &now
		confirmed = st
		return nil
	})
	if err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.SettlementConfirmed(len(touched))
	}
	s.invalidate(ctx, confirmed.TripID)
	if s.notifier != nil {
		if err := s.notifier.NotifySettlementConfirmed(ctx, confirmed.FromUserID, confirmed, len(touched)); err != nil {
			slog.Warn("settlement: notify confirmed", "settlement_id", confirmed.ID, "user_id", confirmed.FromUserID, "error", err)
		}
	}

	slog.Info("settlement confirmed",
		"settlement_id", confirmed.ID,
		"trip_id", confirmed.TripID,
		"splits_paid", len(touched),
		"expenses_settled", settled,
	)
	return true, nil
}

func (s *Service) invalidate(ctx context.Context, tripID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tripID); err != nil {
		slog.Warn("settlement: invalidate trip cache", "trip_id", tripID, "error", err)
	}
}
