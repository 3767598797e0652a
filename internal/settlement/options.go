package settlement

import (
	"context"
	"time"
)

// Notifier tells the other party about settlement activity. Failures are
// logged and never undo the committed change.
type Notifier interface {
	NotifySettlementCreated(ctx context.Context, recipientID int64, s *Settlement) error
	NotifySettlementConfirmed(ctx context.Context, recipientID int64, s *Settlement, splitsPaid int) error
}

// Invalidator drops cached views of a trip after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, tripID int64) error
}

// Metrics records confirmations.
type Metrics interface {
	SettlementConfirmed(splitsCleared int)
}

// Option configures a Service
type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithInvalidator(i Invalidator) Option {
	return func(s *Service) { s.cache = i }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultCurrency sets the currency used when a request omits one.
func WithDefaultCurrency(code string) Option {
	return func(s *Service) { s.defaultCurrency = code }
}

// WithAlgorithm sets the default planner.
func WithAlgorithm(alg Algorithm) Option {
	return func(s *Service) { s.algorithm = alg }
}
