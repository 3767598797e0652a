package expense

import (
	"context"
	"time"

	"github.com/fkhayef/tripsplit/pkg/money"
)

// Notifier tells members about expense activity. Failures are logged by
// the service and never undo the committed change.
type Notifier interface {
	NotifyExpenseAdded(ctx context.Context, recipientID int64, e *Expense, share money.Amount) error
	NotifySplitPaid(ctx context.Context, recipientID int64, e *Expense, borrowerID int64) error
}

// Invalidator drops cached views of a trip after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, tripID int64) error
}

// Metrics records expense activity.
type Metrics interface {
	ExpenseCreated(mode string)
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
