// Package memstore keeps trips, expenses, settlements and notifications in
// process memory. It implements the same store ports as the Postgres
// repositories, including all-or-nothing units of work, and backs the
// service tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/notification"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/trip"
)

// Store is an in-memory store. The zero value is not usable; call New.
//
// Expenses and settlements share one lock because a settlement
// confirmation writes to both. Trips and notifications have their own
// locks so that reading membership inside an expense unit of work does
// not wait on it.
type Store struct {
	mu     sync.Mutex
	ledger ledger

	tripMu  sync.RWMutex
	trips   map[int64]trip.Trip
	members map[int64][]trip.Member
	tripSeq int64
	membSeq int64

	notifMu       sync.Mutex
	notifications []notification.Notification
	notifSeq      int64

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		ledger:  newLedger(),
		trips:   make(map[int64]trip.Trip),
		members: make(map[int64][]trip.Member),
		now:     time.Now,
	}
}

// Expenses returns the expense store port.
func (s *Store) Expenses() expense.Store {
	return &expenseStore{s: s}
}

// Settlements returns the settlement store port.
func (s *Store) Settlements() settlement.Store {
	return &settlementStore{s: s}
}

// Trips returns read access to trips and membership.
func (s *Store) Trips() trip.Reader {
	return tripReader{s: s}
}

// TripWriter returns operator access for creating trips and members.
func (s *Store) TripWriter() trip.Writer {
	return tripWriter{s: s}
}

// Notifications returns the notification store port.
func (s *Store) Notifications() notification.Store {
	return notificationStore{s: s}
}

// withinTx runs fn holding the ledger lock. Changes made by fn are undone
// when it fails, panics, or ctx ends before it returns.
func (s *Store) withinTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := s.ledger.clone()
	committed := false
	defer func() {
		if !committed {
			s.ledger = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ledger holds every row guarded by Store.mu. Rows are stored by value so
// callers never share memory with the store.
type ledger struct {
	expenses    map[int64]expense.Expense
	expMembers  map[int64][]expense.Member
	splits      map[int64][]expense.Split
	settlements map[int64]settlement.Settlement

	expenseSeq    int64
	memberSeq     int64
	splitSeq      int64
	settlementSeq int64
}

func newLedger() ledger {
	return ledger{
		expenses:    make(map[int64]expense.Expense),
		expMembers:  make(map[int64][]expense.Member),
		splits:      make(map[int64][]expense.Split),
		settlements: make(map[int64]settlement.Settlement),
	}
}

func (l ledger) clone() ledger {
	out := l
	out.expenses = make(map[int64]expense.Expense, len(l.expenses))
	for k, v := range l.expenses {
		out.expenses[k] = v
	}
	out.expMembers = make(map[int64][]expense.Member, len(l.expMembers))
	for k, v := range l.expMembers {
		out.expMembers[k] = append([]expense.Member(nil), v...)
	}
	out.splits = make(map[int64][]expense.Split, len(l.splits))
	for k, v := range l.splits {
		out.splits[k] = append([]expense.Split(nil), v...)
	}
	out.settlements = make(map[int64]settlement.Settlement, len(l.settlements))
	for k, v := range l.settlements {
		out.settlements[k] = v
	}
	return out
}
