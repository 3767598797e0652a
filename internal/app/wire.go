// Package app assembles stores, services and the HTTP router from config.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/cache"
	"github.com/fkhayef/tripsplit/internal/config"
	"github.com/fkhayef/tripsplit/internal/database"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/expense/split"
	"github.com/fkhayef/tripsplit/internal/memstore"
	"github.com/fkhayef/tripsplit/internal/notification"
	"github.com/fkhayef/tripsplit/internal/observability"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/summary"
	"github.com/fkhayef/tripsplit/internal/trip"
)

// Stores groups the persistence ports of every feature
type Stores struct {
	Trips         trip.Reader
	TripWriter    trip.Writer
	Expenses      expense.Store
	Settlements   settlement.Store
	Notifications notification.Store

	db    *sql.DB
	redis *redis.Client
	cache *cache.TripCache
}

// OpenStores connects the store selected by cfg.StoreDriver and, when a
// Redis address is configured, the trip cache. The memory driver starts
// with a demo trip so the API can be tried without a database.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		ms := memstore.New()
		demo := ms.AddTrip("Demo trip", 1, 2, 3)
		slog.Info("using in-memory store", "demo_trip_id", demo.ID)
		s.Trips = ms.Trips()
		s.TripWriter = ms.TripWriter()
		s.Expenses = ms.Expenses()
		s.Settlements = ms.Settlements()
		s.Notifications = ms.Notifications()
	default:
		db, err := database.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("connected to database")
		trips := trip.NewRepository(db)
		s.db = db
		s.Trips = trips
		s.TripWriter = trips
		s.Expenses = expense.NewRepository(db)
		s.Settlements = settlement.NewRepository(db)
		s.Notifications = notification.NewRepository(db)
	}

	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			s.Close()
			return nil, err
		}
		slog.Info("connected to redis", "addr", cfg.RedisAddr)
		s.redis = client
		s.cache = cache.New(client, cfg.CacheTTL)
	}

	return s, nil
}

// DB returns the Postgres pool, nil for the memory driver
func (s *Stores) DB() *sql.DB {
	return s.db
}

// Cache returns the trip cache; nil when Redis is not configured
func (s *Stores) Cache() *cache.TripCache {
	return s.cache
}

// Close releases the database pool and the Redis client.
func (s *Stores) Close() error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Services holds the wired feature services
type Services struct {
	Trips         *trip.Service
	Admin         *trip.Admin
	Expenses      *expense.Service
	Balances      *balance.Service
	Settlements   *settlement.Service
	Summaries     *summary.Service
	Notifications *notification.Service
}

// NewServices wires every feature service over the given stores. metrics
// may be nil.
func NewServices(cfg *config.Config, stores *Stores, metrics *observability.Metrics) (*Services, error) {
	alg, err := settlement.ParseAlgorithm(cfg.SettlementAlgorithm, settlement.AlgorithmPairwise)
	if err != nil {
		return nil, fmt.Errorf("settlement algorithm: %w", err)
	}

	tc := stores.Cache()
	trips := trip.NewService(stores.Trips)
	notifications := notification.NewService(stores.Notifications)
	balances := balance.NewService(trips, stores.Expenses, tc)

	expenseOpts := []expense.Option{
		expense.WithNotifier(notifications),
		expense.WithInvalidator(tc),
		expense.WithDefaultCurrency(cfg.DefaultCurrency),
	}
	settlementOpts := []settlement.Option{
		settlement.WithNotifier(notifications),
		settlement.WithInvalidator(tc),
		settlement.WithDefaultCurrency(cfg.DefaultCurrency),
		settlement.WithAlgorithm(alg),
	}
	if metrics != nil {
		expenseOpts = append(expenseOpts, expense.WithMetrics(metrics))
		settlementOpts = append(settlementOpts, settlement.WithMetrics(metrics))
	}

	summaries := summary.NewService(trips, balances, stores.Settlements, tc,
		summary.WithAlgorithm(alg),
		summary.WithDefaultCurrency(cfg.DefaultCurrency),
	)

	return &Services{
		Trips:         trips,
		Admin:         trip.NewAdmin(stores.Trips, stores.TripWriter),
		Expenses:      expense.NewService(stores.Expenses, trips, split.NewFactory(), expenseOpts...),
		Balances:      balances,
		Settlements:   settlement.NewService(stores.Settlements, trips, balances, settlementOpts...),
		Summaries:     summaries,
		Notifications: notifications,
	}, nil
}
