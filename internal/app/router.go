package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/tripsplit/docs"
	"github.com/fkhayef/tripsplit/internal/balance"
	"github.com/fkhayef/tripsplit/internal/config"
	"github.com/fkhayef/tripsplit/internal/expense"
	"github.com/fkhayef/tripsplit/internal/notification"
	"github.com/fkhayef/tripsplit/internal/observability"
	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/internal/summary"
	"github.com/fkhayef/tripsplit/internal/trip"
	"github.com/fkhayef/tripsplit/pkg/middleware"
	"github.com/fkhayef/tripsplit/pkg/response"
)

// NewRouter builds the HTTP handler serving the API. metrics may be nil.
func NewRouter(cfg *config.Config, stores *Stores, svcs *Services, metrics *observability.Metrics) http.Handler {
	tripHandler := trip.NewHandler(svcs.Trips)
	expenseHandler := expense.NewHandler(svcs.Expenses)
	balanceHandler := balance.NewHandler(svcs.Balances)
	settlementHandler := settlement.NewHandler(svcs.Settlements)
	summaryHandler := summary.NewHandler(svcs.Summaries)
	notificationHandler := notification.NewHandler(svcs.Notifications)

	r := chi.NewRouter()
	r.Use(MiddlewareStack(cfg, metrics)...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if db := stores.DB(); db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
				return
			}
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}
	if !cfg.IsProduction() {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorMiddleware)

		r.Route("/trips/{tripId}", func(r chi.Router) {
			tripHandler.MountTripRoutes(r)
			expenseHandler.MountTripRoutes(r)
			balanceHandler.MountTripRoutes(r)
			settlementHandler.MountTripRoutes(r)
			summaryHandler.MountTripRoutes(r)
		})
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	return r
}
