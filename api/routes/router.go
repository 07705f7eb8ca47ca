package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/momtazchem/commerce-backend/api/controllers"
	"github.com/momtazchem/commerce-backend/api/middleware"
	"github.com/momtazchem/commerce-backend/internal/review"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db"
	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	reviewService review.Service,
	walletService wallet.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Get("/healthz", controllers.HealthLive(cfg))

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/pending", controllers.ReviewsPending(reviewService, logg))
		r.Post("/{orderID}/approve", controllers.ReviewApprove(reviewService, logg))
		r.Post("/{orderID}/reject", controllers.ReviewReject(reviewService, logg))
	})

	r.Route("/api/v1/wallets", func(r chi.Router) {
		r.Get("/{customerID}", controllers.WalletBalance(walletService, logg))
		r.Post("/recharges/{requestID}/process", controllers.WalletRechargeProcess(walletService, logg))
	})

	return r
}
