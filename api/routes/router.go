package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatepasshq/gatepass-backend/api/controllers"
	webhookcontrollers "github.com/gatepasshq/gatepass-backend/api/controllers/webhooks"
	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/internal/checkin"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/registration"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/internal/verification"
	stripewebhook "github.com/gatepasshq/gatepass-backend/internal/webhooks/stripe"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/redis"
	"github.com/gatepasshq/gatepass-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	stripeClient *stripe.Client,
	registrationService *registration.Service,
	verificationService *verification.Service,
	ticketService *tickets.Service,
	eventService *events.Service,
	checkInService *checkin.Service,
	stripeWebhookService *stripewebhook.Service,
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

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, logg))

		// Event pages are public so unauthenticated visitors can browse tiers.
		r.Get("/events", controllers.EventList(eventService, logg))
		r.Get("/events/{eventId}", controllers.EventView(eventService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))

			r.Post("/registrations", controllers.Register(registrationService, logg))
			r.Post("/payments/verify", controllers.VerifyPayment(verificationService, logg))
			r.Post("/checkin", controllers.CheckIn(checkInService, logg))
			r.Get("/tickets", controllers.MyTickets(ticketService, logg))
		})
	})

	return r
}
