package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/config"
	"github.com/yxshee/biteback/services/api/internal/confirmations"
	"github.com/yxshee/biteback/services/api/internal/events"
	"github.com/yxshee/biteback/services/api/internal/logger"
	"github.com/yxshee/biteback/services/api/internal/notify"
	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
	"github.com/yxshee/biteback/services/api/internal/rewards"
)

const (
	requestTimeout  = 30 * time.Second
	streamHeartbeat = 25 * time.Second
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Dependencies are the services the HTTP layer drives. AuditLogs,
// Confirmations and Events fall back to defaults when nil.
type Dependencies struct {
	Auth          *auth.Service
	Tokens        *auth.TokenManager
	Restaurants   *restaurants.Service
	Reservations  *reservations.Service
	Reviews       *reviews.Service
	Rewards       *rewards.Service
	AuditLogs     *auditlog.Service
	Confirmations *confirmations.Service
	Notifications *notify.Registry
	Events        events.Publisher
}

type api struct {
	authService    *auth.Service
	tokenManager   *auth.TokenManager
	restaurants    *restaurants.Service
	reservations   *reservations.Service
	reviews        *reviews.Service
	rewards        *rewards.Service
	auditLogs      *auditlog.Service
	confirmations  *confirmations.Service
	notifications  *notify.Registry
	events         events.Publisher
	gate           *access.Gate
	identities     *access.IdentityResolver
	pointsPerVisit int64
	heartbeat      time.Duration
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Service:   "biteback-api",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates the chi router with baseline middleware and routes.
func New(cfg config.Config, deps Dependencies) (http.Handler, error) {
	if deps.Auth == nil || deps.Tokens == nil || deps.Restaurants == nil || deps.Reservations == nil ||
		deps.Reviews == nil || deps.Rewards == nil || deps.Notifications == nil {
		return nil, errors.New("router: missing service dependency")
	}
	if deps.AuditLogs == nil {
		deps.AuditLogs = auditlog.NewService()
	}
	if deps.Confirmations == nil {
		deps.Confirmations = confirmations.NewService(confirmations.Config{})
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}

	apiHandlers := &api{
		authService:    deps.Auth,
		tokenManager:   deps.Tokens,
		restaurants:    deps.Restaurants,
		reservations:   deps.Reservations,
		reviews:        deps.Reviews,
		rewards:        deps.Rewards,
		auditLogs:      deps.AuditLogs,
		confirmations:  deps.Confirmations,
		notifications:  deps.Notifications,
		events:         deps.Events,
		gate:           access.NewGate(deps.Reservations, deps.Restaurants, deps.Reviews),
		identities:     access.NewIdentityResolver(deps.Tokens, deps.Auth),
		pointsPerVisit: cfg.RewardPointsPerVisit,
		heartbeat:      streamHeartbeat,
	}

	limiter := newRequestRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute, "/health", "/api/v1/health")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(cfg.Environment == "production"))
	r.Use(newCORSPolicy(cfg.AllowedOrigins).middleware)
	r.Use(limiter.middleware)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(v1 chi.Router) {
		// Long-lived stream, so it stays outside the request timeout.
		v1.With(apiHandlers.authenticateStream).Get("/notifications/stream", apiHandlers.handleNotificationStream)

		v1.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(requestTimeout))
			apiHandlers.routes(timed)
		})
	})

	return r, nil
}

func (a *api) routes(v1 chi.Router) {
	v1.Get("/health", healthHandler)
	v1.Get("/rewards", a.handleRewardsList)
	v1.Get("/restaurants/{restaurantID}/reviews", a.handleRestaurantReviews)

	v1.Group(func(public chi.Router) {
		public.Use(a.identities.Optional)
		public.Get("/restaurants", a.handleRestaurantsList)
		public.Get("/restaurants/{restaurantID}", a.handleRestaurantDetail)
	})

	v1.Post("/auth/register", a.handleAuthRegister)
	v1.Post("/auth/login", a.handleAuthLogin)
	v1.Post("/auth/refresh", a.handleAuthRefresh)

	v1.Group(func(private chi.Router) {
		private.Use(a.authenticate)
		private.Get("/auth/me", a.handleAuthMe)
		private.Post("/auth/logout", a.handleAuthLogout)

		private.Get("/reservations", a.handleReservationsMine)
		private.Get("/rewards/balance", a.handleRewardsBalance)

		private.With(a.requirePermission(auth.PermissionManageRestaurants)).
			Post("/restaurants", a.handleRestaurantCreate)

		private.Group(func(staff chi.Router) {
			staff.Use(a.gate.RestaurantByStaff("restaurantID"))
			staff.Patch("/restaurants/{restaurantID}", a.handleRestaurantUpdate)
			staff.Delete("/restaurants/{restaurantID}", a.handleRestaurantDelete)
			staff.Get("/restaurants/{restaurantID}/reservations", a.handleRestaurantReservations)
		})

		private.With(a.gate.ReservationByStaff("reservationID")).
			Patch("/staff/reservations/{reservationID}/status", a.handleStaffReservationStatus)

		private.With(a.requirePermission(auth.PermissionBookReservations)).
			Post("/reservations", a.handleReservationCreate)

		private.Group(func(customer chi.Router) {
			customer.Use(a.gate.ReservationByCustomer("reservationID"))
			customer.Get("/reservations/{reservationID}", a.handleReservationDetail)
			customer.Patch("/reservations/{reservationID}", a.handleReservationReschedule)
			customer.Delete("/reservations/{reservationID}", a.handleReservationCancel)
			customer.Get("/reservations/{reservationID}/confirmation", a.handleReservationConfirmation)
		})

		private.With(a.requirePermission(auth.PermissionWriteReviews)).
			Post("/restaurants/{restaurantID}/reviews", a.handleReviewCreate)

		private.Group(func(author chi.Router) {
			author.Use(a.gate.ReviewByCustomer("reviewID"))
			author.Patch("/reviews/{reviewID}", a.handleReviewUpdate)
			author.Delete("/reviews/{reviewID}", a.handleReviewDelete)
		})

		private.With(a.requirePermission(auth.PermissionManageRewards)).
			Post("/rewards", a.handleRewardCreate)
		private.With(a.requirePermission(auth.PermissionRedeemRewards)).
			Post("/rewards/{rewardID}/redeem", a.handleRewardRedeem)

		private.With(a.requirePermission(auth.PermissionViewAuditLogs)).
			Get("/owner/audit-logs", a.handleOwnerAuditLogsList)
	})
}
