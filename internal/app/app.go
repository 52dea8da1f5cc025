package app

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yxshee/biteback/services/api/internal/auditlog"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/config"
	"github.com/yxshee/biteback/services/api/internal/confirmations"
	"github.com/yxshee/biteback/services/api/internal/events"
	"github.com/yxshee/biteback/services/api/internal/http/router"
	"github.com/yxshee/biteback/services/api/internal/jobs"
	"github.com/yxshee/biteback/services/api/internal/logger"
	"github.com/yxshee/biteback/services/api/internal/notify"
	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
	"github.com/yxshee/biteback/services/api/internal/reviews"
	"github.com/yxshee/biteback/services/api/internal/rewards"
	"github.com/yxshee/biteback/services/api/internal/storage/sqlstore"
)

// App is the wired service: HTTP handler, background cleaner and the
// resources that need closing on shutdown.
type App struct {
	Config        config.Config
	Handler       http.Handler
	Cleaner       *jobs.Cleaner
	Notifications *notify.Registry

	closers []io.Closer
}

type repositories struct {
	users        auth.Repository
	restaurants  restaurants.Repository
	reservations reservations.Repository
	reviews      reviews.Repository
	rewards      rewards.Repository
}

// New builds every service for cfg. SQL backed drivers are migrated before
// the handler is returned.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := logger.Default().WithField("component", "app")
	app := &App{Config: cfg}

	repos, err := app.openRepositories(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		_ = app.Close()
		return nil, errors.Wrap(err, "token manager")
	}

	authService := auth.NewService(repos.users, auth.BuildBootstrapRoleMap(cfg.OwnerEmails, cfg.StaffEmails))
	restaurantService := restaurants.NewService(repos.restaurants)
	reservationService := reservations.NewService(repos.reservations, restaurantService)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	app.closers = append(app.closers, publisher)
	if _, ok := publisher.(*events.KafkaPublisher); ok {
		log.WithField("topic", cfg.KafkaTopic).Info("publishing reservation events to kafka")
	}

	app.Notifications = notify.NewRegistry(logger.Default())
	handler, err := router.New(cfg, router.Dependencies{
		Auth:          authService,
		Tokens:        tokens,
		Restaurants:   restaurantService,
		Reservations:  reservationService,
		Reviews:       reviews.NewService(repos.reviews, restaurantService),
		Rewards:       rewards.NewService(repos.rewards),
		AuditLogs:     auditlog.NewService(),
		Confirmations: confirmations.NewService(confirmations.Config{}),
		Notifications: app.Notifications,
		Events:        publisher,
	})
	if err != nil {
		_ = app.Close()
		return nil, errors.Wrap(err, "router initialization")
	}

	app.Handler = handler
	app.Cleaner = jobs.NewCleaner(reservationService, authService, cfg.CleanupInterval, cfg.ReservationGracePeriod, logger.Default())
	return app, nil
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config, log *logrus.Entry) (repositories, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repositories{
			users:        auth.NewMemoryRepository(),
			restaurants:  restaurants.NewMemoryRepository(),
			reservations: reservations.NewMemoryRepository(),
			reviews:      reviews.NewMemoryRepository(),
			rewards:      rewards.NewMemoryRepository(),
		}, nil
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	a.closers = append(a.closers, store)
	log.WithField("driver", store.Driver()).Info("database ready")

	return repositories{
		users:        sqlstore.NewUserRepository(store),
		restaurants:  sqlstore.NewRestaurantRepository(store),
		reservations: sqlstore.NewReservationRepository(store),
		reviews:      sqlstore.NewReviewRepository(store),
		rewards:      sqlstore.NewRewardRepository(store),
	}, nil
}

// OpenStore connects to the configured SQL database and applies the
// schema.
func OpenStore(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return store, nil
}

// Close releases the database pool and the event writer.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
