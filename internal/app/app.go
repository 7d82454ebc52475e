package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"powerpay/internal/auth"
	"powerpay/internal/clients"
	"powerpay/internal/config"
	"powerpay/internal/db"
	"powerpay/internal/energy"
	httpserver "powerpay/internal/http"
	"powerpay/internal/http/handlers"
	"powerpay/internal/http/middleware"
	"powerpay/internal/metrics"
	"powerpay/internal/payments"
	"powerpay/internal/redisstore"
	"powerpay/internal/repository"
	"powerpay/internal/service"
)

// App wires the powerpay dependency graph.
type App struct {
	server  *httpserver.Server
	tracker *payments.Tracker
	cfg     *config.Config
	pg      *sql.DB
	logger  *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pg, err := db.NewPostgres(cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	var cache *redisstore.TelemetryCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			pg.Close()
			return nil, err
		}
		cache = redisstore.NewTelemetryCache(redisClient, cfg.CacheTTL())
	}

	gateway := clients.NewAppliaPay(
		cfg.Gateway.BaseURL,
		cfg.Gateway.Username,
		cfg.Gateway.Password,
		clients.NewDefaultHTTPClient(cfg.GatewayTimeout()),
	)

	aggregator := energy.New(energy.Config{
		GapThreshold:   cfg.GapThreshold(),
		SentinelDevice: cfg.Energy.SentinelDevice,
		EmissionFactor: cfg.Energy.EmissionFactor,
		TariffRate:     cfg.Energy.TariffRate,
	})

	m := metrics.New()
	tracker := payments.NewTracker()

	userRepo := repository.NewUserRepository(pg)
	paymentRepo := repository.NewPaymentRepository(pg)

	hasher := auth.NewBcryptHasher(0)
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWTTTL())

	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	dashboardService := service.NewDashboardService(gateway, cache, aggregator, m, cfg.Dashboard.DefaultRangeHours, logger)
	devicesService := service.NewDevicesService(gateway, aggregator.Config().SentinelDevice, logger)
	transactionsService := service.NewTransactionsService(gateway)
	paygoService := service.NewPaygoService(gateway)
	paymentService := service.NewPaymentService(gateway, tracker, paymentRepo, m, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:         handlers.NewAuthHandlers(authService, logger),
		DashboardHandlers:    handlers.NewDashboardHandlers(dashboardService, logger),
		DevicesHandlers:      handlers.NewDevicesHandlers(devicesService, logger),
		TransactionsHandlers: handlers.NewTransactionsHandlers(transactionsService, logger),
		PaygoHandlers:        handlers.NewPaygoHandlers(paygoService, logger),
		PaymentsHandlers:     handlers.NewPaymentsHandlers(paymentService, logger),
		PaymentWSHandler:     handlers.NewPaymentWSHandler(paymentService, logger),
		HealthHandler:        handlers.NewHealthHandler(),
		MetricsHandler:       m.Handler(),
	}, middleware.AuthMiddleware(tokens))

	server := httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	return &App{
		server:  server,
		tracker: tracker,
		cfg:     cfg,
		pg:      pg,
		logger:  logger,
	}, nil
}

// Run serves HTTP traffic and sweeps stale payment requests until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.tracker.RunJanitor(ctx, a.cfg.PaymentJanitorInterval(), a.cfg.PaymentEvictAfter())
	return a.server.Run(ctx)
}

// Close releases held resources.
func (a *App) Close() {
	if err := a.pg.Close(); err != nil {
		a.logger.Warn("closing postgres failed", zap.Error(err))
	}
}
