package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/estateflow/server/internal/domain/estate"
	"github.com/estateflow/server/internal/domain/payment"
	"github.com/estateflow/server/internal/domain/transaction"

	// Inbound adapters
	ginadapter "github.com/estateflow/server/internal/adapter/inbound/gin"

	// Outbound adapters
	"github.com/estateflow/server/internal/adapter/outbound/artifact"
	"github.com/estateflow/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/estateflow/server/internal/adapter/outbound/redis"
	"github.com/estateflow/server/internal/adapter/outbound/stripepay"
	"github.com/estateflow/server/internal/port/outbound"

	// Infrastructure
	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/infra/events"
	sharedcache "github.com/estateflow/server/internal/shared/cache"
	"github.com/estateflow/server/internal/shared/database"
	"github.com/estateflow/server/internal/shared/logger"
	"github.com/estateflow/server/internal/utils/metrics"
	"github.com/estateflow/server/internal/utils/middleware"
)

// App is the backend system of record.
type App struct {
	config   *config.Config
	db       *gorm.DB
	redis    goredis.UniversalClient
	router   *gin.Engine
	logger   *zap.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	// Event infrastructure
	eventBus *events.Bus

	// Domain services
	estateDomain      estate.EstateDomain
	paymentDomain     payment.PaymentDomain
	transactionDomain transaction.TransactionDomain
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:   cfg,
		logger:   zapLog,
		metrics:  metrics.New("estateflow"),
		gatherer: prometheus.DefaultGatherer,
	}

	if err := app.initInfrastructure(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	if err := app.initDomains(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init domains: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initInfrastructure initializes database and cache connections.
func (a *App) initInfrastructure() error {
	db, err := database.New(&a.config.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.db = db

	if err := database.InstrumentQueries(db, a.metrics); err != nil {
		return fmt.Errorf("instrument database: %w", err)
	}

	if a.config.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	// Redis is optional: without it there is no status cache, rate limiting or idempotency.
	if a.config.Redis.Enabled && a.config.Redis.Address != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisClient, err := sharedcache.NewRedisClient(ctx, &a.config.Redis)
		if err != nil {
			a.logger.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		} else {
			a.redis = redisClient
		}
	}

	return nil
}

// initDomains initializes all domain services with their adapters.
func (a *App) initDomains() error {
	a.eventBus = events.NewBus(a.logger)

	estateDB := postgres.NewEstateAdapter(a.db)
	a.estateDomain = estate.NewEstateDomain(estateDB, a.logger)
	a.eventBus.Register(events.NewHandlerFunc(estate.PaymentEventTypes, a.estateDomain.HandlePaymentEvent))

	if err := a.initPaymentDomain(estateDB); err != nil {
		return fmt.Errorf("init payment domain: %w", err)
	}

	a.transactionDomain = transaction.NewTransactionDomain(
		estateDB,
		postgres.NewTransactionAdapter(a.db),
		postgres.NewCancellationAdapter(a.db),
		artifact.NewGenerator(),
		a.eventBus,
		a.metrics,
		a.logger,
	)

	return nil
}

// initPaymentDomain initializes the payment domain with its adapters.
func (a *App) initPaymentDomain(estateDB outbound.EstateDatabasePort) error {
	amount, err := a.config.Pricing.AmountMinor()
	if err != nil {
		return err
	}

	var statusCache outbound.PaymentStatusCachePort
	if a.redis != nil {
		statusCache = redisadapter.NewPaymentStatusCache(a.redis, a.config.Redis.StatusTTL, a.config.Redis.TerminalStatusTTL)
	}

	if a.config.Stripe.SecretKey == "" {
		a.logger.Warn("stripe secret key is not set, payment calls will fail")
	}

	a.paymentDomain = payment.NewPaymentDomain(
		estateDB,
		stripepay.NewProvider(&a.config.Stripe, a.logger),
		postgres.NewWebhookEventAdapter(a.db),
		statusCache,
		a.eventBus,
		payment.Pricing{Amount: amount, Currency: a.config.Pricing.Currency},
		a.metrics,
		a.logger,
	)
	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID(a.logger))
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(a.config.Server.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))

	return r
}

// guards builds the per-route middleware chains.
func (a *App) guards() ginadapter.Guards {
	var g ginadapter.Guards

	if a.config.RateLimit.Enabled && a.redis != nil {
		limiter := redisadapter.NewRateLimiter(a.redis)
		g.Mutate = append(g.Mutate, middleware.RateLimit(limiter, middleware.RateLimitConfig{
			Limit:  a.config.RateLimit.MutateLimit,
			Window: a.config.RateLimit.Window,
		}, a.logger))
		g.Status = append(g.Status, middleware.RateLimit(limiter, middleware.RateLimitConfig{
			Limit:  a.config.RateLimit.StatusLimit,
			Window: a.config.RateLimit.Window,
		}, a.logger))
	}

	g.Mutate = append(g.Mutate, middleware.Idempotency(a.redis, a.config.Redis.IdempotencyTTL, a.logger))
	return g
}

// registerRoutes registers all HTTP routes.
func (a *App) registerRoutes() {
	api := a.router.Group("")
	guards := a.guards()

	ginadapter.RegisterPaymentRoutes(api, ginadapter.NewPaymentAdapter(a.paymentDomain), guards)
	ginadapter.RegisterWebhookRoutes(api, ginadapter.NewWebhookAdapter(a.paymentDomain))
	ginadapter.RegisterEstateRoutes(api, ginadapter.NewEstateAdapter(a.estateDomain), guards)
	ginadapter.RegisterTransactionRoutes(api, ginadapter.NewTransactionAdapter(a.transactionDomain), guards)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}

	if a.db != nil {
		_ = database.Close(a.db)
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
