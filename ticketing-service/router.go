package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eventix/ticketing/ticketing-service/activity"
	activitykafka "github.com/eventix/ticketing/ticketing-service/activity/kafka"
	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/cache/redis"
	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/imagestore"
	"github.com/eventix/ticketing/ticketing-service/imagestore/local"
	"github.com/eventix/ticketing/ticketing-service/imagestore/minio"
	"github.com/eventix/ticketing/ticketing-service/logger"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/eventix/ticketing/ticketing-service/repository/memory"
	"github.com/eventix/ticketing/ticketing-service/repository/mongostore"
	"github.com/eventix/ticketing/ticketing-service/repository/postgres"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const localUploadPrefix = "/uploads"

// Dependencies are the external resources the router is built on.
type Dependencies struct {
	Store          repository.Store
	Cache          cache.CacheRepository
	Limiter        cache.RateLimiter
	Images         imagestore.Store
	ImageURLPrefix string
	Activity       activity.Publisher
	Metrics        *metrics.Metrics
}

// buildDependencies connects to every configured backend. The returned
// cleanup closes them in reverse order.
func buildDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("failed to close dependency", zap.Error(err))
			}
		}
	}

	deps := &Dependencies{Metrics: metrics.New("ticketing")}

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, store.Close)
	deps.Store = store

	deps.Cache, deps.Limiter = cache.Noop{}, cache.Noop{}
	if cfg.Redis.Enabled {
		redisCache, err := redis.NewRedisCacheRepository(ctx, cfg.Redis.GetRedisURL(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Caching and rate limiting fall back to no-ops.
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			closers = append(closers, redisCache.Close)
			deps.Cache, deps.Limiter = redisCache, redisCache
		}
	}

	switch cfg.Upload.Backend {
	case config.UploadMinIO:
		images, err := minio.NewStore(cfg.MinIO)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize minio: %w", err)
		}
		if err := images.EnsureBucket(ctx, log); err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Images, deps.ImageURLPrefix = images, images.URLPrefix()
	default:
		images, err := local.NewStore(cfg.Upload.Dir, localUploadPrefix)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize upload dir: %w", err)
		}
		deps.Images, deps.ImageURLPrefix = images, localUploadPrefix
	}

	deps.Activity = activity.Noop{}
	if cfg.Kafka.Enabled {
		publisher := activitykafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ActivityTopic)
		closers = append(closers, publisher.Close)
		deps.Activity = publisher
	}

	return deps, cleanup, nil
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return mongostore.NewStore(&cfg.Database.Mongo, log)
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return postgres.NewStore(&cfg.Database, log)
	}
}

// NewRouter wires services and handlers onto a gin engine.
func NewRouter(cfg *config.Config, deps *Dependencies, log *zap.Logger) *gin.Engine {
	authz := service.OwnerOrAdmin{}
	bookingService := service.NewBookingService(deps.Store, authz, log)
	cascade := service.NewCascadeCoordinator(deps.Store, bookingService, log)
	userService := service.NewUserService(deps.Store, cascade, log)
	eventService := service.NewEventService(deps.Store, cascade, log)
	categoryService := service.NewCategoryService(deps.Store, eventService, cascade, log)

	httpLog := logger.WithComponent(log, "http")
	jwtService := NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	recorder := &activityRecorder{publisher: deps.Activity, metrics: deps.Metrics, logger: httpLog}
	uploads := &imageUploader{
		store:     deps.Images,
		urlPrefix: deps.ImageURLPrefix,
		maxSize:   cfg.Upload.MaxSizeBytes(),
		logger:    httpLog,
	}

	healthHandler := NewHealthHandler(deps.Store, deps.Cache)
	authHandler := NewAuthHandler(userService, jwtService, cfg.JWT, httpLog)
	userHandler := NewUserHandler(userService, recorder, deps.Metrics, httpLog)
	eventHandler := NewEventHandler(eventService, deps.Cache, cfg.Redis.CacheTTL(), uploads, recorder, deps.Metrics, httpLog)
	categoryHandler := NewCategoryHandler(categoryService, deps.Cache, cfg.Redis.CacheTTL(), uploads, recorder, deps.Metrics, httpLog)
	bookingHandler := NewBookingHandler(bookingService, authz, recorder, deps.Metrics, httpLog)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(SecurityHeaders())
	r.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(LoggingMiddleware(httpLog))
	r.Use(MetricsMiddleware(deps.Metrics))

	// Health check and metrics endpoints (no auth required)
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.Upload.Backend != config.UploadMinIO {
		r.StaticFS(localUploadPrefix, http.Dir(cfg.Upload.Dir))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(RateLimitMiddleware(deps.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window(), deps.Metrics, httpLog))
	}

	authenticated := AuthMiddleware(jwtService, userService, cfg.JWT.CookieName)
	adminOnly := RequireRoles(model.RoleAdmin)

	// Auth endpoints
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/signin", authHandler.SignIn)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authenticated, authHandler.Me)
	auth.GET("/logout", authenticated, authHandler.Logout)

	// User administration
	users := api.Group("/users", authenticated, adminOnly)
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.ListUsers)
	users.DELETE("", userHandler.DeleteAllUsers)
	users.GET("/:userId", userHandler.GetUser)
	users.PATCH("/:userId", userHandler.UpdateUser)
	users.DELETE("/:userId", userHandler.DeleteUser)

	// Event endpoints
	events := api.Group("/events")
	events.GET("", eventHandler.ListEvents)
	events.GET("/:eventId", eventHandler.GetEvent)
	events.POST("", authenticated, adminOnly, eventHandler.CreateEvent)
	events.PATCH("/:eventId", authenticated, adminOnly, eventHandler.UpdateEvent)
	events.DELETE("", authenticated, adminOnly, eventHandler.DeleteEvents)
	events.DELETE("/:eventId", authenticated, adminOnly, eventHandler.DeleteEvent)

	// Category endpoints
	categories := api.Group("/category")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/all", categoryHandler.ListCategories)
	categories.GET("/:categoryId", categoryHandler.GetCategory)
	categories.GET("/:categoryId/events", categoryHandler.GetCategoryEvents)
	categories.POST("", authenticated, adminOnly, categoryHandler.CreateCategory)
	categories.PATCH("/:categoryId", authenticated, adminOnly, categoryHandler.UpdateCategory)
	categories.DELETE("", authenticated, adminOnly, categoryHandler.DeleteCategories)
	categories.DELETE("/:categoryId", authenticated, adminOnly, categoryHandler.DeleteCategory)

	// Booking endpoints
	bookings := api.Group("/booking", authenticated)
	bookings.POST("", bookingHandler.CreateBooking)
	bookings.GET("", adminOnly, bookingHandler.GetAllBookings)
	bookings.DELETE("", adminOnly, bookingHandler.DeleteAllBookings)
	bookings.GET("/user/:userId", bookingHandler.GetUserBookings)
	bookings.DELETE("/user/:userId", adminOnly, bookingHandler.DeleteAllUserBookings)
	bookings.GET("/:bookingId", bookingHandler.GetBooking)
	bookings.PATCH("/:bookingId", bookingHandler.UpdateBooking)
	bookings.DELETE("/:bookingId", bookingHandler.DeleteBooking)

	return r
}
