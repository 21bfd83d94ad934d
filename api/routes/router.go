package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/internal/auth"
	"eventhub/internal/bookings"
	"eventhub/internal/categories"
	"eventhub/internal/events"
	"eventhub/internal/notifications"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database"
	"eventhub/internal/store"
	"eventhub/internal/users"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	store  *store.Store // nil unless the memory backend is active
	log    *logger.Logger

	cacheService    cache.Service
	categoryService categories.Service
	eventService    events.Service
	bookingService  bookings.Service
	mailer          *notifications.EmailService
	producer        *notifications.Producer
}

// NewRouter creates a new router instance. memStore may be nil when the
// Postgres backend is configured.
func NewRouter(cfg *config.Config, db *database.DB, memStore *store.Store, log *logger.Logger) *Router {
	return &Router{
		config: cfg,
		db:     db,
		store:  memStore,
		log:    log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.cacheService = cache.NewService(r.db.GetRedisClient())
	r.mailer = notifications.NewEmailService(r.config.Email, r.log)

	if r.config.Kafka.Enabled {
		producer, err := notifications.NewProducer(r.config.Kafka, r.log)
		if err != nil {
			r.log.Error("Kafka producer unavailable, notifications disabled", "error", err)
		} else {
			r.producer = producer
		}
	}

	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Categories come first so the event service can resolve slugs
		r.setupCategoryRoutes(api)
		r.setupEventRoutes(api)
		r.setupBookingRoutes(api)
		r.setupUserRoutes(api)
	}
}

// Producer exposes the Kafka producer for shutdown.
func (r *Router) Producer() *notifications.Producer {
	return r.producer
}

// eventRepository picks the backend configured for event storage.
func (r *Router) eventRepository() events.Repository {
	if r.config.UseMemoryStore() && r.store != nil {
		return store.NewEventRepository(r.store)
	}
	return events.NewRepository(r.db.GetPostgreSQL())
}

func (r *Router) bookingRepository() bookings.Repository {
	if r.config.UseMemoryStore() && r.store != nil {
		return store.NewBookingRepository(r.store)
	}
	return bookings.NewRepository(r.db.GetPostgreSQL())
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "eventhub-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "eventhub-backend",
			"backend":   string(r.config.StoreBackend),
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.cacheService, r.config, r.mailer, r.log)
	authController := auth.NewController(authService)

	auth.SetupAuthRoutes(rg, authController)
}

func (r *Router) setupCategoryRoutes(rg *gin.RouterGroup) {
	categoryRepo := categories.NewRepository(r.db.GetPostgreSQL())
	r.categoryService = categories.NewService(categoryRepo, r.cacheService)
	categoryController := categories.NewController(r.categoryService)

	categories.SetupCategoryRoutes(rg, categoryController)
}

func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventRepo := r.eventRepository()
	r.eventService = events.NewService(eventRepo, r.categoryService, r.cacheService, r.log)

	// Category renames rewrite the slug denormalized onto events
	r.categoryService.SetEventSync(r.eventService)

	eventController := events.NewController(r.eventService)

	events.SetupEventRoutes(rg, eventController)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := r.bookingRepository()
	r.bookingService = bookings.NewService(bookingRepo, r.eventRepository(), r.cacheService, r.config.Booking, r.log)
	if r.producer != nil {
		r.bookingService.SetNotifier(r.producer)
	}

	// Event deletion tells the holders before the cascade
	r.eventService.SetCancellationNotifier(r.bookingService)

	bookingController := bookings.NewController(r.bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}

func (r *Router) setupUserRoutes(rg *gin.RouterGroup) {
	userRepo := users.NewRepository(r.db.GetPostgreSQL())
	userService := users.NewService(userRepo)

	// Deleting a user removes their bookings first
	if r.bookingService != nil {
		userService.SetBookingCleaner(r.bookingService)
	}
	userController := users.NewController(userService)

	users.SetupUserRoutes(rg, userController)
}
