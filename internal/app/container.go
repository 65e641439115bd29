package app

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/analytics"
	"github.com/nekogravitycat/pet-booking-backend/internal/api"
	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
	"github.com/nekogravitycat/pet-booking-backend/internal/availability"
	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/events"
	"github.com/nekogravitycat/pet-booking-backend/internal/lock"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	// DBPool backs the ledger and the catalog. When nil, in-memory
	// repositories are used.
	DBPool     *pgxpool.Pool
	JWTSecret  string
	JWTTTL     time.Duration
	Location   *time.Location
	FeePercent decimal.Decimal
	Policy     booking.Policy

	// Optional infrastructure. Empty values fall back to in-process
	// locks and a no-op publisher.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration
	KafkaBrokers  []string
	KafkaTopic    string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service

	publisher events.Publisher
	redis     *redis.Client
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	c := &Container{}

	// Init Components
	c.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		locker = lock.NewRedisLocker(c.redis, cfg.LockTTL)
		log.Printf("using redis locks at %s", cfg.RedisAddr)
	}

	c.publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		c.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("publishing booking transitions to kafka topic %s", cfg.KafkaTopic)
	}

	policy := cfg.Policy
	if policy.Cancellation == nil {
		policy = booking.DefaultPolicy()
	}

	// Resource Module
	var resRepo resource.Repository
	var bookingRepo booking.Repository
	if cfg.DBPool != nil {
		resRepo = resource.NewPgxRepository(cfg.DBPool)
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
	} else {
		resRepo = resource.NewMemoryRepository()
		bookingRepo = booking.NewMemoryRepository()
	}
	resService := resource.NewService(resRepo)

	// Availability Module
	index := availability.NewIndex(bookingRepo)

	// Booking Module
	c.BookingService = booking.NewService(bookingRepo, resService, index,
		booking.WithLocker(locker),
		booking.WithPublisher(c.publisher),
		booking.WithPricing(booking.Pricing{FeePercent: cfg.FeePercent}),
		booking.WithPolicy(policy),
	)

	// Analytics Module
	analyticsService := analytics.NewService(bookingRepo, resService, cfg.Location)

	// Router
	c.Router = api.NewRouter(api.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		ResService:        resService,
		BookingService:    c.BookingService,
		AvailabilityIndex: index,
		AnalyticsService:  analyticsService,
		JWTManager:        c.JWTManager,
	})

	return c
}

// Close releases the broker and cache connections.
func (c *Container) Close() {
	if err := c.publisher.Close(); err != nil {
		log.Printf("failed to close publisher: %v", err)
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Printf("failed to close redis client: %v", err)
		}
	}
}
