package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/pet-booking-backend/internal/analytics"
	analyticsHttp "github.com/nekogravitycat/pet-booking-backend/internal/analytics/http"
	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
	"github.com/nekogravitycat/pet-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/pet-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/pet-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
	resHttp "github.com/nekogravitycat/pet-booking-backend/internal/resource/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	ResService        resource.Service
	BookingService    booking.Service
	AvailabilityIndex *availability.Index
	AnalyticsService  analytics.Service
	JWTManager        *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins(cfg)
	if len(config.AllowOrigins) == 0 {
		// cors rejects an empty origin list; refuse every cross-origin call instead.
		config.AllowOriginFunc = func(string) bool { return false }
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	resHandler := resHttp.NewHandler(cfg.ResService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityIndex, cfg.ResService)
	analyticsHandler := analyticsHttp.NewHandler(cfg.AnalyticsService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		resHttp.RegisterRoutes(v1, resHandler, authMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		analyticsHttp.RegisterRoutes(v1, analyticsHandler, authMiddleware)
	}

	return r
}

// allowedOrigins returns PROD_ORIGINS in production and the local
// development origins otherwise.
func allowedOrigins(cfg Config) []string {
	if !cfg.IsProduction {
		return []string{
			"http://localhost:3000", // Web frontend
			"http://localhost:8081", // Swagger
		}
	}
	var origins []string
	for _, o := range strings.Split(cfg.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
