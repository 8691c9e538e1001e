package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/app"
	iauth "github.com/edulend/edulend/internal/auth"
	"github.com/edulend/edulend/internal/handlers"
	"github.com/edulend/edulend/internal/middleware"
	"github.com/edulend/edulend/internal/services"
)

// Deps carries everything the router needs. Google may be nil when federated
// login is disabled.
type Deps struct {
	DB       *gorm.DB
	Config   *app.Config
	JWT      *iauth.JWTService
	Accounts *services.AccountService
	Google   handlers.GoogleVerifier
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if rl := deps.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(rl.MaxRequests, rl.Window))
	}

	r.NoRoute(middleware.NotFoundHandler)

	// Public endpoints
	r.GET("/health", handlers.Health(deps.DB))
	if mon := deps.Config.Monitoring.Prometheus; mon.Enabled {
		endpoint := mon.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Google)

	api := r.Group("/api")
	requireAuth := middleware.Auth(deps.JWT)

	registerAuthRoutes(r, api, authHandler, requireAuth)

	if err := registerLoanRoutes(api, deps.DB, requireAuth); err != nil {
		return nil, err
	}

	return r, nil
}
