package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "accountd/internal/app"
	"accountd/internal/bootstrap"
	"accountd/internal/cache"
	"accountd/internal/platform/rabbitmq"
	"accountd/internal/repository"
	"accountd/internal/transport/http/handler"
	"accountd/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	userRepo := repository.NewUserRepository(app.MySQL)
	tokenRepo := repository.NewTokenRepository(app.MySQL)
	tokenCache := cache.NewTokenCache(
		app.Redis,
		time.Duration(app.Config.Auth.TokenCacheTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewAuthEventPublisher(app.MQConn, app.Config.RabbitMQ.AuthEventQueue)

	authService := appsvc.NewAuthService(userRepo, tokenRepo, tokenCache, publisher, app.Config.Auth.BcryptCost)
	userService := appsvc.NewUserService(userRepo, tokenRepo, tokenCache, publisher, app.Config.Auth.BcryptCost)

	healthHandler := handler.NewHealthHandler(app)
	return newEngine(
		authService,
		userService,
		healthHandler,
		app.Config.Auth.PublicPaths,
	)
}

// newEngine wires routes over already-built services so tests can run the
// full router against in-memory repositories.
func newEngine(
	authService *appsvc.AuthService,
	userService *appsvc.UserService,
	healthHandler *handler.HealthHandler,
	publicPaths []string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// The gate runs for every request; public paths pass through it
	// unauthenticated rather than around it.
	router.Use(middleware.Auth(authService, publicPaths))

	if healthHandler != nil {
		router.GET("/healthz", healthHandler.Check)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me)

	userGroup := v1.Group("/users")
	userGroup.GET("", userHandler.List)
	userGroup.GET("/:id", userHandler.Get)
	userGroup.POST("", userHandler.Create)
	userGroup.PATCH("/:id", userHandler.Update)
	userGroup.DELETE("/:id", userHandler.Delete)

	return router
}
