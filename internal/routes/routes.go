package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-be/internal/controllers"
	"users-be/internal/jwt"
	"users-be/internal/middleware"
)

// Dependencies are the handlers and collaborators the router is built from
type Dependencies struct {
	UserController *controllers.UserController
	AuthController *controllers.AuthController
	DocsController *controllers.DocsController
	JWTService     *jwt.JWTService
	Logger         *zap.Logger
	AllowedOrigins []string
}

// Setup builds the gin engine with every route registered
func Setup(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	router.GET("/", deps.DocsController.RedirectToDocs)
	router.GET("/docs", deps.DocsController.OpenAPI)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", deps.AuthController.Login)
		api.POST("/users", deps.UserController.Register)

		// Protected routes - require JWT authentication
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTService))
		{
			protected.GET("/users", deps.UserController.List)
			protected.DELETE("/users/:email", deps.UserController.Delete)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
