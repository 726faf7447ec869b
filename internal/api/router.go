package api

import (
	"context"
	"net/http"
	"time"

	"auto-cart/internal/api/handlers"
	"auto-cart/internal/api/handlers/health"
	"auto-cart/internal/api/middleware"
	"auto-cart/internal/core/auth"
	"auto-cart/internal/core/catalog"
	"auto-cart/internal/core/grocery"
	"auto-cart/internal/core/ingredient"
	"auto-cart/internal/core/normalizer"
	"auto-cart/internal/core/workflow"
	"auto-cart/internal/infrastructure/config"
	"auto-cart/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	timeoutDuration = 60 * time.Second
	// Pasted ingredient blocks and voice payloads are tiny; 1MB is generous.
	maxBodySize = 1 << 20
)

// SetupRouter wires services and routes onto a gin engine.
func SetupRouter(cfg *config.Config, sessionStore workflow.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Session-ID", "X-Account-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// Normalizer selection: the semantic service when configured, the
	// deterministic merger otherwise. The engine degrades safely either way.
	var norm ingredient.Normalizer
	if cfg.Normalizer.Enabled && cfg.Normalizer.APIKey != "" {
		norm = normalizer.NewClient(cfg)
	} else {
		norm = normalizer.NewRule()
	}
	engine := ingredient.NewEngine(norm, cfg.Normalizer.Timeout)

	common.LogInfo("Initializing services",
		zap.Bool("normalizer_remote", cfg.Normalizer.Enabled && cfg.Normalizer.APIKey != ""),
		zap.String("normalizer_model", cfg.Normalizer.Model),
		zap.Duration("timeout", timeoutDuration),
	)

	grocerySvc := grocery.NewService(grocery.NewMemoryListStore(), engine)

	catalogClient := catalog.NewClient(cfg)
	oauthClient := auth.NewOAuthClient(cfg)
	manager := auth.NewManager(auth.NewMemoryCredentialStore(), oauthClient, catalogClient)

	flow := workflow.New(sessionStore, catalogClient, manager, grocerySvc)

	groceryHandler := handlers.NewGroceryHandler(grocerySvc)
	shopHandler := handlers.NewShopHandler(flow)
	krogerHandler := handlers.NewKrogerHandler(manager, oauthClient, catalogClient)
	alexaHandler := handlers.NewAlexaHandler(grocerySvc, cfg)

	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Set("config", cfg)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
			return
		}
	})

	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	api := router.Group("/api/v1")
	{
		lists := api.Group("/lists")
		{
			lists.POST("", groceryHandler.CreateList)
			lists.GET("", groceryHandler.ListAll)
			lists.GET("/:id", groceryHandler.GetList)
			lists.DELETE("/:id", groceryHandler.DeleteList)
			lists.POST("/:id/items", groceryHandler.AddItems)
			lists.POST("/:id/items/toggle", groceryHandler.ToggleItem)
			lists.POST("/:id/items/remove", groceryHandler.RemoveItem)
			lists.POST("/:id/items/clear-checked", groceryHandler.ClearChecked)
		}

		kroger := api.Group("/kroger")
		{
			kroger.GET("/authenticate", krogerHandler.Authenticate)
			kroger.GET("/callback", krogerHandler.Callback)
			kroger.GET("/locations", krogerHandler.Locations)
			kroger.POST("/unlink", krogerHandler.Unlink)
		}

		shop := api.Group("/shop")
		{
			shop.POST("/begin", shopHandler.Begin)
			shop.POST("/location", shopHandler.SetLocation)
			shop.GET("/step", shopHandler.Step)
			shop.POST("/choose", shopHandler.Choose)
			shop.POST("/skip", shopHandler.Skip)
			shop.POST("/submit", shopHandler.Submit)
			shop.POST("/abandon", shopHandler.Abandon)
		}

		api.POST("/alexa", alexaHandler.Handle)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
