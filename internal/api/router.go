package api

import (
	"time"

	"souschef/internal/api/handlers/grocery"
	"souschef/internal/api/handlers/health"
	recipeHandler "souschef/internal/api/handlers/recipe"
	"souschef/internal/api/middleware"
	"souschef/internal/core/auth"
	"souschef/internal/core/extraction"
	groceryService "souschef/internal/core/grocery"
	recipeService "souschef/internal/core/recipe"
	"souschef/internal/infrastructure/config"
	"souschef/internal/infrastructure/monitoring"
	"souschef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 路由需要的服務
type Deps struct {
	Recipes   *recipeService.Service
	Extractor *extraction.Extractor
	Grocery   *groceryService.Service
	Share     *groceryService.ShareService
	Verifier  *auth.Verifier
	Store     health.Pinger
	Queue     health.QueueReporter
	// UploadDir 非空時以 /uploads 提供本機上傳檔案
	UploadDir string
	// StorageKind 資料儲存類型，顯示在健康檢查
	StorageKind string
}

// Router 路由與需要關閉的中間件資源
type Router struct {
	Engine *gin.Engine
	dedup  *middleware.Deduplicator
}

// Close 釋放中間件資源
func (r *Router) Close() {
	r.dedup.Close()
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Deps) *Router {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.RegisterValidators()

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(monitoring.Middleware())

	// CORS 設置
	router.Use(cors.New(corsConfig(cfg.CORS)))

	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查與指標
	healthHandler := health.NewHandler(cfg.App.Version, deps.StorageKind, deps.Store, deps.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", monitoring.Handler())

	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	recipes := recipeHandler.NewHandler(deps.Recipes)
	extract := recipeHandler.NewExtractHandler(deps.Extractor)
	lists := grocery.NewHandler(deps.Grocery)
	share := grocery.NewShareHandler(deps.Share)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst)
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	// API 路由組
	api := router.Group("/api")
	api.Use(middleware.Auth(deps.Verifier))
	{
		jsonBody := middleware.BodySizeLimit(cfg.Server.MaxBodyBytes)
		uploadBody := middleware.BodySizeLimit(cfg.Server.MaxUploadBytes)

		// 擷取路由：限流並抑制重複提交
		extractGroup := api.Group("")
		if cfg.RateLimit.Enabled {
			extractGroup.Use(limiter.Middleware())
		}
		{
			extractGroup.POST("/extract", jsonBody, dedup.Middleware(), extract.HandleExtract)
			extractGroup.POST("/extract-text", jsonBody, dedup.Middleware(), extract.HandleExtractText)
			extractGroup.POST("/extract-images", uploadBody, dedup.Middleware(), extract.HandleExtractImages)
			extractGroup.POST("/extract-pdf", uploadBody, dedup.Middleware(), extract.HandleExtractPDF)
		}

		api.GET("/supported-domains", extract.HandleSupportedDomains)

		// 食譜
		recipeGroup := api.Group("/recipes", jsonBody)
		{
			recipeGroup.GET("", recipes.HandleList)
			recipeGroup.GET("/:id", recipes.HandleGet)
			recipeGroup.PATCH("/:id", recipes.HandleUpdate)
			recipeGroup.PUT("/:id/tags", recipes.HandleSetTags)
			recipeGroup.DELETE("/:id", recipes.HandleDelete)
		}

		// 購物清單
		listGroup := api.Group("/grocery-lists", jsonBody)
		{
			listGroup.GET("", lists.HandleListLists)
			listGroup.POST("", lists.HandleCreateList)
			listGroup.GET("/master", lists.HandleMasterList)
			listGroup.GET("/:id", lists.HandleGetList)
			listGroup.PATCH("/:id", lists.HandleRenameList)
			listGroup.DELETE("/:id", lists.HandleDeleteList)
			listGroup.POST("/:id/recipes", lists.HandleAddRecipe)
			listGroup.POST("/:id/items", lists.HandleAddItem)
			listGroup.DELETE("/:id/items", lists.HandleClearList)
		}

		itemGroup := api.Group("/grocery-items", jsonBody)
		{
			itemGroup.PATCH("/:id", lists.HandleUpdateItem)
			itemGroup.DELETE("/:id", lists.HandleDeleteItem)
			itemGroup.POST("/:id/toggle", lists.HandleToggleItem)
			itemGroup.POST("/:id/move", lists.HandleMoveItem)
		}

		// 分享
		api.POST("/share-list", jsonBody, share.HandleShareList)
		api.POST("/share-multiple-lists", jsonBody, share.HandleShareLists)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("auth_enabled", deps.Verifier != nil && deps.Verifier.Enabled()),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Int64("max_upload_size", cfg.Server.MaxUploadBytes),
	)

	return &Router{Engine: router, dedup: dedup}
}

// corsConfig 未設定來源時允許所有來源（不帶憑證）
func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
