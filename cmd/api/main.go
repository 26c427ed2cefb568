package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"souschef/internal/api"
	"souschef/internal/core/ai/cache"
	"souschef/internal/core/ai/gemini"
	"souschef/internal/core/ai/openrouter"
	"souschef/internal/core/ai/provider"
	"souschef/internal/core/ai/queue"
	aiservice "souschef/internal/core/ai/service"
	"souschef/internal/core/auth"
	"souschef/internal/core/extraction"
	"souschef/internal/core/grocery"
	"souschef/internal/core/image"
	"souschef/internal/core/messaging"
	"souschef/internal/core/recipe"
	"souschef/internal/infrastructure/config"
	"souschef/internal/infrastructure/database"
	"souschef/internal/infrastructure/monitoring"
	"souschef/internal/infrastructure/persistence/memory"
	"souschef/internal/infrastructure/persistence/postgres"
	"souschef/internal/infrastructure/storage"
	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

// dataStore 同時提供食譜與購物清單的儲存
type dataStore interface {
	recipe.Store
	grocery.Store
	Ping(ctx context.Context) error
}

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	ctx := context.Background()

	// 資料儲存
	store, storeKind, closeStore, err := newStore(ctx, cfg.Database)
	if err != nil {
		common.LogFatal("Failed to initialize data store", zap.Error(err))
	}
	defer closeStore()

	// AI 快取
	cacheStore, err := newCache(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if cacheStore != nil {
		defer cacheStore.Close()
	}

	// AI 提供者與服務
	aiProvider, err := newProvider(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize AI provider", zap.Error(err))
	}
	aiService := aiservice.NewService(aiProvider, cacheStore, queue.NewManager(cfg.Queue.Workers, cfg.Queue.MaxSize), aiservice.Options{
		Temperature:       cfg.AI.Temperature,
		MaxTokens:         cfg.OpenRouter.MaxTokens,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	})
	defer aiService.Close()

	// 上傳檔案儲存
	uploads, err := storage.New(cfg.Storage)
	if err != nil {
		common.LogFatal("Failed to initialize upload storage", zap.Error(err))
	}
	uploadDir := ""
	if local, ok := uploads.(*storage.Local); ok {
		uploadDir = local.Dir()
	}

	metrics := monitoring.NewMetrics()
	recipes := recipe.NewService(store, cfg.Recipe.MaxTags)

	extractor := extraction.NewExtractor(extraction.Deps{
		Fetcher:     extraction.NewWebFetcher(cfg.Scraper),
		Scraper:     extraction.NewApifyScraper(cfg.Instagram),
		Structurer:  extraction.NewStructurer(aiService, cfg.Recipe.MaxTags),
		Images:      image.NewService(cfg.Image),
		OCR:         extraction.NewTesseract(cfg.OCR),
		Rasterizer:  extraction.NewPdftoppm(cfg.OCR),
		Storage:     uploads,
		Cache:       cacheStore,
		Recipes:     recipes,
		Metrics:     metrics,
		MaxPDFBytes: cfg.Image.MaxPDFBytes,
	})

	groceries := grocery.NewService(store, recipes, metrics)
	sender := messaging.NewCallMeBot(cfg.WhatsApp)
	if !sender.Configured() {
		common.LogWarn("WHATSAPP_API_KEY 未設定，分享功能停用")
	}

	verifier := auth.NewVerifier(cfg.Auth.SupabaseJWTSecret)
	if !verifier.Enabled() {
		common.LogWarn("SUPABASE_JWT_SECRET 未設定，所有請求皆為訪客範圍")
	}
	if cfg.Instagram.ApifyToken == "" {
		common.LogWarn("APIFY_TOKEN 未設定，Instagram 擷取將失敗")
	}

	// 設置路由
	router := api.SetupRouter(cfg, api.Deps{
		Recipes:     recipes,
		Extractor:   extractor,
		Grocery:     groceries,
		Share:       grocery.NewShareService(groceries, sender, cfg.WhatsApp.PhoneNumber),
		Verifier:    verifier,
		Store:       store,
		Queue:       aiService,
		UploadDir:   uploadDir,
		StorageKind: storeKind,
	})
	defer router.Close()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.String("ai_model", aiProvider.GetModel()),
			zap.String("store", storeKind),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// newStore 有 DATABASE_URL 時使用 Postgres，否則使用記憶體儲存
func newStore(ctx context.Context, cfg config.DatabaseConfig) (dataStore, string, func(), error) {
	if cfg.URL == "" {
		common.LogWarn("DATABASE_URL 未設定，使用記憶體儲存，資料不會保留")
		return memory.NewStore(), "memory", func() {}, nil
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, "", nil, err
		}
	}

	store := postgres.NewStore(db)
	return store, "postgres", func() {
		if err := store.Close(); err != nil {
			common.LogError("關閉資料庫失敗", zap.Error(err))
		}
	}, nil
}

// newCache 依設定選擇快取後端，停用時返回 nil
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("AI 快取已停用")
		return nil, nil
	}
	if cfg.Cache.Backend == "redis" {
		rs, err := cache.NewRedisStore(ctx, cfg.Redis, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	return cache.NewManager(cfg.Cache.MaxSize, cfg.Cache.TTL), nil
}

// newProvider 依設定選擇 AI 提供者
func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.AI.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openrouter":
		return openrouter.NewClient(cfg.OpenRouter), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}
}
