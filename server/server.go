package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ScreenSync/config"
	"ScreenSync/core/catalog"
	"ScreenSync/core/engine"
	"ScreenSync/core/render"
	"ScreenSync/core/resolver"
	"ScreenSync/db"
	"ScreenSync/logger"
	"ScreenSync/model"
	"ScreenSync/repository"
	"ScreenSync/storage"
	"ScreenSync/store"

	"github.com/gorilla/mux"
)

// Start initializes and starts the player node.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		Compress:   true,
	})

	// 设置服务器超时
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Minute, // 大文件上传需要长超时
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端（本机 blob 子存储）
	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to Redis（远端 bundle 存储）
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	// Connect to SQLite（上传登记表）
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect upload registry: %v", err)
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.UploadRecord{}); err != nil {
		log.Fatalf("Failed to migrate upload registry: %v", err)
	}

	// 打开本地持久缓存
	localCache, err := store.OpenLocalCache(cfg.CacheDir)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	defer localCache.Close()

	remote := store.NewRemoteBundleStore(db.RedisClient, cfg.ScreenID)
	blobs := storage.NewBlobStore(storage.GetMinioClient(), cfg.MinioBucket)
	uploadRepo := repository.NewGormUploadRepository(db.GormDB)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogAPIKey)

	templates := resolver.EmbedTemplates{
		MovieBase:   cfg.EmbedBaseMovie,
		ShowBase:    cfg.EmbedBaseShow,
		EpisodeBase: cfg.EmbedBaseEpisode,
	}

	// 渲染桥 + 同步引擎。屏幕上报播放结束 → 播放列表前进（一次创作写入）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eng *engine.Engine
	hub := render.NewHub(func() {
		eng.Advance(ctx)
		if err := engine.TouchSignal(cfg.SignalFile); err != nil {
			logger.Warn("failed to touch device signal", logger.ErrorField(err))
		}
	})
	go hub.Run()
	defer hub.Stop()

	eng = engine.NewEngine(remote, localCache, hub, templates, cfg.TickInterval)
	eng.SetBlobResolver(blobs, func(err error) bool {
		return err == storage.ErrBlobNotFound
	})

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start sync engine: %v", err)
	}
	defer eng.Stop()

	// 设备内跨实例信号：其他进程 touch 信号文件时立即 reconcile
	signalWatcher, err := engine.NewSignalWatcher(cfg.SignalFile, func() {
		eng.Trigger(engine.TriggerSignal)
	})
	if err != nil {
		logger.Warn("device signal watcher unavailable, relying on periodic tick",
			logger.ErrorField(err))
	} else {
		defer signalWatcher.Close()
	}

	apiHandler := NewAPIHandler(eng, hub, blobs, uploadRepo, catalogClient, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 屏幕接入与状态
	router.HandleFunc("/ws/screen", apiHandler.RenderSocketHandler)
	router.HandleFunc("/api/status", apiHandler.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/bundle", apiHandler.GetBundleHandler).Methods(http.MethodGet)

	// blob 播放解析（观看端也需要）
	router.HandleFunc("/api/blobs/{key:.+}/url", apiHandler.GetBlobURLHandler).Methods(http.MethodGet)

	// 创作端接口
	if cfg.EnableAuthoring {
		router.HandleFunc("/api/bundle", apiHandler.PutBundleHandler).Methods(http.MethodPut)
		router.HandleFunc("/api/playlist/items", apiHandler.AddItemHandler).Methods(http.MethodPost)
		router.HandleFunc("/api/playlist/items/{id}", apiHandler.RemoveItemHandler).Methods(http.MethodDelete)
		router.HandleFunc("/api/schedules", apiHandler.PutSchedulesHandler).Methods(http.MethodPut)
		router.HandleFunc("/api/player/current", apiHandler.SetCurrentItemHandler).Methods(http.MethodPost)
		router.HandleFunc("/api/uploads", apiHandler.UploadBlobHandler).Methods(http.MethodPost)
		router.HandleFunc("/api/uploads", apiHandler.ListUploadsHandler).Methods(http.MethodGet)
		router.HandleFunc("/api/catalog/search", apiHandler.CatalogSearchHandler).Methods(http.MethodGet)
		router.HandleFunc("/api/catalog/external-ids", apiHandler.CatalogExternalIDsHandler).Methods(http.MethodGet)
	}

	httpServer.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Printf("Player node starting on %s (screen=%s, authoring=%v)...",
			cfg.ListenAddr, cfg.ScreenID, cfg.EnableAuthoring)
		log.Println("Screens connect via /ws/screen")
		log.Println("Node status via GET /api/status")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down player node...")

	// 创建一个5秒超时的上下文
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// 优雅关闭服务器
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Player node stopped")
}
