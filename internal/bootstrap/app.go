package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/handler/http"
	wsHandler "github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/handler/websocket"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/hub"
	gormpersistence "github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/infra/persistence/gorm"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/infra/setup"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/middleware"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/worker"
)

// Config 存储从环境变量或 .env 文件加载的配置
type Config struct {
	DBUser           string
	DBPassword       string
	DBHost           string
	DBPort           string
	DBName           string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JWTSecret        string
	ServerPort       string
	LogLevel         string
	AppEnv           string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	JWTExpiryHours   int
	DefaultModerator string // 默认房间的指定主持人用户名，可为空
	YouTubeAPIKey    string
	CORSOrigin       string
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)，忽略错误以允许只使用环境变量
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ServerPort:       os.Getenv("SERVER_PORT"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		AppEnv:           os.Getenv("APP_ENV"),
		DefaultModerator: os.Getenv("DEFAULT_ROOM_MODERATOR"),
		YouTubeAPIKey:    os.Getenv("YOUTUBE_API_KEY"),
		CORSOrigin:       os.Getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitMax:     100,
		RateLimitWindow:  1 * time.Second,
		JWTExpiryHours:   24,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB")) // 忽略错误，默认为 0
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_MAX")); err == nil && v > 0 {
		cfg.RateLimitMax = v
	}
	if v, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_HOURS")); err == nil && v > 0 {
		cfg.JWTExpiryHours = v
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App 包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// 4. 初始化 Repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	queueRepo := gormpersistence.NewGormQueueItemRepository(db)
	turnRepo := gormpersistence.NewGormTurnEntryRepository(db)
	log.Info("Repositories initialized")

	// 确保默认房间存在
	if _, err := setup.EnsureDefaultRoom(context.Background(), roomRepo); err != nil {
		return nil, fmt.Errorf("failed to ensure default room: %w", err)
	}

	// 5. 初始化 Services
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo)
	turnRegistry := service.NewTurnRegistry(roomRepo, turnRepo)
	roomClock := service.NewRoomClock()
	chatService := service.NewChatService()
	syncService := service.NewRoomSyncService(roomRepo, queueRepo, turnRegistry, roomClock, cfg.DefaultModerator)
	log.Info("Services initialized")

	// 6. 初始化 Hub
	hubInstance := hub.NewHub(syncService, chatService)
	log.Info("Hub initialized")

	// 7. 初始化 Handlers
	authHandler := httpHandler.NewAuthHandler(authService)
	roomHandler := httpHandler.NewRoomHandler(roomService, hubInstance)
	queueHandler := httpHandler.NewQueueHandler(syncService, hubInstance)
	searchHandler := httpHandler.NewSearchHandler(cfg.YouTubeAPIKey)
	socketHandler := wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSOrigin)
	log.Info("Handlers initialized")

	// 8. 初始化 Worker Server (回合镜像刷新的周期任务)
	workerServer := worker.NewWorkerServer(redisClientOpt, turnRegistry, log)
	log.Info("Worker server initialized")

	// 9. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSOrigin))
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	authMW := middleware.Auth(cfg.JWTSecret, authService)

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	roomRoutes := api.Group("/rooms").Use(authMW)
	{
		roomRoutes.GET("", roomHandler.List)
		roomRoutes.POST("", roomHandler.Create)
		roomRoutes.DELETE("/:name", roomHandler.Delete)
	}
	queueRoutes := api.Group("/queue").Use(authMW)
	{
		queueRoutes.GET("/:room", queueHandler.List)
	}
	videoRoutes := api.Group("/videos").Use(authMW)
	{
		videoRoutes.DELETE("/:id", queueHandler.Remove)
	}
	api.GET("/search", authMW, searchHandler.Search)

	wsRoutes := router.Group("/ws").Use(authMW)
	{
		wsRoutes.GET("", socketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 10. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqServer: workerServer,
		Hub:         hubInstance,
		HttpServer:  httpServer,
	}, nil
}

// Start 启动应用的所有后台 goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	go a.AsynqServer.Start()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 优雅关闭 Worker Server 和调度器
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 2. 优雅关闭 HTTP 服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 3. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// corsMiddleware 设置跨域响应头；allowedOrigin 为空时使用开发默认值
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建一个记录请求日志的 Gin 中间件
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
