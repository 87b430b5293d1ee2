package main

import (
	"context"
	"net/http"

	_ "shopadmin/api/swagger" // swagger docs
	"shopadmin/internal/config"
	"shopadmin/internal/database"
	"shopadmin/internal/handler"
	"shopadmin/internal/jobs"
	"shopadmin/internal/metrics"
	"shopadmin/internal/middleware"
	"shopadmin/internal/permission"
	"shopadmin/internal/repository"
	"shopadmin/internal/service"
	"shopadmin/internal/session"
	"shopadmin/internal/websocket"
	"shopadmin/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Shop Admin API
// @version         1.0
// @description     Back office API for the e-commerce admin dashboard.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Get()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to postgres")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, sessions will fail until it returns")
	}

	// WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	importRepo := repository.NewImportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	// Access control
	sessions := session.NewStore(rdb, cfg.RefreshTTL)
	registry := permission.NewRegistry(roleRepo, permission.DefaultTTL)
	guard := middleware.NewGuard(cfg.JWTSecret, registry, cfg.Env == "production")

	// Services
	authService := service.NewAuthService(userRepo, registry, sessions, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	roleService := service.NewRoleService(roleRepo, auditRepo, registry, txManager)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, sessions)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, unitRepo, branchRepo, auditRepo)
	customerService := service.NewCustomerService(customerRepo, auditRepo)
	orderService := service.NewOrderService(orderRepo, auditRepo, txManager, wsHub)
	inventoryService := service.NewInventoryService(branchRepo, importRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)
	statsService := service.NewStatisticsService(statsRepo)
	uploadService := service.NewUploadService(cfg.Cloudinary)

	if err := roleService.SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed roles and permissions")
	}

	// Background jobs
	scheduler := jobs.NewScheduler(db, auditRepo, cfg.AuditRetentionDays)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start background jobs")
	}
	defer scheduler.Stop()

	// Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	api := router.Group("/api/v1")
	handler.NewAuthHandler(authService, guard).RegisterRoutes(api)
	handler.NewUserHandler(userService, guard).RegisterRoutes(api)
	handler.NewRoleHandler(roleService, guard).RegisterRoutes(api)
	handler.NewProductHandler(catalogService, guard).RegisterRoutes(api)
	handler.NewCustomerHandler(customerService, guard).RegisterRoutes(api)
	handler.NewOrderHandler(orderService, guard).RegisterRoutes(api)
	handler.NewInventoryHandler(inventoryService, guard).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, guard).RegisterRoutes(api)
	handler.NewStatisticsHandler(statsService, guard).RegisterRoutes(api)
	handler.NewUploadHandler(uploadService, guard).RegisterRoutes(api)

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
