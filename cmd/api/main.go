package main

import (
	"context"
	"os"

	_ "firecert/api/swagger" // swagger docs
	"firecert/internal/database"
	"firecert/internal/handler"
	"firecert/internal/middleware"
	"firecert/internal/repository"
	"firecert/internal/service"
	"firecert/internal/storage"
	"firecert/internal/websocket"
	"firecert/internal/wizard"
	"firecert/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Fire Safety Certification API
// @version         1.0
// @description     Permitting backend for fire-safety certifications: establishment registry, application wizard, inspections, review and certificate issuance.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Env vars may come from the process environment instead.
	_ = godotenv.Load("configs/.env")

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer log.Sync()

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "firecert"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Document storage: GCS when a bucket is configured, in-memory otherwise.
	var docs wizard.DocumentStore
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSStore(context.Background(), bucket)
		if err != nil {
			log.Fatal("gcs store init failed", zap.Error(err))
		}
		defer gcs.Close()
		docs = gcs
		log.Info("document storage: gcs", zap.String("bucket", bucket))
	} else {
		docs = storage.NewMemoryStore()
		log.Warn("GCS_BUCKET not set, storing documents in memory")
	}

	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repository -> Service -> Handler
	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	establishmentRepo := repository.NewEstablishmentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	establishmentService := service.NewEstablishmentService(establishmentRepo, auditRepo, txm, docs, wsHub, log)
	applicationService := service.NewApplicationService(applicationRepo, auditRepo, txm, docs, wsHub, log)
	inspectionService := service.NewInspectionService(inspectionRepo, auditRepo, txm, docs, wsHub, log)
	reviewService := service.NewReviewService(applicationRepo, certificateRepo, auditRepo, txm, wsHub)
	auditService := service.NewAuditService(auditRepo)
	statsService := service.NewStatsService(db)

	userHandler := handler.NewUserHandler(userService)
	establishmentHandler := handler.NewEstablishmentHandler(establishmentService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	inspectionHandler := handler.NewInspectionHandler(inspectionService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	auditHandler := handler.NewAuditHandler(auditService)
	statsHandler := handler.NewStatsHandler(statsService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	userHandler.RegisterRoutes(router.Group(""))
	establishmentHandler.RegisterRoutes(router.Group(""))
	applicationHandler.RegisterRoutes(router.Group(""))
	inspectionHandler.RegisterRoutes(router.Group(""))
	reviewHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
