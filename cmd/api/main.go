package main

import (
	"context"
	"log"
	"os"

	"storepay/internal/database"
	"storepay/internal/handler"
	"storepay/internal/logger"
	"storepay/internal/middleware"
	"storepay/internal/repository"
	"storepay/internal/service"
	"storepay/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Store Payment Engine API
// @version         1.0
// @description     Purchase invoice, payment and cross-store reimbursement tracking for a multi-store group.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger.Setup(logger.FromEnv())

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
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	crossStoreRepo := repository.NewCrossStoreRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authService := service.NewAuthService(userRepo)
	calculatorService := service.NewCalculatorService(invoiceRepo, orderItemRepo, productRepo, auditRepo, txManager, wsHub)
	invoiceService := service.NewInvoiceService(invoiceRepo, directoryRepo, productRepo, auditRepo, txManager, calculatorService)
	paymentService := service.NewPaymentService(invoiceRepo, paymentRepo, directoryRepo, auditRepo, txManager, wsHub)
	crossStoreService := service.NewCrossStoreService(crossStoreRepo, directoryRepo, auditRepo, txManager, wsHub)
	reimbursementService := service.NewReimbursementService(invoiceRepo, crossStoreRepo, directoryRepo, auditRepo, txManager, wsHub)
	dashboardService := service.NewDashboardService(db)

	// Bootstrap admin for a fresh database
	adminUser := os.Getenv("BOOTSTRAP_ADMIN_USER")
	adminPass := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminUser != "" && adminPass != "" {
		if err := authService.SeedAdmin(context.Background(), adminUser, adminPass); err != nil {
			log.Printf("WARNING: failed to seed admin account: %v", err)
		}
	}

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, reimbursementService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	crossStoreHandler := handler.NewCrossStoreHandler(crossStoreService, reimbursementService)
	orderItemHandler := handler.NewOrderItemHandler(calculatorService)
	directoryHandler := handler.NewDirectoryHandler(directoryRepo)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	crossStoreHandler.RegisterRoutes(router.Group(""))
	orderItemHandler.RegisterRoutes(router.Group(""))
	directoryHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
