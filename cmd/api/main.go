package main

import (
	"fmt"
	"os"

	_ "freightflow/api/swagger" // swagger docs
	"freightflow/internal/config"
	"freightflow/internal/database"
	"freightflow/internal/excel"
	"freightflow/internal/handler"
	"freightflow/internal/middleware"
	"freightflow/internal/notification"
	"freightflow/internal/pdf"
	"freightflow/internal/repository"
	"freightflow/internal/service"
	"freightflow/internal/websocket"
	"freightflow/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           FreightFlow Booking API
// @version         1.0
// @description     Multi-tenant freight booking lifecycle engine: bookings, manifests, rates, invoices, and credit control.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	db, err := database.NewConnection(cfg.DB.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	log.Info().Msg("connected to postgres")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	bookingRepo := repository.NewBookingRepository(db)
	manifestRepo := repository.NewManifestRepository(db)
	rateRepo := repository.NewRateRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	invoicePDF := pdf.NewInvoiceGenerator()
	tripSheets := excel.NewTripSheetGenerator()

	var notifier notification.Notifier = notification.Noop{}
	if cfg.SMS.GatewayURL != "" {
		notifier = notification.NewSMSGateway(cfg.SMS.GatewayURL, cfg.SMS.APIKey, log)
	}

	rateService := service.NewRateService(rateRepo)
	creditService := service.NewCreditService(customerRepo, auditRepo, txManager, log)
	bookingService := service.NewBookingService(bookingRepo, customerRepo, branchRepo, auditRepo, rateService, creditService, txManager, wsHub, log)
	manifestService := service.NewManifestService(manifestRepo, bookingRepo, auditRepo, bookingService, txManager, wsHub, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, bookingRepo, auditRepo, txManager, invoicePDF, notifier, cfg.Billing.GSTRate, log)

	// Initialize Handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	manifestHandler := handler.NewManifestHandler(manifestService, tripSheets)
	rateHandler := handler.NewRateHandler(rateService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	customerHandler := handler.NewCustomerHandler(creditService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	// Set up Gin Router
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
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
	jwtSecret := []byte(cfg.Auth.JWTSecret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	api := router.Group("", middleware.RequireAuth(jwtSecret))
	bookingHandler.RegisterRoutes(api)
	manifestHandler.RegisterRoutes(api)
	rateHandler.RegisterRoutes(api)
	invoiceHandler.RegisterRoutes(api)
	customerHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
