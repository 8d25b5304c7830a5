package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"partner-office/internal/auth"
	"partner-office/internal/config"
	"partner-office/internal/database"
	"partner-office/internal/handlers"
	"partner-office/internal/jobs"
	"partner-office/internal/notify"
	"partner-office/internal/repository"
	"partner-office/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Token manager is constructed once and passed in explicitly
	tokenManager := auth.NewTokenManager(cfg.App.JWTSecret)

	// Initialize repositories
	partnerRepo := repository.NewPartnerRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	// Outbound notification channels
	var notifier notify.Notifier = notify.NopNotifier{}
	if !cfg.Notify.Disabled {
		webhook := notify.NewWebhookNotifier()
		notifier = webhook
		if cfg.Notify.AlimtalkURL != "" {
			notifier = notify.NewMultiNotifier(
				webhook,
				notify.NewAlimtalkNotifier(cfg.Notify.AlimtalkURL, cfg.Notify.AlimtalkAPIKey, cfg.Notify.AlimtalkSender),
			)
		}
	}

	// Initialize services
	hierarchyService := services.NewHierarchyService(partnerRepo)
	scopePolicy := services.NewScopePolicy(hierarchyService)
	authService := services.NewAuthService(partnerRepo, cfg.App.AdminCodePrefix)
	leadService := services.NewLeadService(leadRepo, partnerRepo, scopePolicy, notifier)
	statsService := services.NewStatsService(leadRepo, partnerRepo, hierarchyService)
	integrityService := services.NewIntegrityService(partnerRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenManager)
	leadHandler := handlers.NewLeadHandler(leadService)
	statsHandler := handlers.NewStatsHandler(statsService, scopePolicy)
	adminHandler := handlers.NewAdminHandler(authService, integrityService)

	// Start integrity audit job (runs every 6 hours)
	integrityJob := jobs.NewIntegrityJob(integrityService)
	integrityJob.Start(6 * time.Hour)
	log.Println("Integrity audit job started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.Middleware(tokenManager))
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.Middleware(tokenManager))
	{
		// Lead endpoints — /stats must come before :id routes
		api.GET("/leads", leadHandler.ListLeads)
		api.GET("/leads/stats", statsHandler.GetStats)
		api.GET("/leads/:id", leadHandler.GetLead)
		api.PUT("/leads/:id/status", leadHandler.UpdateStatus)

		// Partner tree endpoint
		api.GET("/partners/tree", statsHandler.GetPartnerTree)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.Middleware(tokenManager))
	admin.Use(auth.AdminMiddleware())
	{
		admin.GET("/partners", adminHandler.ListPartners)
		admin.POST("/integrity/check", adminHandler.RunIntegrityCheck)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
