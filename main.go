package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/portfolio/config"
	"github.com/epeers/portfolio/internal/database"
	"github.com/epeers/portfolio/internal/handlers"
	"github.com/epeers/portfolio/internal/middleware"
	"github.com/epeers/portfolio/internal/priceservice"
	"github.com/epeers/portfolio/internal/repository"
	"github.com/epeers/portfolio/internal/simulation"
	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	securityRepo := repository.NewSecurityRepository(db.Pool)
	backtestHistoryRepo := repository.NewBacktestHistoryRepository(db.Pool)

	// Initialize the quant core: price store + orchestration
	priceStore := priceservice.NewPostgresStore(db.Pool)
	backtestOrch := simulation.NewBacktestOrchestrator(priceStore, securityRepo, backtestHistoryRepo)
	monteCarloOrch := simulation.NewMonteCarloOrchestrator(priceStore, cfg.MCMaxMonths, cfg.MCMaxSimulations)

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler(backtestOrch)
	monteCarloHandler := handlers.NewMonteCarloHandler(monteCarloOrch)

	// Setup Gin router
	router := gin.Default()

	// Apply global middleware
	router.Use(middleware.ValidateUser())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Quant core routes
	router.POST("/backtests", backtestHandler.Run)
	router.GET("/monte-carlo", monteCarloHandler.Run)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
