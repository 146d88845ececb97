package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/strudel-live/backend/api/handlers"
	"github.com/strudel-live/backend/internal/buffer"
	"github.com/strudel-live/backend/internal/db"
	"github.com/strudel-live/backend/internal/dispatch"
	"github.com/strudel-live/backend/internal/mcptools"
	"github.com/strudel-live/backend/internal/model"
	"github.com/strudel-live/backend/internal/pending"
	"github.com/strudel-live/backend/internal/repository"
	"github.com/strudel-live/backend/internal/ws"
)

const recentErrorCapacity = 32

func main() {
	// Get configuration from environment
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/strudel.db")
	staticDir := getEnv("STATIC_DIR", "web")

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize repository and recent-error log
	historyRepo := repository.NewHistoryRepository(database)
	errorLog := buffer.NewEventLog(recentErrorCapacity)

	// Initialize connection manager and pending-call registry
	manager := ws.NewManager()
	defer manager.Close()

	registry := pending.NewRegistry()

	// Initialize WebSocket handler; evaluation errors reported by tabs go to
	// both the durable history and the in-memory recent-error log.
	wsHandler := ws.NewHandler(manager, registry)
	wsHandler.SetOnEvaluationError(func(sessionID, code, errMsg string) {
		errorLog.Append(buffer.EvalError{
			SessionID: sessionID,
			Code:      code,
			Error:     errMsg,
		})
		rec := &model.PlayRecord{
			SessionID: sessionID,
			Kind:      model.EventKindEvalError,
			Code:      code,
			Error:     errMsg,
		}
		if err := historyRepo.Record(context.Background(), rec); err != nil {
			log.Printf("Failed to record evaluation error: %v", err)
		}
	})

	// Initialize dispatcher and MCP tool server
	dispatcher := dispatch.NewDispatcher(manager, registry, historyRepo)
	mcpServer := mcptools.NewServer(dispatcher)

	// Initialize handlers
	strudelHandler := handlers.NewStrudelHandler(manager, historyRepo, errorLog)
	wsEndpoint := handlers.NewWebSocketHandler(wsHandler)

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Strudel control routes
	strudel := r.Group("/strudel")
	{
		strudelHandler.RegisterRoutes(strudel)
		wsEndpoint.RegisterRoutes(strudel)
	}

	// MCP transport for coding agents
	r.Any("/mcp", gin.WrapH(mcpServer.Handler()))

	// Player page and assets. Served through NoRoute because gin rejects a
	// /strudel/*path wildcard alongside the /strudel routes above.
	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.StripPrefix("/strudel/", http.FileServer(http.Dir(staticDir)))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method == http.MethodGet && strings.HasPrefix(c.Request.URL.Path, "/strudel/") {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
			c.JSON(404, gin.H{"error": "not found"})
		})
	} else {
		log.Printf("Static directory %s not found, player page disabled", staticDir)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		manager.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
