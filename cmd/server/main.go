package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/config"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/internal/quiz"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/cache"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/database"
	"github.com/Prachi11Sonu/LMS-learning-Management-System/pkg/websocket"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// The cache is optional; without redis every read goes to the database.
	var quizCache quiz.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("Warning: redis at %s unavailable, caching disabled: %v", cfg.RedisAddr, err)
			redisCache.Close()
		} else {
			defer redisCache.Close()
			quizCache = redisCache
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	handler := newRouter(db, cfg, quizCache, wsHub)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		log.Printf("Using sqlite database %s", cfg.DBDSN)
		return database.NewSQLiteDB(cfg.DBDSN)
	}
	return database.NewPostgresDB(&cfg.DB)
}
