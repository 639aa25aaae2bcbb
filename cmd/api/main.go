package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"draftbook/api/internal/app"
	"draftbook/api/internal/authpw"
	"draftbook/api/internal/config"
	"draftbook/api/internal/content"
	"draftbook/api/internal/paths"
	"draftbook/api/internal/session"
	"draftbook/api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: could not load .env: %v", err)
	}
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.DataRoot, 0o755); err != nil {
		log.Fatalf("failed to create data root: %v", err)
	}

	sqlStore := store.NewSQLStore(db)

	var tokens session.TokenStore = sqlStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for auth token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		tokens = redisStore
	} else {
		log.Printf("Using the database for auth token storage")
	}

	service := app.New(
		cfg,
		sqlStore,
		content.New(),
		paths.New(cfg.DataRoot),
		session.NewAuthority(tokens, cfg.TokenTTL),
		authpw.NewService(sqlStore),
	)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Draftbook API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
