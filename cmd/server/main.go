package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ping-backend/internal/config"
	"ping-backend/internal/httpserver"
	"ping-backend/internal/security"
	"ping-backend/internal/store/postgres"
	"ping-backend/internal/store/sqlite"
	"ping-backend/internal/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	var (
		db    *sql.DB
		repos httpserver.Repos
	)
	switch cfg.Driver {
	case "postgres":
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repos = httpserver.Repos{
			Users:         postgres.NewUserRepo(db),
			Sessions:      postgres.NewSessionRepo(db),
			Friendships:   postgres.NewFriendshipRepo(db),
			Blacklist:     postgres.NewBlacklistRepo(db),
			Conversations: postgres.NewConversationRepo(db),
			Participants:  postgres.NewParticipantRepo(db),
			Messages:      postgres.NewMessageRepo(db),
		}
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		repos = httpserver.Repos{
			Users:         sqlite.NewUserRepo(db),
			Sessions:      sqlite.NewSessionRepo(db),
			Friendships:   sqlite.NewFriendshipRepo(db),
			Blacklist:     sqlite.NewBlacklistRepo(db),
			Conversations: sqlite.NewConversationRepo(db),
			Participants:  sqlite.NewParticipantRepo(db),
			Messages:      sqlite.NewMessageRepo(db),
		}
	}
	defer db.Close()

	// Security components
	passwordHasher := security.NewPasswordHasher(0)
	stateSigner := security.NewStateSigner(cfg.StateSecret, 10*time.Minute)

	var providers []*security.OAuthProvider
	if cfg.GoogleOAuth.Enabled() {
		providers = append(providers, security.NewGoogleProvider(security.OAuthProviderConfig{
			ClientID:     cfg.GoogleOAuth.ClientID,
			ClientSecret: cfg.GoogleOAuth.ClientSecret,
			RedirectURL:  cfg.GoogleOAuth.RedirectURL,
		}))
	}
	if cfg.GitHubOAuth.Enabled() {
		providers = append(providers, security.NewGitHubProvider(security.OAuthProviderConfig{
			ClientID:     cfg.GitHubOAuth.ClientID,
			ClientSecret: cfg.GitHubOAuth.ClientSecret,
			RedirectURL:  cfg.GitHubOAuth.RedirectURL,
		}))
	}

	// Initialize WebSocket hub
	hub := ws.NewHub()

	// Build HTTP router
	router := httpserver.NewRouter(cfg, repos, hub, passwordHasher, stateSigner, providers)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting %s on %s (driver=%s)\n", cfg.AppName, cfg.HTTPAddr(), cfg.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
