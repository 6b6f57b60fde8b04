package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizontal-backend/internal/blob"
	"quizontal-backend/internal/config"
	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/handlers"
	"quizontal-backend/internal/identity"
	"quizontal-backend/internal/logger"
	"quizontal-backend/internal/media"
	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/repository"
	"quizontal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	configPath := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logger")
	}
	defer logCloser.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Open document store
	backend, closeBackend := openBackend(ctx, cfg.Database)
	defer closeBackend()

	// Initialize repositories
	userRepo := repository.NewUserRepository(backend)
	collectionRepo := repository.NewCollectionRepository(backend)
	membershipRepo := repository.NewMembershipRepository(backend)
	favoriteRepo := repository.NewFavoriteRepository(backend)
	downloadRepo := repository.NewDownloadRepository(backend)
	aiImageRepo := repository.NewAIImageRepository(backend)

	stores := membership.Stores{
		Collections: collectionRepo,
		Memberships: membershipRepo,
		Favorites:   favoriteRepo,
		Downloads:   downloadRepo,
	}

	blobs, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create blob store")
	}

	// Sessions follow login and logout events
	notifier := identity.NewNotifier(64)
	wsHub := services.NewWSHub()
	sessions := membership.NewManager(stores, wsHub)
	go sessions.Run(ctx, notifier.Events())

	// Initialize services
	var providers []*identity.OAuthProvider
	if c := cfg.OAuth.Google; c.Enabled() {
		providers = append(providers, identity.NewGoogleProvider(c.ClientID, c.ClientSecret, c.RedirectURL))
	}
	if c := cfg.OAuth.GitHub; c.Enabled() {
		providers = append(providers, identity.NewGitHubProvider(c.ClientID, c.ClientSecret, c.RedirectURL))
	}
	userService := services.NewUserService(userRepo, blobs, notifier, cfg.JWT.Secret, cfg.JWT.TTL(), providers...)

	mediaClient := media.NewClient(cfg.Media)
	if !mediaClient.Enabled() {
		log.Warn().Msg("Media API key not set, gallery search is disabled")
	}

	var generator services.ImageGenerator
	if cfg.AI.APIKey != "" {
		generator, err = services.NewGenAIGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create image generator")
		}
	} else {
		log.Info().Msg("AI API key not set, image generation returns placeholders")
	}
	aiService := services.NewAIService(generator, mediaClient, blobs, aiImageRepo, cfg.AI.MaxImages)

	sweeper := services.NewSweeper(collectionRepo, membershipRepo)
	if cfg.Sweeper.Enabled {
		if err := sweeper.Start(cfg.Sweeper.Schedule); err != nil {
			log.Fatal().Err(err).Msg("Failed to start membership sweeper")
		}
		defer sweeper.Stop()
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	mediaHandler := handlers.NewMediaHandler(mediaClient)
	collectionHandler := handlers.NewCollectionHandler(sessions)
	favoriteHandler := handlers.NewFavoriteHandler(sessions)
	downloadHandler := handlers.NewDownloadHandler(sessions)
	aiHandler := handlers.NewAIHandler(aiService)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/auth/{provider}/url", authHandler.OAuthURL)
		r.Post("/auth/{provider}/callback", authHandler.OAuthCallback)

		r.Get("/media/trending", mediaHandler.Trending)
		r.Get("/media/categories", mediaHandler.Categories)
		r.Get("/media/{kind}", mediaHandler.Search)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/me", userHandler.GetMe)
			r.Patch("/me", userHandler.UpdateMe)
			r.Post("/me/avatar", userHandler.UploadAvatar)
			r.Post("/uploads", userHandler.Upload)
			r.Post("/uploads/presign", userHandler.PresignUpload)

			r.Get("/collections", collectionHandler.List)
			r.Post("/collections", collectionHandler.Create)
			r.Post("/collections/reload", collectionHandler.Reload)
			r.Patch("/collections/{id}", collectionHandler.Update)
			r.Delete("/collections/{id}", collectionHandler.Delete)
			r.Get("/collections/{id}/items", collectionHandler.Items)
			r.Post("/collections/{id}/items", collectionHandler.AddItem)
			r.Delete("/collections/{id}/items/{media_id}", collectionHandler.RemoveItem)

			r.Get("/favorites", favoriteHandler.List)
			r.Post("/favorites/toggle", favoriteHandler.Toggle)
			r.Get("/favorites/{media_id}", favoriteHandler.Check)

			r.Post("/downloads", downloadHandler.Record)

			r.Post("/ai/generate", aiHandler.Generate)
			r.Get("/ai/history", aiHandler.History)
		})
	})

	// WebSocket route
	r.With(middleware.WSAuthMiddleware(userService)).Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stop()
	notifier.Close()

	log.Info().Int("sessions", sessions.Active()).Msg("Server exited")
}

// openBackend connects the configured document store
func openBackend(ctx context.Context, cfg config.DatabaseConfig) (docstore.Backend, func()) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory document store, data is lost on restart")
		return docstore.NewMemoryBackend(), func() {}
	}

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	backend := docstore.NewPostgresBackend(db)
	if err := backend.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare document table")
	}
	return backend, db.Close
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
