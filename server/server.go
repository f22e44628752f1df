package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/cache"
	"github.com/mohamadaskravi2050-crypto/Muzic56/config"
	"github.com/mohamadaskravi2050-crypto/Muzic56/core/auth"
	"github.com/mohamadaskravi2050-crypto/Muzic56/db"
	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"
	"github.com/mohamadaskravi2050-crypto/Muzic56/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until SIGINT or
// SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Redis is optional; the popular cache degrades to direct queries.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, popular cache disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	store, err := newFileStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize file store", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	musicRepo := repository.NewMySQLMusicRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)
	musicCache := cache.NewMusicCache(db.RedisClient)

	apiHandler := NewAPIHandler(userRepo, musicRepo, playlistRepo, store, musicCache, cfg)
	router := NewRouter(apiHandler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// newFileStore picks the configured storage backend.
func newFileStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageBackend == "minio" {
		return storage.NewMinioStore(cfg)
	}
	return storage.NewLocalStore(cfg.LocalMediaDir)
}

// NewRouter builds the HTTP route table.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	// Auth endpoints.
	router.HandleFunc("/api/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/profile/image", h.AuthMiddleware(h.UploadProfileImageHandler)).Methods(http.MethodPost)

	// Music endpoints. Listing endpoints take optional auth so is_liked can
	// reflect the caller.
	router.HandleFunc("/api/music/upload", h.AuthMiddleware(h.UploadMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/music/list", h.OptionalAuthMiddleware(h.ListMusicHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/liked", h.AuthMiddleware(h.LikedMusicHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/popular", h.OptionalAuthMiddleware(h.PopularMusicHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/search", h.OptionalAuthMiddleware(h.SearchMusicHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/music/{id}/like", h.AuthMiddleware(h.LikeMusicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/music/{id}/delete", h.AuthMiddleware(h.DeleteMusicHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/music/{id}", h.OptionalAuthMiddleware(h.MusicDetailHandler)).Methods(http.MethodGet)

	// Playlist endpoints. Literal paths are registered before the {id}
	// routes so "public", "create" and friends are not swallowed by the
	// id pattern.
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/create", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/create-page", h.AuthMiddleware(h.CreatePlaylistPageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/create-final", h.AuthMiddleware(h.CreatePlaylistFinalHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/add-song", h.AuthMiddleware(h.AddSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/user-playlists", h.AuthMiddleware(h.UserPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/public", h.AuthMiddleware(h.PublicPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/public/{id}", h.AuthMiddleware(h.PublicPlaylistDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/public/{id}/detail", h.AuthMiddleware(h.PublicPlaylistDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}/toggle-public", h.AuthMiddleware(h.TogglePublicHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/remove-song", h.AuthMiddleware(h.RemoveSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/delete", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.PlaylistDetailHandler)).Methods(http.MethodGet)

	// Account endpoints.
	router.HandleFunc("/api/account/delete", h.AuthMiddleware(h.DeleteAccountHandler)).Methods(http.MethodDelete)

	// Uploaded assets.
	router.PathPrefix("/media/").HandlerFunc(h.MediaHandler).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
