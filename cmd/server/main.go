package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/auth"
	"github.com/inamate/whiteboard/internal/config"
	"github.com/inamate/whiteboard/internal/export"
	mw "github.com/inamate/whiteboard/internal/middleware"
	"github.com/inamate/whiteboard/internal/project"
	"github.com/inamate/whiteboard/internal/session"
	"github.com/inamate/whiteboard/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boards, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open project store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	assets, err := asset.NewDir(cfg.AssetDir)
	if err != nil {
		slog.Error("open asset store", "error", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(cfg.OwnerPasswordHash, cfg.JWTSecret)
	if err != nil {
		slog.Error("init auth", "error", err)
		os.Exit(1)
	}
	if !authService.Enabled() {
		slog.Warn("OWNER_PASSWORD_HASH not set, authentication disabled")
	}
	authHandler := auth.NewHandler(authService)

	opts := cfg.EditorOptions()
	sessions := session.NewManager(boards, assets, opts)
	sessionHandler := session.NewHandler(sessions, authService, cfg.Origins())

	projectHandler := project.NewHandler(project.NewService(boards, sessions))
	exportHandler := export.NewHandler(boards, assets, int(opts.CanvasWidth), int(opts.CanvasHeight))
	assetHandler := asset.NewHandler(assets)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"status":"ok"}`)
	}).Methods("GET")

	// Asset files are public; uploads need the owner.
	r.Handle("/assets/upload", authService.AuthMiddleware(http.HandlerFunc(assetHandler.Upload))).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/projects", projectHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/projects/{name}", projectHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/projects/{name}", projectHandler.Put).Methods("PUT")
	api.HandleFunc("/projects/{name}/preview.png", exportHandler.Preview).Methods("GET", "OPTIONS")
	api.HandleFunc("/projects/{name}/export", exportHandler.ExportImage).Methods("GET", "OPTIONS")

	// WebSocket endpoint; the token travels as a query parameter.
	r.HandleFunc("/ws/session", sessionHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop sessions first so open boards are saved.
		slog.Info("saving open boards...")
		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore picks Postgres when DATABASE_URL is set, then SQLite, then
// plain files.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg, err := store.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("using postgres project store")
		return pg, pool.Close, nil

	case cfg.SQLitePath != "":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using sqlite project store", "path", cfg.SQLitePath)
		return db, func() { db.Close() }, nil

	default:
		f, err := store.NewFile(cfg.ProjectDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using file project store", "dir", cfg.ProjectDir)
		return f, func() {}, nil
	}
}
