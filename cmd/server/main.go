// Package main is the entry point for the Star Bucks Trade Empire API server.
// It wires together all services and starts the HTTP server alongside the
// WebSocket hub and background scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/orbitfall/tradeempire/internal/api"
	"github.com/orbitfall/tradeempire/internal/catalog"
	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/repository"
	"github.com/orbitfall/tradeempire/internal/scheduler"
	"github.com/orbitfall/tradeempire/internal/service"
	"github.com/orbitfall/tradeempire/internal/ws"
)

func main() {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting trade empire server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		cfg.DB.Path, cfg.DB.BusyTimeout.Milliseconds())
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent autosaves.
	db.SetMaxOpenConns(1)
	logger.Info("database connected", "path", cfg.DB.Path)

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Universe catalog ───────────────────────────────────────────────────
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded",
		"commodities", len(cat.Commodities), "venues", len(cat.Venues))

	// ── 5. Repositories ───────────────────────────────────────────────────────
	pilotRepo := repository.NewPilotRepository(db)
	saveRepo := repository.NewSaveRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// ── 6. Services (order matters for injection) ─────────────────────────────
	// Sessions run concurrently; the shared stream must be race-free.
	rng := service.NewLockedRand(time.Now().UnixNano())

	marketSvc := service.NewMarketService(cat, cfg, rng)
	tradeSvc := service.NewTradeService(cat, cfg, rng, marketSvc)
	bankSvc := service.NewBankService(cat, cfg, rng)
	contractSvc := service.NewContractService(cat, cfg, rng)
	shippingSvc := service.NewShippingService(cat, cfg, rng)
	daySvc := service.NewDayService(cat, cfg, rng, marketSvc, bankSvc, contractSvc, shippingSvc)
	travelSvc := service.NewTravelService(cat, cfg, rng, daySvc)
	scoreSvc := service.NewScoreService(cat, scoreRepo)
	authSvc := service.NewAuthService(pilotRepo, cfg)

	gameSvc := service.NewGameService(cat, cfg, rng,
		marketSvc, tradeSvc, bankSvc, contractSvc, shippingSvc, travelSvc,
		scoreSvc, saveRepo)

	// ── 7. WebSocket Hub ──────────────────────────────────────────────────────
	jwtSecret := []byte(cfg.JWT.AccessSecret)
	var allowedOrigins []string
	if ori := os.Getenv("WS_ALLOWED_ORIGINS"); ori != "" {
		for _, o := range strings.Split(ori, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
		}
	}
	hub := ws.NewHub(jwtSecret, allowedOrigins)

	// Wire WS push into the game service
	gameSvc.SetBroadcaster(hub)

	// ── 8. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 9. Start WS Hub ───────────────────────────────────────────────────────
	go hub.Run()
	logger.Info("websocket hub started")

	// ── 10. Scheduler ─────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(gameSvc, cfg, logger)
	sched.Start(ctx)

	// ── 11. HTTP Router ───────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		AuthSvc:     authSvc,
		GameSvc:     gameSvc,
		ShippingSvc: shippingSvc,
		ScoreSvc:    scoreSvc,
		PilotRepo:   pilotRepo,
		Hub:         hub,
		Cfg:         cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 12. Start server + graceful shutdown ──────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	// Flush every live game before closing the database.
	saved, failed := gameSvc.AutosaveAll(shutdownCtx)
	logger.Info("final autosave", "saved", saved, "failed", failed)

	db.Close()
	logger.Info("server stopped cleanly")
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially.  Idempotent: SQL files should use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
