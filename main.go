// Package main, AgriSpine köy sohbet sunucusunun giriş noktasıdır.
//
// Wire-up sırası:
//  1. Config + logger
//  2. Mesaj deposu (SQLite veya MongoDB) ve repository'ler
//  3. WebSocket Hub
//  4. Service'ler
//  5. Hub callback'leri
//  6. Handler'lar ve route'lar
//  7. HTTP server + graceful shutdown
//
// Global değişken yok; her şey burada oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/config"
	"github.com/agrispine/server/pkg/logger"
	"github.com/agrispine/server/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger henüz kurulmadı.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	mainLog := log.Named("main")
	mainLog.Info("agrispine server starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Database.Driver),
		zap.String("uploads", cfg.Upload.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Repository Layer ───
	repos, closeRepos, err := initRepositories(ctx, cfg, log)
	if err != nil {
		mainLog.Fatal("failed to initialize repositories", zap.Error(err))
	}
	defer closeRepos()

	// ─── WebSocket Hub ───
	hub := ws.NewHub(log.Named("ws"))
	go hub.Run()

	// ─── Service Layer ───
	svcs, err := initServices(ctx, cfg, repos, hub, log)
	if err != nil {
		mainLog.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svcs.Close()

	initHubCallbacks(hub, svcs)

	// ─── Handlers + Router ───
	h := initHandlers(cfg, svcs, hub, log)
	handler := initRoutes(cfg, h, svcs, log)

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout yok: WebSocket bağlantıları uzun ömürlüdür ve
		// yazma süreleri client.WritePump'ta tek tek ayarlanır.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		mainLog.Info("server listening", zap.String("addr", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	mainLog.Info("shutting down")

	// Önce WebSocket bağlantıları kapatılır, sonra HTTP server yeni istek almayı bırakır.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error("forced shutdown", zap.Error(err))
	}

	mainLog.Info("server stopped gracefully")
}
