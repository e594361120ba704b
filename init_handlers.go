// Package main: Handler katmanı başlatma.
package main

import (
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/config"
	"github.com/agrispine/server/handlers"
	"github.com/agrispine/server/middleware"
	"github.com/agrispine/server/pkg/ratelimit"
	"github.com/agrispine/server/ws"
)

// Yükleme limiti: IP başına dakikada 20 dosya.
const (
	uploadBurst  = 20
	uploadWindow = time.Minute
)

// Handlers, tüm HTTP handler'larını ve middleware'ları tutar.
type Handlers struct {
	Chat   *handlers.ChatHandler
	Upload *handlers.UploadHandler
	Health *handlers.HealthHandler
	WS     *ws.Handler
	Auth   *middleware.AuthMiddleware
}

func initHandlers(cfg *config.Config, svcs *Services, hub *ws.Hub, log *zap.Logger) *Handlers {
	uploadLimiter := ratelimit.NewIPRateLimiter(uploadBurst, uploadWindow)

	return &Handlers{
		Chat: handlers.NewChatHandler(
			svcs.Message,
			svcs.Moderation,
			svcs.Reaction,
			svcs.Member,
			svcs.ReadState,
		),
		Upload: handlers.NewUploadHandler(svcs.Upload, uploadLimiter, cfg.Upload.MaxSize, log.Named("upload")),
		Health: handlers.NewHealthHandler(cfg.Database.Driver, hub.ConnectionCount),
		WS:     ws.NewHandler(hub, svcs.Auth, originChecker(cfg.Server.AllowedOrigins)),
		Auth:   middleware.NewAuthMiddleware(svcs.Auth),
	}
}

// originChecker: liste boşsa tüm origin'ler kabul edilir (mobil istemciler Origin göndermez).
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
