// Package main: HTTP route tanımları.
package main

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/agrispine/server/config"
	"github.com/agrispine/server/middleware"
	"github.com/agrispine/server/pkg/storage"
)

// initRoutes, tüm endpoint'leri bağlar ve CORS + metrics sarmalı handler'ı döner.
func initRoutes(cfg *config.Config, h *Handlers, svcs *Services, log *zap.Logger) http.Handler {
	api := http.NewServeMux()
	auth := h.Auth.RequireFunc

	// Sohbet: tamamı kimlik ister.
	api.Handle("GET /api/chat/{village}", auth(h.Chat.List))
	api.Handle("DELETE /api/chat/delete/{id}", auth(h.Chat.Delete))
	api.Handle("DELETE /api/chat/clear/{village}", auth(h.Chat.Clear))
	api.Handle("PUT /api/chat/star/{id}", auth(h.Chat.Star))
	api.Handle("PUT /api/chat/react/{id}", auth(h.Chat.React))
	api.Handle("PUT /api/chat/react/remove/{id}", auth(h.Chat.Unreact))
	api.Handle("POST /api/chat/delete-multiple", auth(h.Chat.DeleteMultiple))
	api.Handle("PUT /api/chat/delete-for-me", auth(h.Chat.DeleteForMe))
	api.Handle("POST /api/chat/upload", auth(h.Upload.Upload))

	api.Handle("GET /api/chat/{village}/members", auth(h.Chat.Members))
	api.Handle("GET /api/chat/{village}/online", auth(h.Chat.Online))
	api.Handle("GET /api/chat/{village}/messages/{id}/status", auth(h.Chat.Status))

	api.HandleFunc("GET /api/health", h.Health.Check)

	// Yerel diskteki yüklemeler. S3 kullanılıyorsa URL'ler doğrudan bucket'ı gösterir.
	if local, ok := svcs.Store.(*storage.LocalStore); ok {
		files := http.FileServer(http.Dir(local.Dir()))
		api.Handle("GET /api/uploads/", http.StripPrefix("/api/uploads/", http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				// Yalnızca düz dosya adları; alt dizin yok.
				if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
					http.NotFound(w, r)
					return
				}
				files.ServeHTTP(w, r)
			})))
	}

	root := http.NewServeMux()
	root.Handle("/api/", middleware.Instrument(log.Named("http"), api))
	root.Handle("GET /metrics", promhttp.Handler())

	// WebSocket instrument edilmez: bağlantı süresi istek süresi değildir
	// ve sarmalayıcı Hijack'i gizlememeli. Token ?token= ile gelir.
	root.HandleFunc("GET /ws", h.WS.HandleConnection)

	allowed := cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "auth-token", "Content-Type"},
	})

	return c.Handler(root)
}
