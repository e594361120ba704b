// Package main: Hub callback bağlantıları.
//
// ws paketi service'lere bağımlı değildir; client event'lerinin iş
// mantığına nasıl ulaşacağı burada bağlanır.
package main

import (
	"context"
	"time"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg/ratelimit"
	"github.com/agrispine/server/ws"
)

// send_message limiti: 5 saniyede 5 mesaj, aşılırsa 15 saniye bekleme.
const (
	messageBurst    = 5
	messageWindow   = 5 * time.Second
	messageCooldown = 15 * time.Second
)

func initHubCallbacks(hub *ws.Hub, svcs *Services) {
	// join_village: üyeliği kaydet, sonra köydeki her şeyi okundu işaretle.
	hub.OnJoin(func(ctx context.Context, s ws.Session) error {
		if err := svcs.Member.Join(ctx, models.Identity{UserID: s.UserID, Name: s.Name}, s.Village); err != nil {
			return err
		}
		_, err := svcs.ReadState.MarkRead(ctx, s.Village, s.UserID)
		return err
	})

	hub.OnSendMessage(func(ctx context.Context, s ws.Session, req models.SendMessageRequest) error {
		_, err := svcs.Message.Send(ctx, models.Identity{UserID: s.UserID, Name: s.Name}, &req)
		return err
	})

	hub.OnRelay(func(ctx context.Context, s ws.Session, village, messageID string) error {
		return svcs.Message.Relay(ctx, s.UserID, village, messageID)
	})

	hub.OnMarkRead(func(ctx context.Context, s ws.Session, village string) error {
		_, err := svcs.ReadState.MarkRead(ctx, village, s.UserID)
		return err
	})

	// Presence hatası bağlantıyı etkilemez; SetPresence kendisi loglar.
	hub.OnPresence(func(ctx context.Context, village, userID string, online bool) {
		_ = svcs.Member.SetPresence(ctx, village, userID, online)
	})

	hub.SetMessageLimiter(ratelimit.NewMessageRateLimiter(messageBurst, messageWindow, messageCooldown))
}
