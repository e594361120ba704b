// Package events, kalıcı hale gelen sohbet değişikliklerini dış sistemlere
// (analitik, bildirim servisi vb.) akıtan yayıncı soyutlaması.
//
// Yayın fire-and-forget'tir: Publish hiçbir zaman sohbet işlemini bloklamaz
// ve hata dönmez; teslim hataları yayıncının kendi logger'ına yazılır.
package events

import (
	"context"
	"time"
)

// Event tipleri.
const (
	TypeMessageSent    = "message_sent"
	TypeMessageUpdated = "message_updated"
	TypeMessageDeleted = "message_deleted"
	TypeBulkDelete     = "bulk_delete"
	TypeChatCleared    = "chat_cleared"
	TypeReadUpdate     = "messages_read"
)

// ChatEvent, akışa yazılan tek kayıt.
type ChatEvent struct {
	Type      string    `json:"type"`
	Village   string    `json:"village"`
	MessageID string    `json:"message_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event ChatEvent)
	Close() error
}

// Nop, KAFKA_BROKERS ayarlı değilken kullanılan boş yayıncı.
type Nop struct{}

func (Nop) Publish(context.Context, ChatEvent) {}
func (Nop) Close() error                       { return nil }
