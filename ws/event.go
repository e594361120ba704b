// Package ws, köy sohbet odalarının WebSocket kanalını yönetir.
//
// Mimari:
// - Hub: bağlantıları ve köy odalarını tutan merkezi yapı
// - Client: tek bir WebSocket bağlantısı (ReadPump + WritePump)
// - Event: iki yönde de kullanılan {op, d, seq} zarfı
//
// Akış:
// 1. Client /ws?token=... ile bağlanır, join_village ile odaya girer
// 2. send_message → callback → service → store'a yazılır
// 3. Service, EventPublisher.BroadcastToRoom ile odaya receive_message yollar
// 4. Her client'ın WritePump'ı event'i sokete yazar
package ws

// Event, WebSocket üzerinden taşınan tek mesaj.
//
// Seq, hub genelinde artan sayaçtır; client eksik event'i seq boşluğundan anlar.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat     = "heartbeat"
	OpJoinVillage   = "join_village"
	OpSendMessage   = "send_message"
	OpDeleteMessage = "delete_message" // client tarafı silme sonrası relay isteği
	OpUpdateMessage = "update_message" // client tarafı değişiklik sonrası relay isteği
	OpMarkRead      = "mark_read"
)

// Server → Client
const (
	OpHeartbeatAck       = "heartbeat_ack"
	OpReceiveMessage     = "receive_message"
	OpMessageUpdated     = "message_updated"
	OpMessageDeleted     = "message_deleted"
	OpBulkDelete         = "bulk_delete"
	OpChatCleared        = "chat_cleared"
	OpMessagesReadUpdate = "messages_read_update"
	OpError              = "error"
)

// Error event kodları.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeNotJoined    = "not_joined"
	ErrCodeInternal     = "internal"
)

// ─── Client → Server payload'ları ───

type JoinVillageData struct {
	Village string `json:"village"`
	UserID  string `json:"user_id"`
}

type DeleteMessageData struct {
	MessageID string `json:"message_id"`
	Village   string `json:"village"`
}

// UpdateMessageData: client tüm mesaj nesnesini yollar ama sunucu
// yalnızca id'yi kullanır; yayınlanan içerik store'dan yeniden okunur.
type UpdateMessageData struct {
	Message MessageRef `json:"message"`
	Village string     `json:"village"`
}

type MessageRef struct {
	ID string `json:"id"`
}

type MarkReadData struct {
	Village string `json:"village"`
}

// ─── Server → Client payload'ları ───

type MessageDeletedData struct {
	ID      string `json:"id"`
	Village string `json:"village"`
}

type BulkDeleteData struct {
	IDs     []string `json:"ids"`
	Village string   `json:"village"`
}

type ChatClearedData struct {
	Village string `json:"village"`
	Removed int64  `json:"removed"`
}

type ReadUpdateData struct {
	UserID  string `json:"user_id"`
	Village string `json:"village"`
}

// ErrorData, yalnızca işlemi yapan bağlantıya gönderilir.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Op      string `json:"op,omitempty"`
}
