package models

// TickStatus, bir mesajın gönderene gösterilen okundu işareti.
// Hiçbir zaman saklanmaz; read_by ve oda üyelerinden her seferinde hesaplanır.
type TickStatus string

const (
	TickSent         TickStatus = "sent"          // tek/gri tik
	TickDeliveredAll TickStatus = "delivered_all" // gönderen dışındaki herkes okudu
	TickUnknown      TickStatus = "unknown"       // oda üyeleri bilinmiyor
)

// MessageStatus, GET /api/chat/{village}/messages/{id}/status yanıtı.
type MessageStatus struct {
	MessageID   string     `json:"message_id"`
	Status      TickStatus `json:"status"`
	ReadCount   int        `json:"read_count"`
	MemberCount int        `json:"member_count"`
}
