package models

import "time"

// VillageMember, bir köy odasına en az bir kez katılmış kullanıcı.
// Okundu bilgisi (tick) hesaplanırken oda üyeleri bu listeden gelir.
type VillageMember struct {
	Village    string    `json:"village" bson:"village"`
	UserID     string    `json:"user_id" bson:"user_id"`
	Name       string    `json:"name" bson:"name"`
	JoinedAt   time.Time `json:"joined_at" bson:"joined_at"`
	LastSeenAt time.Time `json:"last_seen_at" bson:"last_seen_at"`
}

// Identity, doğrulanmış token'dan çıkarılan çağıran kullanıcı.
// Kimlik yönetimi dış sistemdedir; burada sadece okunur.
type Identity struct {
	UserID  string
	Name    string
	Village string
}
