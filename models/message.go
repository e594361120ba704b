// Package models, sohbet çekirdeğinin veri yapılarını ve istek gövdelerini tanımlar.
//
// json tag'leri REST ve WebSocket yüklerinin şeklini, bson tag'leri
// MongoDB doküman alanlarını belirler.
package models

import (
	"strings"
	"time"

	"github.com/agrispine/server/pkg/validate"
)

// DeletedPlaceholder, herkesten silinen mesajın text alanına yazılan sabit.
const DeletedPlaceholder = "This message was deleted"

// MaxTextLength, bir mesaj metninin rune cinsinden üst sınırı.
const MaxTextLength = 2000

// Message, bir köy sohbet odasındaki tek bir mesaj.
//
// village ve sender_id oluşturulduktan sonra asla değişmez.
// sender_name gönderim anındaki görünen adın dondurulmuş kopyasıdır;
// kullanıcı adını sonradan değiştirse bile eski mesajlar eski adı taşır.
//
// Slice alanları hiçbir zaman nil olarak dışarı verilmez (JSON'da null yerine []).
// Bunun için store katmanı Normalize() çağırır.
type Message struct {
	ID         string     `json:"id" bson:"_id"`
	SenderID   string     `json:"sender_id" bson:"sender_id"`
	SenderName string     `json:"sender_name" bson:"sender_name"`
	Village    string     `json:"village" bson:"village"`
	Text       string     `json:"text" bson:"text"`
	Image      string     `json:"image" bson:"image"`
	Audio      string     `json:"audio" bson:"audio"`
	ReplyTo    *string    `json:"reply_to" bson:"reply_to"`
	ReplyText  string     `json:"reply_text" bson:"reply_text"`
	StarredBy  []string   `json:"starred_by" bson:"starred_by"`
	ReadBy     []string   `json:"read_by" bson:"read_by"`
	Reactions  []Reaction `json:"reactions" bson:"reactions"`
	DeletedBy  []string   `json:"deleted_by" bson:"deleted_by"`
	IsDeleted  bool       `json:"is_deleted" bson:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// Reaction, bir kullanıcının mesaja bıraktığı tek emoji.
// Bir mesajda kullanıcı başına en fazla bir Reaction bulunur.
type Reaction struct {
	UserID string `json:"user_id" bson:"user_id"`
	Emoji  string `json:"emoji" bson:"emoji"`
}

// Normalize, nil slice'ları boş slice'a çevirir.
func (m *Message) Normalize() {
	if m.StarredBy == nil {
		m.StarredBy = []string{}
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	if m.Reactions == nil {
		m.Reactions = []Reaction{}
	}
	if m.DeletedBy == nil {
		m.DeletedBy = []string{}
	}
}

// Tombstone, mesajı "herkesten silindi" durumuna getirir.
// Birden fazla kez çağrılması sonucu değiştirmez.
func (m *Message) Tombstone() {
	m.IsDeleted = true
	m.Text = DeletedPlaceholder
	m.Reactions = []Reaction{}
	m.ReplyText = ""
}

// IsStarredBy, kullanıcının mesajı yıldızlayıp yıldızlamadığını söyler.
func (m *Message) IsStarredBy(userID string) bool {
	return contains(m.StarredBy, userID)
}

// HasRead, kullanıcının mesajı okuyup okumadığını söyler.
func (m *Message) HasRead(userID string) bool {
	return contains(m.ReadBy, userID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SendMessageRequest, send_message event'inin payload'ı.
//
// sender_id payload'da gelse bile yok sayılır; gönderen her zaman
// doğrulanmış bağlantının kullanıcısıdır. sender_name yalnızca token'da
// isim yoksa kullanılır. created_at gelmezse sunucu saati yazılır.
type SendMessageRequest struct {
	Village    string     `json:"village"`
	SenderName string     `json:"sender_name"`
	Text       string     `json:"text" validate:"required_without_all=Image Audio,max=2000"`
	Image      string     `json:"image"`
	Audio      string     `json:"audio" validate:"excluded_with=Text Image"`
	ReplyTo    *string    `json:"reply_to"`
	ReplyText  string     `json:"reply_text"`
	CreatedAt  *time.Time `json:"created_at"`
}

// Validate, alanları kırpar ve içerik şeklini kontrol eder:
// text, image veya audio'dan en az biri dolu olmalı; audio mesajı
// text veya image taşıyamaz; text en fazla MaxTextLength rune olabilir.
// Hata pkg.ErrBadRequest ile sarılıdır.
func (r *SendMessageRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.Image = strings.TrimSpace(r.Image)
	r.Audio = strings.TrimSpace(r.Audio)
	if r.ReplyTo != nil && strings.TrimSpace(*r.ReplyTo) == "" {
		r.ReplyTo = nil
	}
	return validate.Struct(r)
}

// ReactRequest, PUT /api/chat/react/{id} gövdesi.
type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

// MessageIDsRequest, toplu silme endpoint'lerinin gövdesi.
type MessageIDsRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,max=500,dive,required"`
}
