package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/pkg/metrics"
	"github.com/agrispine/server/repository"
	"github.com/agrispine/server/ws"
)

// MessageService, mesaj gönderme, geçmiş ve client relay'leri.
type MessageService interface {
	// Send, mesajı doğrular, kaydeder ve odaya receive_message olarak yayınlar.
	// Kayıt başarısızsa hiçbir şey yayınlanmaz.
	Send(ctx context.Context, sender models.Identity, req *models.SendMessageRequest) (*models.Message, error)

	// List, köyün viewerID için görünür geçmişi (eskiden yeniye).
	List(ctx context.Context, village, viewerID string) ([]models.Message, error)

	// Relay, client'ın bildirdiği değişikliği store'daki güncel hâliyle yayınlar:
	// tombstone'lu mesaj için message_deleted, aksi halde message_updated.
	Relay(ctx context.Context, actorID, village, messageID string) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	hub         ws.EventPublisher
	stream      events.Publisher
	log         *zap.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	hub ws.EventPublisher,
	stream events.Publisher,
	log *zap.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		hub:         hub,
		stream:      stream,
		log:         log,
	}
}

func (s *messageService) Send(ctx context.Context, sender models.Identity, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	village := strings.TrimSpace(req.Village)
	if village == "" {
		return nil, fmt.Errorf("%w: village is required", pkg.ErrBadRequest)
	}

	// Token'da isim varsa o kullanılır; gönderim anındaki isim mesajda donar.
	name := sender.Name
	if name == "" {
		name = strings.TrimSpace(req.SenderName)
	}

	createdAt := time.Now().UTC()
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		createdAt = req.CreatedAt.UTC()
	}

	message := &models.Message{
		SenderID:   sender.UserID,
		SenderName: name,
		Village:    village,
		Text:       req.Text,
		Image:      req.Image,
		Audio:      req.Audio,
		ReplyTo:    req.ReplyTo,
		ReplyText:  req.ReplyText,
		CreatedAt:  createdAt,
	}
	if message.ReplyTo == nil {
		message.ReplyText = ""
	}

	if err := s.messageRepo.Insert(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	metrics.MessagesSent.Inc()
	s.log.Debug("message sent",
		zap.String("message_id", message.ID),
		zap.String("village", village),
		zap.String("sender_id", sender.UserID))

	s.hub.BroadcastToRoom(village, ws.Event{Op: ws.OpReceiveMessage, Data: message})
	publish(ctx, s.stream, events.TypeMessageSent, village, message.ID, sender.UserID)

	return message, nil
}

func (s *messageService) List(ctx context.Context, village, viewerID string) ([]models.Message, error) {
	village = strings.TrimSpace(village)
	if village == "" {
		return nil, fmt.Errorf("%w: village is required", pkg.ErrBadRequest)
	}

	messages, err := s.messageRepo.ListVisible(ctx, village, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *messageService) Relay(ctx context.Context, actorID, village, messageID string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.Village != village {
		return fmt.Errorf("%w: message does not belong to this village", pkg.ErrNotFound)
	}

	if message.IsDeleted {
		s.hub.BroadcastToRoom(village, ws.Event{
			Op:   ws.OpMessageDeleted,
			Data: ws.MessageDeletedData{ID: message.ID, Village: village},
		})
		return nil
	}

	s.hub.BroadcastToRoom(village, ws.Event{Op: ws.OpMessageUpdated, Data: message})
	return nil
}

// publish, olay akışına fire-and-forget yazar.
func publish(ctx context.Context, stream events.Publisher, typ, village, messageID, actorID string) {
	if stream == nil {
		return
	}
	stream.Publish(ctx, events.ChatEvent{
		Type:      typ,
		Village:   village,
		MessageID: messageID,
		ActorID:   actorID,
		At:        time.Now().UTC(),
	})
}
