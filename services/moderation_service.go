package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/pkg/metrics"
	"github.com/agrispine/server/repository"
	"github.com/agrispine/server/ws"
)

// ModerationService, silme ve temizleme işlemleri.
//
// İki silme ekseni birbirinden bağımsızdır: "herkesten sil" mesajı
// tombstone'a çevirir ve yalnızca gönderen yapabilir; "benden sil" ise
// mesajı sadece isteyen kullanıcının görünümünden gizler ve yayınlanmaz.
type ModerationService interface {
	DeleteForEveryone(ctx context.Context, id, requesterID string) (*models.Message, error)

	// DeleteMany, ids içinden requesterID'nin gönderdiklerini tombstone'a çevirir.
	// Başkasına ait veya olmayan id'ler sessizce atlanır.
	DeleteMany(ctx context.Context, ids []string, requesterID string) ([]models.Message, error)

	DeleteForMe(ctx context.Context, ids []string, viewerID string) (int64, error)

	// ClearChat, köyde yıldızsız tüm mesajları kalıcı olarak siler.
	ClearChat(ctx context.Context, village, actorID string) (int64, error)
}

type moderationService struct {
	messageRepo repository.MessageRepository
	hub         ws.EventPublisher
	stream      events.Publisher
	log         *zap.Logger
}

func NewModerationService(
	messageRepo repository.MessageRepository,
	hub ws.EventPublisher,
	stream events.Publisher,
	log *zap.Logger,
) ModerationService {
	return &moderationService{
		messageRepo: messageRepo,
		hub:         hub,
		stream:      stream,
		log:         log,
	}
}

func (s *moderationService) DeleteForEveryone(ctx context.Context, id, requesterID string) (*models.Message, error) {
	message, err := s.messageRepo.SoftDeleteForEveryone(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation("delete")

	// Önce güncel nesne (tombstone), sonra silindi sinyali.
	s.hub.BroadcastToRoom(message.Village, ws.Event{Op: ws.OpMessageUpdated, Data: message})
	s.hub.BroadcastToRoom(message.Village, ws.Event{
		Op:   ws.OpMessageDeleted,
		Data: ws.MessageDeletedData{ID: message.ID, Village: message.Village},
	})
	publish(ctx, s.stream, events.TypeMessageDeleted, message.Village, message.ID, requesterID)

	return message, nil
}

func (s *moderationService) DeleteMany(ctx context.Context, ids []string, requesterID string) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: message_ids is required", pkg.ErrBadRequest)
	}

	deleted, err := s.messageRepo.SoftDeleteOwned(ctx, ids, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}
	if len(deleted) == 0 {
		return deleted, nil
	}

	metrics.RecordMutation("delete_many")

	// Mesajlar farklı köylerden olabilir; her köye yalnızca kendi id'leri gider.
	byVillage := make(map[string][]string)
	var order []string
	for i := range deleted {
		m := &deleted[i]
		s.hub.BroadcastToRoom(m.Village, ws.Event{Op: ws.OpMessageUpdated, Data: m})
		if _, ok := byVillage[m.Village]; !ok {
			order = append(order, m.Village)
		}
		byVillage[m.Village] = append(byVillage[m.Village], m.ID)
	}
	for _, village := range order {
		s.hub.BroadcastToRoom(village, ws.Event{
			Op:   ws.OpBulkDelete,
			Data: ws.BulkDeleteData{IDs: byVillage[village], Village: village},
		})
		publish(ctx, s.stream, events.TypeBulkDelete, village, "", requesterID)
	}

	s.log.Debug("bulk delete", zap.String("requester_id", requesterID), zap.Int("count", len(deleted)))
	return deleted, nil
}

func (s *moderationService) DeleteForMe(ctx context.Context, ids []string, viewerID string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: message_ids is required", pkg.ErrBadRequest)
	}

	n, err := s.messageRepo.DeleteForMe(ctx, ids, viewerID)
	if err != nil {
		return 0, fmt.Errorf("failed to hide messages: %w", err)
	}

	metrics.RecordMutation("delete_for_me")
	return n, nil
}

func (s *moderationService) ClearChat(ctx context.Context, village, actorID string) (int64, error) {
	village = strings.TrimSpace(village)
	if village == "" {
		return 0, fmt.Errorf("%w: village is required", pkg.ErrBadRequest)
	}

	removed, err := s.messageRepo.SweepUnstarred(ctx, village)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat: %w", err)
	}

	metrics.RecordMutation("clear")
	s.log.Info("chat cleared",
		zap.String("village", village),
		zap.String("actor_id", actorID),
		zap.Int64("removed", removed))

	s.hub.BroadcastToRoom(village, ws.Event{
		Op:   ws.OpChatCleared,
		Data: ws.ChatClearedData{Village: village, Removed: removed},
	})
	publish(ctx, s.stream, events.TypeChatCleared, village, "", actorID)

	return removed, nil
}
