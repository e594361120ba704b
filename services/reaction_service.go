package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/pkg/metrics"
	"github.com/agrispine/server/repository"
	"github.com/agrispine/server/ws"
)

// ReactionService, yıldız ve emoji tepkileri. Her başarılı değişiklik
// mesajın güncel hâliyle message_updated olarak odaya yayınlanır.
type ReactionService interface {
	ToggleStar(ctx context.Context, id, userID string) (*models.Message, error)

	// React, kullanıcının tepkisini emoji ile değiştirir (kullanıcı başına tek tepki).
	React(ctx context.Context, id, userID, emoji string) (*models.Message, error)
	Unreact(ctx context.Context, id, userID string) (*models.Message, error)
}

type reactionService struct {
	messageRepo repository.MessageRepository
	hub         ws.EventPublisher
	stream      events.Publisher
}

func NewReactionService(
	messageRepo repository.MessageRepository,
	hub ws.EventPublisher,
	stream events.Publisher,
) ReactionService {
	return &reactionService{
		messageRepo: messageRepo,
		hub:         hub,
		stream:      stream,
	}
}

func (s *reactionService) ToggleStar(ctx context.Context, id, userID string) (*models.Message, error) {
	message, err := s.messageRepo.ToggleStar(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.updated(ctx, "star", message, userID)
	return message, nil
}

func (s *reactionService) React(ctx context.Context, id, userID, emoji string) (*models.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, fmt.Errorf("%w: emoji is required", pkg.ErrBadRequest)
	}

	message, err := s.messageRepo.SetReaction(ctx, id, userID, emoji)
	if err != nil {
		return nil, err
	}
	s.updated(ctx, "react", message, userID)
	return message, nil
}

func (s *reactionService) Unreact(ctx context.Context, id, userID string) (*models.Message, error) {
	message, err := s.messageRepo.ClearReaction(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.updated(ctx, "unreact", message, userID)
	return message, nil
}

func (s *reactionService) updated(ctx context.Context, op string, message *models.Message, actorID string) {
	metrics.RecordMutation(op)
	s.hub.BroadcastToRoom(message.Village, ws.Event{Op: ws.OpMessageUpdated, Data: message})
	publish(ctx, s.stream, events.TypeMessageUpdated, message.Village, message.ID, actorID)
}
