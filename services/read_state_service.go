package services

import (
	"context"
	"fmt"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/repository"
	"github.com/agrispine/server/ws"
)

// ComputeTickStatus, gönderenin göreceği okundu işaretini hesaplar.
//
// Oda üyeleri bilinmiyorsa (boş liste) unknown; gönderen dışındaki her üye
// readBy içindeyse delivered_all; aksi halde sent. Gönderen tek üyeyse
// okuması gereken kimse kalmadığından delivered_all döner.
func ComputeTickStatus(readBy, roomMembers []string, senderID string) models.TickStatus {
	if len(roomMembers) == 0 {
		return models.TickUnknown
	}

	read := make(map[string]bool, len(readBy))
	for _, u := range readBy {
		read[u] = true
	}

	for _, member := range roomMembers {
		if member == senderID {
			continue
		}
		if !read[member] {
			return models.TickSent
		}
	}
	return models.TickDeliveredAll
}

// ReadStateService, okundu işaretleme ve tick durumu.
type ReadStateService interface {
	// MarkRead, kullanıcıyı köydeki tüm mesajların okuyanlarına ekler ve
	// odadaki diğer kullanıcılara messages_read_update yollar.
	MarkRead(ctx context.Context, village, userID string) (int64, error)

	Status(ctx context.Context, village, messageID string) (*models.MessageStatus, error)
}

type readStateService struct {
	messageRepo repository.MessageRepository
	members     MemberService
	hub         ws.EventPublisher
	stream      events.Publisher
}

func NewReadStateService(
	messageRepo repository.MessageRepository,
	members MemberService,
	hub ws.EventPublisher,
	stream events.Publisher,
) ReadStateService {
	return &readStateService{
		messageRepo: messageRepo,
		members:     members,
		hub:         hub,
		stream:      stream,
	}
}

func (s *readStateService) MarkRead(ctx context.Context, village, userID string) (int64, error) {
	n, err := s.messageRepo.MarkReadBulk(ctx, village, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	s.hub.BroadcastToRoomExcept(village, userID, ws.Event{
		Op:   ws.OpMessagesReadUpdate,
		Data: ws.ReadUpdateData{UserID: userID, Village: village},
	})
	if n > 0 {
		publish(ctx, s.stream, events.TypeReadUpdate, village, "", userID)
	}
	return n, nil
}

func (s *readStateService) Status(ctx context.Context, village, messageID string) (*models.MessageStatus, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.Village != village {
		return nil, fmt.Errorf("%w: message does not belong to this village", pkg.ErrNotFound)
	}

	members, err := s.members.MemberIDs(ctx, village)
	if err != nil {
		return nil, err
	}

	readCount := 0
	for _, m := range members {
		if m != message.SenderID && message.HasRead(m) {
			readCount++
		}
	}
	others := len(members)
	for _, m := range members {
		if m == message.SenderID {
			others--
			break
		}
	}

	return &models.MessageStatus{
		MessageID:   message.ID,
		Status:      ComputeTickStatus(message.ReadBy, members, message.SenderID),
		ReadCount:   readCount,
		MemberCount: others,
	}, nil
}
