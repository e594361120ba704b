package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/cache"
	"github.com/agrispine/server/repository"
)

// MemberService, köy üye dizini ve çevrimiçi durumu.
//
// Üye listesi okundu bilgisinin paydasıdır ve her status isteğinde okunur;
// bu yüzden köy başına TTL cache'te tutulur, yeni katılımda geçersiz kılınır.
type MemberService interface {
	// Join, kullanıcıyı köyün üye dizinine yazar (veya last_seen'ini tazeler).
	Join(ctx context.Context, identity models.Identity, village string) error

	List(ctx context.Context, village string) ([]models.VillageMember, error)
	MemberIDs(ctx context.Context, village string) ([]string, error)

	// Online, odada şu an bağlantısı olan kullanıcılar.
	Online(ctx context.Context, village string) ([]string, error)

	// SetPresence, hub'ın oda giriş/çıkış bildirimlerini presence deposuna yazar.
	SetPresence(ctx context.Context, village, userID string, online bool) error
}

type memberService struct {
	memberRepo   repository.MemberRepository
	presenceRepo repository.PresenceRepository
	members      *cache.TTLCache[string, []models.VillageMember]
	log          *zap.Logger
}

func NewMemberService(
	memberRepo repository.MemberRepository,
	presenceRepo repository.PresenceRepository,
	members *cache.TTLCache[string, []models.VillageMember],
	log *zap.Logger,
) MemberService {
	return &memberService{
		memberRepo:   memberRepo,
		presenceRepo: presenceRepo,
		members:      members,
		log:          log,
	}
}

func (s *memberService) Join(ctx context.Context, identity models.Identity, village string) error {
	village = strings.TrimSpace(village)
	if village == "" {
		return fmt.Errorf("%w: village is required", pkg.ErrBadRequest)
	}

	now := time.Now().UTC()
	err := s.memberRepo.Upsert(ctx, &models.VillageMember{
		Village:    village,
		UserID:     identity.UserID,
		Name:       identity.Name,
		JoinedAt:   now,
		LastSeenAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to record village member: %w", err)
	}

	s.members.Delete(village)
	return nil
}

func (s *memberService) List(ctx context.Context, village string) ([]models.VillageMember, error) {
	if cached, ok := s.members.Get(village); ok {
		return cached, nil
	}

	// Okuma sırasında bir Join cache'i geçersiz kılarsa eski liste yazılmaz.
	gen := s.members.Generation(village)
	members, err := s.memberRepo.ListByVillage(ctx, village)
	if err != nil {
		return nil, fmt.Errorf("failed to list village members: %w", err)
	}

	s.members.SetIfGeneration(village, members, gen)
	return members, nil
}

func (s *memberService) MemberIDs(ctx context.Context, village string) ([]string, error) {
	members, err := s.List(ctx, village)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

func (s *memberService) Online(ctx context.Context, village string) ([]string, error) {
	users, err := s.presenceRepo.Online(ctx, village)
	if err != nil {
		return nil, fmt.Errorf("failed to get online users: %w", err)
	}
	return users, nil
}

func (s *memberService) SetPresence(ctx context.Context, village, userID string, online bool) error {
	var err error
	if online {
		err = s.presenceRepo.Add(ctx, village, userID)
	} else {
		err = s.presenceRepo.Remove(ctx, village, userID)
	}
	if err != nil {
		s.log.Warn("failed to update presence",
			zap.String("village", village),
			zap.String("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err))
		return err
	}
	return nil
}
