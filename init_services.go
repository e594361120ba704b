// Package main: Service katmanı başlatma.
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/config"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg/cache"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/pkg/storage"
	"github.com/agrispine/server/services"
	"github.com/agrispine/server/ws"
)

// memberCacheTTL, köy üye listesinin cache'te kalma süresi.
const memberCacheTTL = 30 * time.Second

// Services, tüm service instance'larını ve kapatılması gereken
// yardımcı kaynakları tutar.
type Services struct {
	Auth       services.AuthService
	Message    services.MessageService
	Moderation services.ModerationService
	Reaction   services.ReactionService
	Member     services.MemberService
	ReadState  services.ReadStateService
	Upload     services.UploadService

	Store  storage.ObjectStore
	Stream events.Publisher

	memberCache *cache.TTLCache[string, []models.VillageMember]
	log         *zap.Logger
}

func initServices(
	ctx context.Context,
	cfg *config.Config,
	repos *Repositories,
	hub *ws.Hub,
	log *zap.Logger,
) (*Services, error) {
	chatLog := log.Named("chat")

	var stream events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		stream = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Named("events"))
		chatLog.Info("chat event stream enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	store, err := initObjectStore(ctx, cfg.Upload)
	if err != nil {
		_ = stream.Close()
		return nil, err
	}

	memberCache := cache.New[string, []models.VillageMember](memberCacheTTL, time.Minute)

	members := services.NewMemberService(repos.Member, repos.Presence, memberCache, chatLog)

	return &Services{
		Auth:       services.NewAuthService(cfg.JWT.Secret),
		Message:    services.NewMessageService(repos.Message, hub, stream, chatLog),
		Moderation: services.NewModerationService(repos.Message, hub, stream, chatLog),
		Reaction:   services.NewReactionService(repos.Message, hub, stream),
		Member:     members,
		ReadState:  services.NewReadStateService(repos.Message, members, hub, stream),
		Upload:     services.NewUploadService(store, cfg.Upload.MaxSize, log.Named("upload")),

		Store:       store,
		Stream:      stream,
		memberCache: memberCache,
		log:         log,
	}, nil
}

func initObjectStore(ctx context.Context, cfg config.UploadConfig) (storage.ObjectStore, error) {
	if cfg.Backend == config.UploadBackendS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 store: %w", err)
		}
		return store, nil
	}

	prefix := cfg.PublicURL
	if prefix == "" {
		prefix = "/api/uploads/"
	}
	store, err := storage.NewLocalStore(cfg.Dir, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to init local store: %w", err)
	}
	return store, nil
}

// Close, arka plan kaynaklarını bırakır; bekleyen Kafka mesajları flush edilir.
func (s *Services) Close() {
	s.memberCache.Close()
	if err := s.Stream.Close(); err != nil {
		s.log.Warn("failed to close event stream", zap.Error(err))
	}
}
