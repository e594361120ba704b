// Package main: Repository katmanı başlatma.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agrispine/server/config"
	"github.com/agrispine/server/database"
	"github.com/agrispine/server/repository"
)

// presenceTTL, Redis presence hash'inin süresi. Her join'de yenilenir;
// sunucu çökerse kalan sayaçlar bu süre sonunda silinir.
const presenceTTL = 24 * time.Hour

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	Message  repository.MessageRepository
	Member   repository.MemberRepository
	Presence repository.PresenceRepository
}

// initRepositories, seçilen mesaj deposuna ve (varsa) Redis'e bağlanır.
// Dönen fonksiyon tüm bağlantıları kapatır.
func initRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Repositories, func(), error) {
	repos := &Repositories{}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Database.Driver {
	case config.DriverMongo:
		m, err := database.ConnectMongo(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabase, log.Named("database"))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(ctx); err != nil {
				log.Warn("failed to close mongo", zap.Error(err))
			}
		})
		repos.Message = repository.NewMongoMessageRepo(m.DB)
		repos.Member = repository.NewMongoMemberRepo(m.DB)

	default:
		db, err := database.New(cfg.Database.Path, database.Migrations(), log.Named("database"))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		repos.Message = repository.NewSQLiteMessageRepo(db.Conn)
		repos.Member = repository.NewSQLiteMemberRepo(db.Conn)
	}

	if cfg.Redis.Addr == "" {
		repos.Presence = repository.NewMemoryPresenceRepo()
		return repos, closeAll, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		closeAll()
		return nil, nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Redis.Addr, err)
	}
	closers = append(closers, func() { _ = client.Close() })

	repos.Presence = repository.NewRedisPresenceRepo(client, "agrispine", presenceTTL)
	log.Named("database").Info("redis presence enabled", zap.String("addr", cfg.Redis.Addr))

	return repos, closeAll, nil
}
