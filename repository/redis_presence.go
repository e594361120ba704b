package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPresenceRepo, birden fazla sunucu örneği aynı köyleri paylaştığında
// kullanılır. Her köy için bir hash tutulur: alan = user_id, değer = açık
// bağlantı sayısı. Anahtar her Add'de ttl kadar uzatılır; çöken bir örneğin
// bıraktığı sayaçlar böylece kendiliğinden temizlenir.
type redisPresenceRepo struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisPresenceRepo, constructor: interface döner.
func NewRedisPresenceRepo(client redis.UniversalClient, prefix string, ttl time.Duration) PresenceRepository {
	return &redisPresenceRepo{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisPresenceRepo) key(village string) string {
	return fmt.Sprintf("%s:presence:%s", r.prefix, village)
}

func (r *redisPresenceRepo) Add(ctx context.Context, village, userID string) error {
	key := r.key(village)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, userID, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add presence: %w", err)
	}
	return nil
}

func (r *redisPresenceRepo) Remove(ctx context.Context, village, userID string) error {
	key := r.key(village)

	n, err := r.client.HIncrBy(ctx, key, userID, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}
	if n <= 0 {
		if err := r.client.HDel(ctx, key, userID).Err(); err != nil {
			return fmt.Errorf("failed to clear presence: %w", err)
		}
	}
	return nil
}

func (r *redisPresenceRepo) Online(ctx context.Context, village string) ([]string, error) {
	counts, err := r.client.HGetAll(ctx, r.key(village)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	users := make([]string, 0, len(counts))
	for u, c := range counts {
		if n, err := strconv.Atoi(c); err == nil && n > 0 {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users, nil
}
