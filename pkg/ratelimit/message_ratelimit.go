package ratelimit

import (
	"sync"
	"time"
)

// messageBucket, bir kullanıcının pencere sayacı ve (varsa) ceza bitişi.
type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter, send_message için kullanıcı bazlı spam koruması.
//
// window içinde maxMessages'tan fazla mesaj gönderen kullanıcı cooldown
// boyunca susturulur; cooldown bitince sayaç sıfırdan başlar.
//
//	limiter := NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
//	if !limiter.Allow(userID) { ... }
type MessageRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stop:        make(chan struct{}),
	}
	go runCleanup(30*time.Second, rl.stop, rl.cleanup)
	return rl
}

// Allow, mesajın kabul edilip edilmeyeceğini söyler ve sayacı ilerletir.
// maxMessages <= 0 ise limit kapalıdır.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	if rl.maxMessages <= 0 {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[userID]
	if !ok {
		rl.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		*b = messageBucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds, kalan ceza süresi (yukarı yuvarlanmış). Ceza yoksa 0.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[userID]
	if !ok || b.cooldownUntil.IsZero() {
		return 0
	}
	return ceilSeconds(time.Until(b.cooldownUntil))
}

func (rl *MessageRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup: hem penceresi hem cezası bitmiş kovalar silinir.
func (rl *MessageRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
