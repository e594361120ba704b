// Package ratelimit, bellek içi sabit pencereli hız sınırlayıcılar.
//
// MessageRateLimiter WebSocket üzerinden gelen mesajları kullanıcı bazında,
// IPRateLimiter ise kimliği henüz belli olmayan HTTP uçlarını (görsel yükleme)
// IP bazında sınırlar. Paket proje içi hiçbir pakete bağımlı değildir.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// IPRateLimiter, window başına en fazla maxRequests isteğe izin verir.
type IPRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxRequests int
	window      time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func NewIPRateLimiter(maxRequests int, window time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		buckets:     make(map[string]*bucket),
		maxRequests: maxRequests,
		window:      window,
		stop:        make(chan struct{}),
	}
	go runCleanup(time.Minute, rl.stop, rl.cleanup)
	return rl
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.maxRequests <= 0 {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.windowStart) > rl.window {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxRequests
}

// RetryAfterSeconds, Retry-After header'ı için kalan pencere süresi.
func (rl *IPRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[ip]
	if !ok {
		return 0
	}
	return ceilSeconds(rl.window - time.Since(b.windowStart))
}

func (rl *IPRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *IPRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// ExtractIP, istemci IP'sini döner.
// Öncelik: X-Forwarded-For'un ilk değeri, X-Real-IP, RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func runCleanup(every time.Duration, stop <-chan struct{}, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-stop:
			return
		}
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds()) + 1
}
