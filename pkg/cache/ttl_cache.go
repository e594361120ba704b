// Package cache, süreli (TTL) generic bellek içi cache.
//
// Köy üye listesi gibi sık okunan, nadiren değişen veriler için kullanılır.
// Süresi dolan kayıt Get'te görünmez; map'ten fiziksel silme arka plandaki
// temizleyici goroutine'de yapılır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, goroutine-safe generic cache.
//
//	members := cache.New[string, []models.VillageMember](30*time.Second, time.Minute)
//	members.Set("kuzey", list)
//	list, ok := members.Get("kuzey")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	gens    map[K]uint64
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// New, cache'i oluşturur ve temizleyiciyi başlatır.
// cleanupInterval, ttl'den kısa tutulmalı.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		gens:    make(map[K]uint64),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stop:
				return
			}
		}
	}()

	return c
}

// Get, süresi dolmamış değeri döner.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete, kaydı geçersiz kılar (örn. köye yeni üye katıldığında) ve
// anahtarın kuşağını artırır.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.gens[key]++
}

// Generation, anahtarın şu anki kuşağını döner. Kaynaktan yüklemeden
// önce okunur ve SetIfGeneration'a verilir.
func (c *TTLCache[K, V]) Generation(key K) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[key]
}

// SetIfGeneration, yükleme sırasında araya bir Delete girmediyse değeri yazar.
// Girdiyse eski veri cache'e konmaz ve false döner.
//
//	gen := members.Generation(village)
//	list, _ := repo.ListByVillage(ctx, village)
//	members.SetIfGeneration(village, list, gen)
func (c *TTLCache[K, V]) SetIfGeneration(key K, value V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return false
	}
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	return true
}

// Len, süresi dolmuş ama henüz temizlenmemiş kayıtlar dahil toplam sayı.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, temizleyiciyi durdurur. Birden fazla çağrılabilir.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
