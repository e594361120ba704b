package repository

import (
	"context"
	"sort"
	"sync"
)

// memoryPresenceRepo, tek süreçlik kurulum için varsayılan presence deposu.
type memoryPresenceRepo struct {
	mu    sync.RWMutex
	rooms map[string]map[string]int
}

// NewMemoryPresenceRepo, constructor: interface döner.
func NewMemoryPresenceRepo() PresenceRepository {
	return &memoryPresenceRepo{rooms: make(map[string]map[string]int)}
}

func (r *memoryPresenceRepo) Add(_ context.Context, village, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[village]
	if !ok {
		room = make(map[string]int)
		r.rooms[village] = room
	}
	room[userID]++
	return nil
}

func (r *memoryPresenceRepo) Remove(_ context.Context, village, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[village]
	if !ok {
		return nil
	}

	room[userID]--
	if room[userID] <= 0 {
		delete(room, userID)
	}
	if len(room) == 0 {
		delete(r.rooms, village)
	}
	return nil
}

func (r *memoryPresenceRepo) Online(_ context.Context, village string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.rooms[village]))
	for u := range r.rooms[village] {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}
