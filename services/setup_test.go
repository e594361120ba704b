package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrispine/server/database"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg/cache"
	"github.com/agrispine/server/pkg/events"
	"github.com/agrispine/server/repository"
	"github.com/agrispine/server/ws"
)

type broadcast struct {
	Village string
	Except  string
	Event   ws.Event
}

// recordingHub, ws.EventPublisher'ın yayınları kaydeden sahtesi.
type recordingHub struct {
	mu   sync.Mutex
	sent []broadcast
}

func (h *recordingHub) BroadcastToRoom(village string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{Village: village, Event: event})
}

func (h *recordingHub) BroadcastToRoomExcept(village, excludeUserID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{Village: village, Except: excludeUserID, Event: event})
}

func (h *recordingHub) ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.sent))
	for i, b := range h.sent {
		out[i] = b.Event.Op
	}
	return out
}

func (h *recordingHub) all() []broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast(nil), h.sent...)
}

func (h *recordingHub) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = nil
}

type recordingStream struct {
	mu     sync.Mutex
	events []events.ChatEvent
}

func (s *recordingStream) Publish(_ context.Context, e events.ChatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingStream) Close() error { return nil }

func (s *recordingStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

type testStack struct {
	repo     repository.MessageRepository
	hub      *recordingHub
	stream   *recordingStream
	messages MessageService
	mod      ModerationService
	react    ReactionService
	members  MemberService
	reads    ReadStateService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "chat.db"), database.Migrations(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	memberCache := cache.New[string, []models.VillageMember](time.Minute, time.Minute)
	t.Cleanup(memberCache.Close)

	st := &testStack{
		repo:   repository.NewSQLiteMessageRepo(db.Conn),
		hub:    &recordingHub{},
		stream: &recordingStream{},
	}
	log := zap.NewNop()

	st.messages = NewMessageService(st.repo, st.hub, st.stream, log)
	st.mod = NewModerationService(st.repo, st.hub, st.stream, log)
	st.react = NewReactionService(st.repo, st.hub, st.stream)
	st.members = NewMemberService(repository.NewSQLiteMemberRepo(db.Conn), repository.NewMemoryPresenceRepo(), memberCache, log)
	st.reads = NewReadStateService(st.repo, st.members, st.hub, st.stream)
	return st
}

func (st *testStack) send(t *testing.T, userID, name, village, text string) *models.Message {
	t.Helper()
	m, err := st.messages.Send(context.Background(),
		models.Identity{UserID: userID, Name: name},
		&models.SendMessageRequest{Village: village, Text: text})
	require.NoError(t, err)
	return m
}
