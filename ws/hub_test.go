package ws

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrispine/server/models"
)

func newTestClient(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := newClient(context.Background(), h, nil, models.Identity{UserID: userID, Name: userID})
	require.True(t, h.addClient(c))
	return c
}

// drain, client'ın buffer'ındaki event'leri okur.
func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var e Event
			require.NoError(t, json.Unmarshal(raw, &e))
			out = append(out, e)
		default:
			return out
		}
	}
}

// roomUsers, odadaki bağlantıların kullanıcılarını sıralı ve tekil döner.
func roomUsers(h *Hub, village string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	ids := []string{}
	for c := range h.rooms[village] {
		if !seen[c.userID] {
			seen[c.userID] = true
			ids = append(ids, c.userID)
		}
	}
	sort.Strings(ids)
	return ids
}

func ops(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Op
	}
	return out
}

func TestHub_BroadcastToRoomIsScopedToVillage(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient(t, h, "u1")
	b := newTestClient(t, h, "u2")
	other := newTestClient(t, h, "u3")
	lobby := newTestClient(t, h, "u4")

	h.joinRoom(a, "kuzey")
	h.joinRoom(b, "kuzey")
	h.joinRoom(other, "guney")

	h.BroadcastToRoom("kuzey", Event{Op: OpReceiveMessage, Data: map[string]string{"text": "selam"}})

	assert.Equal(t, []string{OpReceiveMessage}, ops(drain(t, a)))
	assert.Equal(t, []string{OpReceiveMessage}, ops(drain(t, b)))
	assert.Empty(t, drain(t, other))
	assert.Empty(t, drain(t, lobby))
}

func TestHub_BroadcastExceptSkipsAllConnectionsOfUser(t *testing.T) {
	h := NewHub(zap.NewNop())
	tab1 := newTestClient(t, h, "u1")
	tab2 := newTestClient(t, h, "u1")
	peer := newTestClient(t, h, "u2")
	for _, c := range []*Client{tab1, tab2, peer} {
		h.joinRoom(c, "kuzey")
	}

	h.BroadcastToRoomExcept("kuzey", "u1", Event{Op: OpMessagesReadUpdate})

	assert.Empty(t, drain(t, tab1))
	assert.Empty(t, drain(t, tab2))
	assert.Equal(t, []string{OpMessagesReadUpdate}, ops(drain(t, peer)))
}

func TestHub_SeqIsMonotonic(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(t, h, "u1")
	h.joinRoom(c, "kuzey")

	for i := 0; i < 5; i++ {
		h.BroadcastToRoom("kuzey", Event{Op: OpMessageUpdated})
	}

	events := drain(t, c)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestHub_JoinLeavesPreviousRoom(t *testing.T) {
	h := NewHub(zap.NewNop())

	var mu sync.Mutex
	var presence []string
	h.OnPresence(func(_ context.Context, village, userID string, online bool) {
		mu.Lock()
		defer mu.Unlock()
		state := "off"
		if online {
			state = "on"
		}
		presence = append(presence, village+":"+userID+":"+state)
	})

	c := newTestClient(t, h, "u1")

	prev, ok := h.joinRoom(c, "kuzey")
	require.True(t, ok)
	assert.Equal(t, "", prev)

	// Aynı odaya tekrar katılmak presence üretmez.
	h.joinRoom(c, "kuzey")

	prev, _ = h.joinRoom(c, "guney")
	assert.Equal(t, "kuzey", prev)

	assert.Empty(t, roomUsers(h, "kuzey"))
	assert.Equal(t, []string{"u1"}, roomUsers(h, "guney"))
	assert.Equal(t, []string{"kuzey:u1:on", "kuzey:u1:off", "guney:u1:on"}, presence)
}

func TestHub_RemoveClientClosesSendAndLeavesRoom(t *testing.T) {
	h := NewHub(zap.NewNop())
	var left []string
	h.OnPresence(func(_ context.Context, village, userID string, online bool) {
		if !online {
			left = append(left, village+":"+userID)
		}
	})

	c := newTestClient(t, h, "u1")
	h.joinRoom(c, "kuzey")

	h.removeClient(c)
	_, open := <-c.send
	assert.False(t, open)
	assert.Empty(t, roomUsers(h, "kuzey"))
	assert.Equal(t, 0, h.ConnectionCount())
	assert.Equal(t, []string{"kuzey:u1"}, left)

	// Çıkarılmış client'a gönderim panic'lemez, ikinci çıkarma no-op.
	assert.NotPanics(t, func() {
		h.sendToClient(c, Event{Op: OpHeartbeatAck})
		h.BroadcastToRoom("kuzey", Event{Op: OpReceiveMessage})
		h.removeClient(c)
	})

	_, ok := h.joinRoom(c, "kuzey")
	assert.False(t, ok)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(t, h, "u1")

	h.Shutdown()
	_, open := <-c.send
	assert.False(t, open)

	late := newClient(context.Background(), h, nil, models.Identity{UserID: "u2"})
	assert.False(t, h.addClient(late))
	assert.NotPanics(t, h.Shutdown)
}
