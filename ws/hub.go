package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg/metrics"
	"github.com/agrispine/server/pkg/ratelimit"
)

// EventPublisher, service katmanının oda yayını için kullandığı interface.
//
// Service'ler Hub'ın kendisine değil bu interface'e bağımlıdır; testlerde
// kayıt tutan sahte bir publisher verilir. Tek implementasyon süreç içi Hub'dır.
type EventPublisher interface {
	BroadcastToRoom(village string, event Event)
	BroadcastToRoomExcept(village, excludeUserID string, event Event)
}

// Session, bir bağlantının callback'lere verilen kimlik görüntüsü.
type Session struct {
	UserID  string
	Name    string
	Village string
}

// Callback tipleri. Hub bunları client goroutine'inden senkron çağırır;
// bağlantı başına event sırası böylece korunur. Dönen hata yalnızca o
// bağlantıya error event'i olarak yollanır.
type (
	JoinHandler     func(ctx context.Context, s Session) error
	SendHandler     func(ctx context.Context, s Session, req models.SendMessageRequest) error
	RelayHandler    func(ctx context.Context, s Session, village, messageID string) error
	MarkReadHandler func(ctx context.Context, s Session, village string) error

	// PresenceHandler, bir bağlantı odaya girdiğinde (online=true) veya
	// odadan çıktığında (online=false) çağrılır.
	PresenceHandler func(ctx context.Context, village, userID string, online bool)
)

const presenceTimeout = 3 * time.Second

// Hub, bağlantıları ve köy odalarını yönetir.
//
// clients tüm kayıtlı bağlantılardır; rooms köy → bağlantı setidir. Bir
// bağlantı aynı anda en fazla bir odadadır (Client.village). Her iki map de
// mu ile korunur. Bir client'ın send channel'ı yalnızca removeClient içinde,
// Lock altında ve map'ten silindikten sonra kapatılır; gönderimler RLock
// altında ve üyelik kontrolünden sonra yapıldığından kapalı channel'a yazılmaz.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	mu      sync.RWMutex

	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq atomic.Int64
	log *zap.Logger

	limiter *ratelimit.MessageRateLimiter

	onJoin     JoinHandler
	onSend     SendHandler
	onRelay    RelayHandler
	onMarkRead MarkReadHandler
	onPresence PresenceHandler
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// ─── Callback kayıtları (init_callbacks.go'da bağlanır) ───

func (h *Hub) OnJoin(fn JoinHandler)         { h.onJoin = fn }
func (h *Hub) OnSendMessage(fn SendHandler)  { h.onSend = fn }
func (h *Hub) OnRelay(fn RelayHandler)       { h.onRelay = fn }
func (h *Hub) OnMarkRead(fn MarkReadHandler) { h.onMarkRead = fn }
func (h *Hub) OnPresence(fn PresenceHandler) { h.onPresence = fn }

// SetMessageLimiter, send_message için kullanıcı bazlı limiti ayarlar.
func (h *Hub) SetMessageLimiter(l *ratelimit.MessageRateLimiter) { h.limiter = l }

// Run, unregister döngüsü. main.go'da `go hub.Run()` ile başlatılır.
// Kayıt senkrondur (addClient); client ilk event'ini okumadan önce hub'dadır.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.unregister:
			h.removeClient(c)
		case <-h.done:
			return
		}
	}
}

// addClient: hub kapatıldıysa false döner.
func (h *Hub) addClient(c *Client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.log.Debug("client connected", zap.String("user_id", c.userID), zap.Int("connections", total))
	return true
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}

	delete(h.clients, c)
	village := c.village
	if village != "" {
		h.leaveRoomLocked(c)
	}
	close(c.send)
	h.mu.Unlock()

	metrics.WSConnections.Dec()
	h.log.Debug("client disconnected", zap.String("user_id", c.userID), zap.String("village", village))

	if village != "" {
		h.notifyPresence(village, c.userID, false)
	}
}

// joinRoom, client'ı village odasına taşır. Önceki odadan (varsa) çıkar.
// ok=false ise client artık kayıtlı değildir.
func (h *Hub) joinRoom(c *Client, village string) (prev string, ok bool) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return "", false
	}

	prev = c.village
	if prev != village {
		if prev != "" {
			h.leaveRoomLocked(c)
		}
		room, exists := h.rooms[village]
		if !exists {
			room = make(map[*Client]bool)
			h.rooms[village] = room
		}
		room[c] = true
		c.village = village
	}
	h.mu.Unlock()

	if prev != village {
		if prev != "" {
			h.notifyPresence(prev, c.userID, false)
		}
		h.notifyPresence(village, c.userID, true)
	}
	return prev, true
}

// leaveRoomLocked: h.mu Lock altında çağrılmalı.
func (h *Hub) leaveRoomLocked(c *Client) {
	if room, ok := h.rooms[c.village]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.village)
		}
	}
	c.village = ""
}

func (h *Hub) villageOf(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.village
}

func (h *Hub) notifyPresence(village, userID string, online bool) {
	if h.onPresence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	h.onPresence(ctx, village, userID, online)
}

// BroadcastToRoom, odadaki tüm bağlantılara (gönderen dahil) event yollar.
func (h *Hub) BroadcastToRoom(village string, event Event) {
	h.broadcast(village, "", event)
}

// BroadcastToRoomExcept, excludeUserID'nin tüm bağlantıları hariç odaya yollar.
func (h *Hub) BroadcastToRoomExcept(village, excludeUserID string, event Event) {
	h.broadcast(village, excludeUserID, event)
}

func (h *Hub) broadcast(village, excludeUserID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[village] {
		if excludeUserID != "" && c.userID == excludeUserID {
			continue
		}
		h.trySend(c, data)
	}
	metrics.RecordBroadcast(event.Op)
}

// ConnectionCount, health endpoint'i için açık bağlantı sayısı.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendToClient, tek bağlantıya event yollar (heartbeat_ack, error).
func (h *Hub) sendToClient(c *Client, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.clients[c] {
		h.trySend(c, data)
	}
}

// trySend: RLock altında çağrılır. Buffer doluysa client yavaştır ve düşürülür.
func (h *Hub) trySend(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("send buffer full, dropping client", zap.String("user_id", c.userID))
		go h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Shutdown, tüm bağlantıları kapatır ve Run döngüsünü sonlandırır.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		close(h.done)
		n := len(h.clients)
		for c := range h.clients {
			close(c.send)
		}
		h.clients = make(map[*Client]bool)
		h.rooms = make(map[string]map[*Client]bool)
		h.mu.Unlock()

		metrics.WSConnections.Sub(float64(n))
		h.log.Info("hub shut down, all connections closed", zap.Int("connections", n))
	})
}
