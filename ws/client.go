package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

const (
	writeWait = 10 * time.Second

	// pongWait: 30 saniyelik heartbeat'ten üçü kaçarsa bağlantı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: send_message metni (2000 rune) + yanıt alıntısı + URL'ler sığmalı.
	maxMessageSize = 16 * 1024

	sendBufferSize = 256

	// callbackTimeout, tek bir event'in store işlemleri için üst süre.
	callbackTimeout = 10 * time.Second
)

// Client, tek bir WebSocket bağlantısı.
//
// Her bağlantının iki goroutine'i vardır: ReadPump client'tan okur ve
// event'leri sırayla işler, WritePump send channel'ını sokete yazar.
// gorilla/websocket aynı anda tek okuyucu ve tek yazıcıya izin verir.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	ctx    context.Context
	userID string
	name   string

	// village, client'ın bulunduğu oda; hub.mu ile korunur.
	village string

	send chan []byte
	mu   sync.Mutex
	log  *zap.Logger
}

func newClient(ctx context.Context, hub *Hub, conn *websocket.Conn, identity models.Identity) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		ctx:    ctx,
		userID: identity.UserID,
		name:   identity.Name,
		send:   make(chan []byte, sendBufferSize),
		log:    hub.log.With(zap.String("user_id", identity.UserID)),
	}
}

// ReadPump, bağlantı kapanana kadar event okur. Çıkışta client hub'dan düşer.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("failed to set read deadline", zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("unexpected close", zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("", fmt.Errorf("%w: invalid event", pkg.ErrBadRequest))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("failed to set read deadline", zap.Error(err))
			return
		}
		c.hub.sendToClient(c, Event{Op: OpHeartbeatAck})

	case OpJoinVillage:
		c.handleJoin(event)

	case OpSendMessage:
		c.handleSend(event)

	case OpDeleteMessage:
		c.handleDeleteRelay(event)

	case OpUpdateMessage:
		c.handleUpdateRelay(event)

	case OpMarkRead:
		c.handleMarkRead(event)

	default:
		c.log.Debug("unknown op", zap.String("op", event.Op))
		c.sendError(event.Op, fmt.Errorf("%w: unknown op", pkg.ErrBadRequest))
	}
}

// handleJoin: user_id gönderildiyse token'daki kimlikle aynı olmalı.
func (c *Client) handleJoin(event Event) {
	var data JoinVillageData
	if err := decodeData(event.Data, &data); err != nil {
		c.sendError(event.Op, err)
		return
	}

	village := strings.TrimSpace(data.Village)
	if village == "" {
		c.sendError(event.Op, fmt.Errorf("%w: village is required", pkg.ErrBadRequest))
		return
	}
	if data.UserID != "" && data.UserID != c.userID {
		c.sendError(event.Op, fmt.Errorf("%w: user_id does not match token", pkg.ErrUnauthorized))
		return
	}

	if _, ok := c.hub.joinRoom(c, village); !ok {
		return
	}

	if c.hub.onJoin != nil {
		ctx, cancel := context.WithTimeout(c.ctx, callbackTimeout)
		defer cancel()
		if err := c.hub.onJoin(ctx, c.session(village)); err != nil {
			c.sendError(event.Op, err)
		}
	}
}

func (c *Client) handleSend(event Event) {
	var req models.SendMessageRequest
	if err := decodeData(event.Data, &req); err != nil {
		c.sendError(event.Op, err)
		return
	}

	village, err := c.joinedVillage(req.Village)
	if err != nil {
		c.sendError(event.Op, err)
		return
	}
	req.Village = village

	if l := c.hub.limiter; l != nil && !l.Allow(c.userID) {
		c.sendError(event.Op, fmt.Errorf("%w: slow down, retry in %d seconds", pkg.ErrRateLimited, l.CooldownSeconds(c.userID)))
		return
	}

	if c.hub.onSend == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, callbackTimeout)
	defer cancel()
	if err := c.hub.onSend(ctx, c.session(village), req); err != nil {
		c.sendError(event.Op, err)
	}
}

func (c *Client) handleDeleteRelay(event Event) {
	var data DeleteMessageData
	if err := decodeData(event.Data, &data); err != nil {
		c.sendError(event.Op, err)
		return
	}
	c.relay(event.Op, data.Village, data.MessageID)
}

func (c *Client) handleUpdateRelay(event Event) {
	var data UpdateMessageData
	if err := decodeData(event.Data, &data); err != nil {
		c.sendError(event.Op, err)
		return
	}
	c.relay(event.Op, data.Village, data.Message.ID)
}

func (c *Client) relay(op, requestedVillage, messageID string) {
	if messageID == "" {
		c.sendError(op, fmt.Errorf("%w: message id is required", pkg.ErrBadRequest))
		return
	}

	village, err := c.joinedVillage(requestedVillage)
	if err != nil {
		c.sendError(op, err)
		return
	}

	if c.hub.onRelay == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, callbackTimeout)
	defer cancel()
	if err := c.hub.onRelay(ctx, c.session(village), village, messageID); err != nil {
		c.sendError(op, err)
	}
}

func (c *Client) handleMarkRead(event Event) {
	var data MarkReadData
	if err := decodeData(event.Data, &data); err != nil {
		c.sendError(event.Op, err)
		return
	}

	village, err := c.joinedVillage(data.Village)
	if err != nil {
		c.sendError(event.Op, err)
		return
	}

	if c.hub.onMarkRead == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, callbackTimeout)
	defer cancel()
	if err := c.hub.onMarkRead(ctx, c.session(village), village); err != nil {
		c.sendError(event.Op, err)
	}
}

// joinedVillage, istekteki köyü doğrular. Boş köy, katılınan oda demektir;
// dolu ise katılınan odayla aynı olmalı.
func (c *Client) joinedVillage(requested string) (string, error) {
	joined := c.hub.villageOf(c)
	requested = strings.TrimSpace(requested)

	if joined == "" || (requested != "" && requested != joined) {
		return "", errNotJoined
	}
	return joined, nil
}

func (c *Client) session(village string) Session {
	return Session{UserID: c.userID, Name: c.name, Village: village}
}

var errNotJoined = errors.New("join the village room first")

// sendError, hatayı yalnızca bu bağlantıya error event'i olarak yollar.
// 5xx sınıfı hataların ayrıntısı client'a sızdırılmaz.
func (c *Client) sendError(op string, err error) {
	code := errorCode(err)
	msg := err.Error()
	if code == ErrCodeInternal {
		c.log.Error("event failed", zap.String("op", op), zap.Error(err))
		msg = "internal error"
	}
	c.hub.sendToClient(c, Event{Op: OpError, Data: ErrorData{Code: code, Message: msg, Op: op}})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errNotJoined):
		return ErrCodeNotJoined
	case errors.Is(err, pkg.ErrBadRequest):
		return ErrCodeBadRequest
	case errors.Is(err, pkg.ErrUnauthorized), errors.Is(err, pkg.ErrForbidden):
		return ErrCodeUnauthorized
	case errors.Is(err, pkg.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, pkg.ErrRateLimited):
		return ErrCodeRateLimited
	default:
		return ErrCodeInternal
	}
}

// decodeData: event.Data `any` olarak gelir (map[string]any); marshal +
// unmarshal ile hedef tipe çevrilir.
func decodeData(data any, dst any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: invalid payload", pkg.ErrBadRequest)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: invalid payload", pkg.ErrBadRequest)
	}
	return nil
}

// WritePump, send channel'ını sokete yazar. Channel kapanınca close frame yollar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
