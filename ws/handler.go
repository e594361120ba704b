package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agrispine/server/models"
)

// TokenValidator, handler'ın JWT doğrulaması için ihtiyaç duyduğu tek metot.
// services paketine bağımlılığı (ve import döngüsünü) önlemek için burada tanımlıdır;
// services.AuthService bunu örtük olarak karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler, /ws upgrade isteklerini karşılar.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler: checkOrigin nil ise tüm origin'lere izin verilir.
func NewHandler(hub *Hub, tokenValidator TokenValidator, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleConnection, token'ı doğrular, bağlantıyı yükseltir ve client'ı kaydeder.
//
// Tarayıcılar WebSocket'e header ekleyemediği için token öncelikle
// ?token= query parametresinden okunur; native client'lar auth-token
// veya Authorization: Bearer header'ı da kullanabilir.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	identity := claims.Identity()
	if identity.UserID == "" {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("upgrade failed", zap.String("user_id", identity.UserID), zap.Error(err))
		return
	}

	client := newClient(r.Context(), h.hub, conn, identity)

	if !h.hub.addClient(client) {
		conn.Close()
		return
	}

	// ReadPump bu goroutine'de bloklar; handler bağlantı kapanınca döner.
	go client.WritePump()
	client.ReadPump()
}

func tokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if t := r.Header.Get("auth-token"); t != "" {
		return t
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
