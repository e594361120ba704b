package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/validate"
	"github.com/agrispine/server/services"
)

// ChatHandler, /api/chat altındaki REST endpoint'leri.
//
// Thin handler: request parse + response yazımı. Yayınlar ve yetki
// kontrolleri service katmanındadır.
type ChatHandler struct {
	messageService    services.MessageService
	moderationService services.ModerationService
	reactionService   services.ReactionService
	memberService     services.MemberService
	readStateService  services.ReadStateService
}

// NewChatHandler, constructor.
func NewChatHandler(
	messageService services.MessageService,
	moderationService services.ModerationService,
	reactionService services.ReactionService,
	memberService services.MemberService,
	readStateService services.ReadStateService,
) *ChatHandler {
	return &ChatHandler{
		messageService:    messageService,
		moderationService: moderationService,
		reactionService:   reactionService,
		memberService:     memberService,
		readStateService:  readStateService,
	}
}

// List godoc
// GET /api/chat/{village}
// Köyün mesajlarını eskiden yeniye döner; çağıranın "benden sil" dediği
// mesajlar listede yoktur.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.List(r.Context(), r.PathValue("village"), identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Delete godoc
// DELETE /api/chat/delete/{id}
// Mesajı herkesten siler (tombstone). Yalnızca gönderen yapabilir, aksi 401.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	message, err := h.moderationService.DeleteForEveryone(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// Clear godoc
// DELETE /api/chat/clear/{village}
// Yıldızlanmamış tüm mesajları kalıcı siler.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	removed, err := h.moderationService.ClearChat(r.Context(), r.PathValue("village"), identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// Star godoc
// PUT /api/chat/star/{id}
func (h *ChatHandler) Star(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	message, err := h.reactionService.ToggleStar(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// React godoc
// PUT /api/chat/react/{id}
//
// Body:
//
//	{ "emoji": "👍" }
//
// Kullanıcının önceki tepkisi varsa yenisiyle değiştirilir.
func (h *ChatHandler) React(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req models.ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		pkg.Error(w, err)
		return
	}

	message, err := h.reactionService.React(r.Context(), r.PathValue("id"), identity.UserID, req.Emoji)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// Unreact godoc
// PUT /api/chat/react/remove/{id}
func (h *ChatHandler) Unreact(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	message, err := h.reactionService.Unreact(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// DeleteMultiple godoc
// POST /api/chat/delete-multiple
// Body: { "message_ids": ["...", "..."] }
// Çağıranın göndermediği id'ler sessizce atlanır; yanıt silinenleri içerir.
func (h *ChatHandler) DeleteMultiple(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeMessageIDs(w, r)
	if !ok {
		return
	}

	deleted, err := h.moderationService.DeleteMany(r.Context(), req.MessageIDs, identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, deleted)
}

// DeleteForMe godoc
// PUT /api/chat/delete-for-me
// Body: { "message_ids": ["...", "..."] }
func (h *ChatHandler) DeleteForMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	req, ok := decodeMessageIDs(w, r)
	if !ok {
		return
	}

	hidden, err := h.moderationService.DeleteForMe(r.Context(), req.MessageIDs, identity.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"hidden": hidden})
}

// Members godoc
// GET /api/chat/{village}/members
func (h *ChatHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context(), r.PathValue("village"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}

// Online godoc
// GET /api/chat/{village}/online
func (h *ChatHandler) Online(w http.ResponseWriter, r *http.Request) {
	users, err := h.memberService.Online(r.Context(), r.PathValue("village"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string][]string{"user_ids": users})
}

// Status godoc
// GET /api/chat/{village}/messages/{id}/status
// Okundu işaretini (sent / delivered_all / unknown) hesaplar.
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.readStateService.Status(r.Context(), r.PathValue("village"), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, status)
}

func decodeMessageIDs(w http.ResponseWriter, r *http.Request) (*models.MessageIDsRequest, bool) {
	var req models.MessageIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		pkg.Error(w, err)
		return nil, false
	}
	return &req, true
}
