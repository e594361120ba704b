package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, tüm REST yanıtlarının ortak zarfı.
// Frontend her zaman {success, data, error} bekler.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON, başarılı bir yanıt yazar.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// Error, hata yanıtı yazar. Domain error'ları uygun status koduna çevrilir.
// 500 yanıtlarında iç hata metni dışarı sızdırılmaz.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = ErrInternal.Error()
	}

	writeEnvelope(w, status, APIResponse{Success: false, Error: msg})
}

// ErrorWithMessage, özel mesajlı hata yanıtı yazar.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, APIResponse{Success: false, Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StatusFor, domain error'ını HTTP status koduna eşler.
// errors.Is kullanıldığı için wrap zinciri boyunca arar.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
