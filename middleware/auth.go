// Package middleware, HTTP request pipeline'ına eklenen ara katmanlar.
//
// Her middleware func(next http.Handler) http.Handler biçimindedir;
// işini yapar, hata yoksa next'i çağırır.
package middleware

import (
	"net/http"
	"strings"

	"github.com/agrispine/server/handlers"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// TokenValidator, middleware'ın ihtiyaç duyduğu AuthService alt kümesi.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware, JWT doğrulama middleware'ı.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Require, geçerli token zorunlu kılar; yoksa 401.
//
// Token "auth-token" header'ından ya da "Authorization: Bearer <token>"
// biçiminden okunur. Kullanıcı dizini bu sunucuda olmadığından kimlik
// doğrudan claims'ten context'e yazılır.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromHeader(r)
		if token == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization token required")
			return
		}

		claims, err := m.validator.ValidateAccessToken(token)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := handlers.WithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireFunc, HandlerFunc'lar için kısayol.
func (m *AuthMiddleware) RequireFunc(fn http.HandlerFunc) http.Handler {
	return m.Require(fn)
}

// TokenFromHeader, istekteki ham token'ı döner; yoksa "".
func TokenFromHeader(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("auth-token")); t != "" {
		return t
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(bearer)
	}
	return ""
}
