// Package handlers, REST endpoint'lerini barındırır.
//
// Handler'lar incedir: isteği çözer, service'i çağırır, yanıtı
// pkg.JSON / pkg.Error ile {success, data, error} zarfına yazar.
package handlers

import (
	"context"
	"net/http"

	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// contextKey, context'e değer eklerken başka paketlerin key'leriyle
// çakışmayı önleyen özel tip.
type contextKey string

// IdentityContextKey, auth middleware'ın doğruladığı kimliği taşır.
const IdentityContextKey contextKey = "identity"

// WithIdentity, kimliği context'e ekler.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFrom, context'teki kimliği döner.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(models.Identity)
	return identity, ok && identity.UserID != ""
}

// requireIdentity: kimlik yoksa 401 yazar ve false döner.
func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
	}
	return identity, ok
}
