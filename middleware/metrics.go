package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/agrispine/server/pkg/metrics"
)

// statusRecorder, yazılan status kodunu yakalar.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Instrument, her REST isteğini Prometheus'a kaydeder ve debug seviyesinde loglar.
//
// Endpoint etiketi r.Pattern'dir (ör: "PUT /api/chat/star/{id}"); ham path
// kullanılsaydı her mesaj id'si ayrı bir seri açardı.
func Instrument(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(rec.status), elapsed)

		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed))
	})
}
