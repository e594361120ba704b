package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/ratelimit"
	"github.com/agrispine/server/services"
)

// UploadHandler, sohbet medyası yükleme endpoint'i.
type UploadHandler struct {
	uploadService services.UploadService
	limiter       *ratelimit.IPRateLimiter
	maxSize       int64
	log           *zap.Logger
}

// NewUploadHandler: limiter nil ise IP bazlı limit uygulanmaz.
func NewUploadHandler(
	uploadService services.UploadService,
	limiter *ratelimit.IPRateLimiter,
	maxSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		limiter:       limiter,
		maxSize:       maxSize,
		log:           log,
	}
}

// multipartOverhead, dosya dışındaki form alanları ve boundary'ler için pay.
const multipartOverhead = 64 << 10

// Upload godoc
// POST /api/chat/upload
// Multipart "image" alanındaki dosyayı (resim, ses veya video) saklar.
//
// Yanıt: { "image_url": "..." }
//
// Dosya saklanamazsa URL dönmez; istemci bu durumda mesajı göndermez.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		ip := ratelimit.ExtractIP(r)
		if !h.limiter.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds(ip)))
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many uploads, try again later")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	url, err := h.uploadService.Upload(r.Context(), file, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		h.log.Debug("upload rejected", zap.String("filename", header.Filename), zap.Error(err))
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"image_url": url})
}
