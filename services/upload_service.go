package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/metrics"
	"github.com/agrispine/server/pkg/storage"
)

// allowedMediaFamilies, yüklenebilecek MIME aileleri (image/*, audio/*, video/*).
var allowedMediaFamilies = []string{"image/", "audio/", "video/"}

// UploadService, sohbet medyasını nesne deposuna yazar ve URL'sini döner.
// Mesajla ilişki kurmaz; client dönen URL'yi send_message'a koyar.
type UploadService interface {
	Upload(ctx context.Context, file io.Reader, filename, contentType string, size int64) (string, error)
}

type uploadService struct {
	store   storage.ObjectStore
	maxSize int64
	log     *zap.Logger
}

func NewUploadService(store storage.ObjectStore, maxSize int64, log *zap.Logger) UploadService {
	return &uploadService{store: store, maxSize: maxSize, log: log}
}

func (s *uploadService) Upload(ctx context.Context, file io.Reader, filename, contentType string, size int64) (string, error) {
	if size > s.maxSize {
		return "", fmt.Errorf("%w: file too large (max %d bytes)", pkg.ErrBadRequest, s.maxSize)
	}

	// Header güvenilmez ya da genel olabilir; ilk 512 byte'tan tip sezilir.
	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)

	mimeType := baseMediaType(contentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = baseMediaType(http.DetectContentType(head))
	}
	if !allowedMedia(mimeType) {
		return "", fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeType)
	}

	url, err := s.store.Put(ctx, storage.NewKey(filename), mimeType, br, size)
	metrics.RecordUpload(s.store.Backend(), err)
	if err != nil {
		s.log.Warn("upload failed", zap.String("backend", s.store.Backend()), zap.Error(err))
		return "", fmt.Errorf("%w: %v", pkg.ErrUploadFailed, err)
	}

	return url, nil
}

func baseMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func allowedMedia(mimeType string) bool {
	for _, family := range allowedMediaFamilies {
		if strings.HasPrefix(mimeType, family) {
			return true
		}
	}
	return false
}
