package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/ratelimit"
	"github.com/agrispine/server/pkg/storage"
	"github.com/agrispine/server/services"
)

func newUploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/chat/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newUploadHandler(t *testing.T, limiter *ratelimit.IPRateLimiter) *UploadHandler {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/api/uploads/")
	require.NoError(t, err)
	return NewUploadHandler(services.NewUploadService(store, 1024, zap.NewNop()), limiter, 1024, zap.NewNop())
}

func TestUpload_ReturnsImageURL(t *testing.T) {
	h := newUploadHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "image", "inek.png", "image/png", []byte("\x89PNG\r\n\x1a\nxx")))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.True(t, strings.HasPrefix(data["image_url"].(string), "/api/uploads/"))
}

func TestUpload_Rejections(t *testing.T) {
	h := newUploadHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "file", "inek.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "wrong field name")

	rec = httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "image", "rapor.pdf", "application/pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "forbidden type")

	rec = httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "image", "big.png", "image/png", bytes.Repeat([]byte("x"), 2048)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "too large")
}

func TestUpload_RateLimitedPerIP(t *testing.T) {
	limiter := ratelimit.NewIPRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Close)
	h := newUploadHandler(t, limiter)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "image", "a.png", "image/png", []byte("\x89PNG\r\n\x1a\n")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "image", "b.png", "image/png", []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
