package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrispine/server/pkg"
	"github.com/agrispine/server/pkg/storage"
)

// pngHeader, http.DetectContentType'ın image/png olarak tanıdığı imza.
const pngHeader = "\x89PNG\r\n\x1a\n"

func TestUpload_StoresAllowedMedia(t *testing.T) {
	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "up"), "/api/uploads/")
	require.NoError(t, err)
	svc := NewUploadService(store, 1024, zap.NewNop())

	url, err := svc.Upload(context.Background(), strings.NewReader(pngHeader+"data"), "tarla.png", "image/png", 12)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/uploads/"))
	assert.True(t, strings.HasSuffix(url, "_tarla.png"))
}

func TestUpload_SniffsGenericContentType(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/api/uploads/")
	require.NoError(t, err)
	svc := NewUploadService(store, 1024, zap.NewNop())

	_, err = svc.Upload(context.Background(), strings.NewReader(pngHeader+"data"), "x", "application/octet-stream", 12)
	assert.NoError(t, err)

	_, err = svc.Upload(context.Background(), strings.NewReader("just text"), "x.txt", "", 9)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestUpload_RejectsLargeOrForbidden(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/api/uploads/")
	require.NoError(t, err)
	svc := NewUploadService(store, 10, zap.NewNop())

	_, err = svc.Upload(context.Background(), strings.NewReader("x"), "big.png", "image/png", 11)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.Upload(context.Background(), strings.NewReader("x"), "doc.pdf", "application/pdf", 1)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", errors.New("bucket unreachable")
}

func (brokenStore) Backend() string { return "broken" }

func TestUpload_StoreFailureIsUploadFailed(t *testing.T) {
	svc := NewUploadService(brokenStore{}, 1024, zap.NewNop())

	_, err := svc.Upload(context.Background(), strings.NewReader("x"), "a.ogg", "audio/ogg", 1)
	assert.ErrorIs(t, err, pkg.ErrUploadFailed)
}
