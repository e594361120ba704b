package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`..\..\windows\a.png`: "a.png",
		"my crop.png":         "my_crop.png",
		"":                    "unnamed",
		"..":                  "unnamed",
		"bad\x00name.jpg":     "badname.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestNewKey_IsUniqueAndSafe(t *testing.T) {
	a := NewKey("../x.jpg")
	b := NewKey("../x.jpg")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "_x.jpg"))
	assert.NotContains(t, a, "/")
}

func TestLocalStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir, "/api/uploads")
	require.NoError(t, err)
	assert.Equal(t, "local", store.Backend())

	url, err := store.Put(context.Background(), "abc_field.jpg", "image/jpeg", strings.NewReader("img-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/api/uploads/abc_field.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "abc_field.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img-bytes", string(data))
}

func TestS3Store_ObjectURL(t *testing.T) {
	s := &S3Store{cfg: S3Config{Bucket: "media", Region: "eu-central-1"}}
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/a_b.jpg", s.objectURL("a_b.jpg"))

	s.cfg.Endpoint = "http://minio:9000/"
	assert.Equal(t, "http://minio:9000/media/a_b.jpg", s.objectURL("a_b.jpg"))

	s.cfg.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/a_b.jpg", s.objectURL("a_b.jpg"))
}
