// Package storage, yüklenen medya dosyalarının (görsel, ses) saklandığı
// nesne deposu soyutlaması. Sohbet çekirdeği yalnızca dönen URL'yi görür.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore, byte'ları kalıcı bir konuma yazıp herkese açık URL döner.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)

	// Backend, metrik etiketi olarak kullanılan kısa ad ("local", "s3").
	Backend() string
}

// NewKey, çakışmayan ve path traversal içermeyen bir nesne anahtarı üretir:
// {uuid}_{temizlenmiş dosya adı}
func NewKey(filename string) string {
	return uuid.NewString() + "_" + SanitizeFilename(filename)
}

// SanitizeFilename, dizin bileşenlerini ve tehlikeli karakterleri atar.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\x00':
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "unnamed"
	}
	return name
}
