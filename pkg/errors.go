// Package pkg, projede paylaşılan yardımcıları barındırır.
// Bu dosya domain seviyesindeki sentinel error'ları tanımlar.
//
// Karşılaştırma her zaman errors.Is ile yapılır; wrap edilmiş hatalar da eşleşir:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Handler katmanı bu error'ları HTTP status koduna çevirir (bkz. response.go).
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrRateLimited  = errors.New("rate limited")
	ErrUploadFailed = errors.New("upload failed")
	ErrInternal     = errors.New("internal error")
)
