package storage

import (
	"context"
	"errors"
	"time"
)

// ErrSignedURLUnsupported is returned by backends that cannot mint
// pre-signed download links.
var ErrSignedURLUnsupported = errors.New("storage: signed URLs are not supported by this backend")

// Backend stores uploaded files and run artifacts under deal-scoped keys
// (e.g. "projects/<deal_id>/input/report.pdf"). Keys are opaque relative
// paths; the backend decides where the bytes actually live.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	DownloadToPath(ctx context.Context, key string, path string) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Key joins a deal id and a relative path into a storage key.
func Key(dealId string, relativePath string) string {
	clean := relativePath
	for len(clean) > 0 && clean[0] == '/' {
		clean = clean[1:]
	}
	return "projects/" + dealId + "/" + clean
}

// Basename returns the final path element of a storage key.
func Basename(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
