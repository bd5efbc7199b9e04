package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name         string
		dealId       string
		relativePath string
		want         string
	}{
		{"input file", "deal-1", "input/report.pdf", "projects/deal-1/input/report.pdf"},
		{"leading slash stripped", "deal-1", "/output/doc.md", "projects/deal-1/output/doc.md"},
		{"double leading slash stripped", "deal-1", "//doc.md", "projects/deal-1/doc.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.dealId, tt.relativePath); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBasename(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"projects/deal-1/input/report.pdf", "report.pdf"},
		{"report.pdf", "report.pdf"},
		{"", ""},
		{"trailing/", ""},
	}

	for _, tt := range tests {
		if got := Basename(tt.key); got != tt.want {
			t.Errorf("Basename(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLocalBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	key := Key("deal-1", "input/report.pdf")
	require.NoError(t, backend.Put(ctx, key, []byte("pdf bytes")))

	data, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)

	dest := filepath.Join(t.TempDir(), "nested", "copy.pdf")
	require.NoError(t, backend.DownloadToPath(ctx, key, dest))
	copied, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), copied)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.Get(ctx, key)
	assert.Error(t, err)
}

func TestLocalBackendDeleteMissingIsNoop(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, backend.Delete(context.Background(), "projects/deal-1/missing.pdf"))
}

func TestLocalBackendRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	keys := []string{
		"../outside.txt",
		"../../etc/passwd",
		"/absolute/path.txt",
	}
	for _, key := range keys {
		assert.Error(t, backend.Put(ctx, key, []byte("x")), "key %q must be rejected", key)
		_, err := backend.Get(ctx, key)
		assert.Error(t, err, "key %q must be rejected", key)
	}

	// A dotted segment that resolves inside the root is fine.
	assert.NoError(t, backend.Put(ctx, "projects/deal-1/../deal-1/file.txt", []byte("x")))
}

func TestLocalBackendRequiresRoot(t *testing.T) {
	_, err := NewLocalBackend("")
	assert.Error(t, err)
}

func TestLocalBackendSignedURLUnsupported(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	_, err = backend.SignedURL(context.Background(), "projects/deal-1/file.txt", time.Minute)
	assert.ErrorIs(t, err, ErrSignedURLUnsupported)
}
