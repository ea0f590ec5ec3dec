package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/infrastructure/config"
)

func TestNewS3DocumentArchive_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3DocumentArchive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3DocumentArchive(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewS3DocumentArchive(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")

		_, err = NewS3DocumentArchive(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("defaults expiry", func(t *testing.T) {
		a, err := NewS3DocumentArchive(&config.StorageConfig{
			Bucket:       "wms-documents",
			AccessKey:    "k",
			SecretKey:    "s",
			Endpoint:     "localhost:9000",
			UsePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "wms-documents", a.Bucket())
		assert.Equal(t, 15*time.Minute, a.expires)
	})
}

func TestS3DocumentArchive_PresignedURL(t *testing.T) {
	a, err := NewS3DocumentArchive(&config.StorageConfig{
		Bucket:         "wms-documents",
		AccessKey:      "k",
		SecretKey:      "s",
		Endpoint:       "http://localhost:9000",
		UsePathStyle:   true,
		PresignExpires: time.Hour,
	})
	require.NoError(t, err)

	// Presigning is local; no request reaches the endpoint.
	u, expiresAt, err := a.PresignedURL(context.Background(), "routes/2025/route.html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/wms-documents/routes/2025/route.html"))
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	_, _, err = a.PresignedURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryArchive()

	body := []byte("<html></html>")
	require.NoError(t, m.Put(ctx, "a/b.html", "text/html", body))
	body[0] = 'X'

	obj, ok := m.Get("a/b.html")
	require.True(t, ok)
	assert.Equal(t, "text/html", obj.ContentType)
	assert.Equal(t, "<html></html>", string(obj.Body))
	assert.Equal(t, 1, m.Len())

	u, _, err := m.PresignedURL(ctx, "a/b.html")
	require.NoError(t, err)
	assert.Equal(t, "memory://documents/a/b.html", u)

	assert.ErrorIs(t, m.Put(ctx, "", "text/html", nil), ErrKeyRequired)
}
