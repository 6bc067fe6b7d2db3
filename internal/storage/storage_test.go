package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"certdocs/internal/config"
)

func TestAttachmentKey(t *testing.T) {
	key, stored := AttachmentKey("doc-1", `C:\scans\Receipt.PDF`)

	assert.True(t, strings.HasPrefix(key, "attachments/doc-1/"))
	assert.True(t, strings.HasSuffix(stored, ".pdf"))
	assert.Equal(t, "attachments/doc-1/"+stored, key)

	key2, _ := AttachmentKey("doc-1", "receipt.pdf")
	assert.NotEqual(t, key, key2)

	_, noExt := AttachmentKey("doc-1", "scan")
	assert.NotContains(t, noExt, ".")
}

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{name: "endpoint", cfg: config.MinIOConfig{}, want: "minio endpoint is required"},
		{name: "credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, want: "minio credentials are required"},
		{name: "bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, want: "minio bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(context.Background(), tt.cfg)
			assert.Nil(t, s)
			assert.EqualError(t, err, tt.want)
		})
	}
}
