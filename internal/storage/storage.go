// Package storage is the file-storage collaborator for attachment bytes. It
// streams to an S3-compatible object store and never touches local disk.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// AttachmentKey builds the object key for a new attachment of documentID and
// returns it with the generated stored name. Only the extension of
// originalName is kept.
func AttachmentKey(documentID, originalName string) (key, storedName string) {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, `\`, "/")))
	storedName = uuid.NewString() + ext
	return path.Join("attachments", documentID, storedName), storedName
}
