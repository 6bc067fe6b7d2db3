package model

import "time"

// Attachment is an immutable file reference belonging to one document.
// StoragePath is opaque to the lifecycle core.
type Attachment struct {
	ID               string         `json:"id"`
	DocumentID       string         `json:"document_id"`
	Kind             AttachmentKind `json:"kind"`
	OriginalName     string         `json:"original_name"`
	StoredName       string         `json:"stored_name"`
	MimeType         string         `json:"mime_type"`
	SizeBytes        int64          `json:"size_bytes"`
	StoragePath      string         `json:"storage_path"`
	UploadedByUserID string         `json:"uploaded_by_user_id"`
	CreatedAt        time.Time      `json:"created_at"`
}
