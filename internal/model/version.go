package model

import (
	"encoding/json"
	"time"
)

// DocumentVersion is an append-only snapshot of a document taken at commit time.
type DocumentVersion struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"document_id"`
	VersionNumber   int             `json:"version_number"`
	SnapshotJSON    json.RawMessage `json:"snapshot"`
	CreatedByUserID string          `json:"created_by_user_id"`
	CreatedAt       time.Time       `json:"created_at"`
}
