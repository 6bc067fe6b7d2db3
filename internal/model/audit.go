package model

import (
	"encoding/json"
	"time"
)

// AuditLogEntry is an append-only record of a committed mutation.
type AuditLogEntry struct {
	ID          string          `json:"id"`
	Action      AuditAction     `json:"action"`
	ActorUserID *string         `json:"actor_user_id"`
	ActorEmail  *string         `json:"actor_email"`
	EntityType  EntityType      `json:"entity_type"`
	EntityID    *string         `json:"entity_id"`
	BranchID    *string         `json:"branch_id"`
	DetailsJSON json.RawMessage `json:"details"`
	CreatedAt   time.Time       `json:"created_at"`
}
