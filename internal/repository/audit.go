package repository

import (
	"context"
	"time"

	"certdocs/internal/model"
)

// AuditFilter narrows audit log queries. Zero values mean "no filter".
type AuditFilter struct {
	Action model.AuditAction
	// ActorEmail matches as a case-insensitive substring.
	ActorEmail string
	BranchID   string
	EntityID   string
	// From is inclusive, To exclusive.
	From *time.Time
	To   *time.Time
}

// AuditRepository appends and reads audit entries. There is no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, e *model.AuditLogEntry) (*model.AuditLogEntry, error)
	List(ctx context.Context, f AuditFilter, pq PageQuery) (*PageResult[model.AuditLogEntry], error)
	// ListByEntity returns the latest entries for one entity, newest first.
	ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, limit int) ([]model.AuditLogEntry, error)
}
