package repository

import (
	"context"
	"time"

	"certdocs/internal/model"
)

// DocumentFilter narrows document listings. Zero values mean "no filter".
type DocumentFilter struct {
	// Query matches doc number, candidate name or receipt number, case-insensitively.
	Query    string
	Status   model.Status
	BranchID string
	// From is inclusive, To exclusive; both compare against created_at.
	From *time.Time
	To   *time.Time
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDForUpdate returns a document and holds a row lock on it until
	// the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error)

	// FindByDocNo returns a document by its human-readable number.
	FindByDocNo(ctx context.Context, docNo string) (*model.Document, error)

	// ExistsDocNo reports whether a document already carries docNo.
	ExistsDocNo(ctx context.Context, docNo string) (bool, error)

	// Update writes every mutable column of doc and returns the stored row.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// List returns a page of documents, newest first, with attachment counts.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.DocumentSummary], error)
}

// AttachmentRepository persists attachment metadata. Attachments are never updated.
type AttachmentRepository interface {
	Create(ctx context.Context, a *model.Attachment) (*model.Attachment, error)
	FindByID(ctx context.Context, id string) (*model.Attachment, error)
	ListByDocument(ctx context.Context, documentID string) ([]model.Attachment, error)
}

// VersionRepository persists append-only document snapshots.
type VersionRepository interface {
	// NextNumber returns max(version_number)+1 for the document, or 1.
	// Callers must hold the document row lock.
	NextNumber(ctx context.Context, documentID string) (int, error)
	Create(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error)
	ListByDocument(ctx context.Context, documentID string) ([]model.DocumentVersion, error)
}

// SequenceRepository owns the per-branch, per-year document counters.
type SequenceRepository interface {
	// Next atomically increments the (branchID, year) counter, creating it at
	// 1 when missing, and returns the new value. The row stays locked until
	// the transaction ends.
	Next(ctx context.Context, branchID string, year int) (int, error)
}
