package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

// AttachmentPostgres stores attachment metadata. The bytes live in object storage.
type AttachmentPostgres struct {
	q queryer
}

var _ repository.AttachmentRepository = (*AttachmentPostgres)(nil)

const attachmentColumns = `id, document_id, kind, original_name, stored_name, mime_type, size_bytes,
		storage_path, uploaded_by_user_id, created_at`

func scanAttachment(row scanner) (*model.Attachment, error) {
	var a model.Attachment
	if err := row.Scan(
		&a.ID,
		&a.DocumentID,
		&a.Kind,
		&a.OriginalName,
		&a.StoredName,
		&a.MimeType,
		&a.SizeBytes,
		&a.StoragePath,
		&a.UploadedByUserID,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentPostgres) Create(ctx context.Context, a *model.Attachment) (*model.Attachment, error) {
	const q = `
		INSERT INTO attachments (` + attachmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + attachmentColumns
	out, err := scanAttachment(r.q.QueryRowContext(ctx, q,
		a.ID,
		a.DocumentID,
		a.Kind,
		a.OriginalName,
		a.StoredName,
		a.MimeType,
		a.SizeBytes,
		a.StoragePath,
		a.UploadedByUserID,
		a.CreatedAt,
	))
	if err != nil {
		return nil, mapError(err, "attachment")
	}
	return out, nil
}

func (r *AttachmentPostgres) FindByID(ctx context.Context, id string) (*model.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`
	a, err := scanAttachment(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err, "attachment")
	}
	return a, nil
}

// ListByDocument returns a document's attachments, newest first.
func (r *AttachmentPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE document_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}
