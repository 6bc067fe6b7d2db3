package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

// VersionPostgres stores document snapshots. Rows are never updated or deleted;
// UNIQUE (document_id, version_number) backs the numbering.
type VersionPostgres struct {
	q queryer
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

func (r *VersionPostgres) NextNumber(ctx context.Context, documentID string) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = $1`
	var n int
	if err := r.q.QueryRowContext(ctx, q, documentID).Scan(&n); err != nil {
		return 0, mapError(err, "document version")
	}
	return n, nil
}

func (r *VersionPostgres) Create(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (id, document_id, version_number, snapshot_json, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, document_id, version_number, snapshot_json, created_by_user_id, created_at
	`
	out, err := scanVersion(r.q.QueryRowContext(ctx, q,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		[]byte(v.SnapshotJSON),
		v.CreatedByUserID,
		v.CreatedAt,
	))
	if err != nil {
		return nil, mapError(err, "document version")
	}
	return out, nil
}

// ListByDocument returns versions in ascending version order.
func (r *VersionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	const q = `
		SELECT id, document_id, version_number, snapshot_json, created_by_user_id, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number ASC
	`
	rows, err := r.q.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

func scanVersion(row scanner) (*model.DocumentVersion, error) {
	var (
		v        model.DocumentVersion
		snapshot []byte
	)
	if err := row.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &snapshot, &v.CreatedByUserID, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.SnapshotJSON = snapshot
	return &v, nil
}
