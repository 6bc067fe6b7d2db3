package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

// AuditPostgres appends to audit_logs. It exposes no update or delete.
type AuditPostgres struct {
	q queryer
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

const auditColumns = `id, action, actor_user_id, actor_email, entity_type, entity_id, branch_id, details_json, created_at`

func scanAudit(row scanner) (*model.AuditLogEntry, error) {
	var (
		e       model.AuditLogEntry
		details []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.Action,
		&e.ActorUserID,
		&e.ActorEmail,
		&e.EntityType,
		&e.EntityID,
		&e.BranchID,
		&details,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.DetailsJSON = details
	return &e, nil
}

// Append inserts one entry. It performs no reads of existing rows.
func (r *AuditPostgres) Append(ctx context.Context, e *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	const q = `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + auditColumns
	details := []byte(e.DetailsJSON)
	if len(details) == 0 {
		details = []byte(`{}`)
	}
	out, err := scanAudit(r.q.QueryRowContext(ctx, q,
		e.ID,
		e.Action,
		e.ActorUserID,
		e.ActorEmail,
		e.EntityType,
		e.EntityID,
		e.BranchID,
		details,
		e.CreatedAt,
	))
	if err != nil {
		return nil, mapError(err, "audit entry")
	}
	return out, nil
}

func auditWhere(f repository.AuditFilter) *where {
	w := &where{}
	if f.Action != "" {
		w.add(`action = ?`, f.Action)
	}
	if f.ActorEmail != "" {
		w.add(`actor_email ILIKE ?`, likePattern(f.ActorEmail))
	}
	if f.BranchID != "" {
		w.add(`branch_id = ?`, f.BranchID)
	}
	if f.EntityID != "" {
		w.add(`entity_id = ?`, f.EntityID)
	}
	if f.From != nil {
		w.add(`created_at >= ?`, *f.From)
	}
	if f.To != nil {
		w.add(`created_at < ?`, *f.To)
	}
	return w
}

// List returns entries newest first. Entries written in one transaction share
// created_at, so the sequence column keeps their insertion order.
func (r *AuditPostgres) List(ctx context.Context, f repository.AuditFilter, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	w := auditWhere(f)

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + auditColumns + ` FROM audit_logs` + w.String() + `
		ORDER BY created_at DESC, seq DESC
		LIMIT ` + w.next(1) + ` OFFSET ` + w.next(2)
	rows, err := r.q.QueryContext(ctx, q, append(w.args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.AuditLogEntry]{Items: items, Total: total}, nil
}

func (r *AuditPostgres) ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, limit int) ([]model.AuditLogEntry, error) {
	const q = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3
	`
	rows, err := r.q.QueryContext(ctx, q, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}
