package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
	"certdocs/internal/repository"
)

type BranchPostgres struct {
	q queryer
}

var _ repository.BranchRepository = (*BranchPostgres)(nil)

const branchColumns = `id, name, code, is_active, created_at, updated_at`

func branchFields(b *model.Branch) []any {
	return []any{&b.ID, &b.Name, &b.Code, &b.IsActive, &b.CreatedAt, &b.UpdatedAt}
}

func (r *BranchPostgres) Create(ctx context.Context, b *model.Branch) (*model.Branch, error) {
	const q = `
		INSERT INTO branches (` + branchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + branchColumns
	var out model.Branch
	err := r.q.QueryRowContext(ctx, q, b.ID, b.Name, b.Code, b.IsActive, b.CreatedAt, b.UpdatedAt).
		Scan(branchFields(&out)...)
	if err != nil {
		return nil, mapError(err, "branch")
	}
	return &out, nil
}

func (r *BranchPostgres) FindByID(ctx context.Context, id string) (*model.Branch, error) {
	const q = `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`
	var out model.Branch
	if err := r.q.QueryRowContext(ctx, q, id).Scan(branchFields(&out)...); err != nil {
		return nil, mapError(err, "branch")
	}
	return &out, nil
}

func (r *BranchPostgres) Update(ctx context.Context, b *model.Branch) (*model.Branch, error) {
	const q = `
		UPDATE branches SET name = $2, code = $3, is_active = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + branchColumns
	var out model.Branch
	if err := r.q.QueryRowContext(ctx, q, b.ID, b.Name, b.Code, b.IsActive).Scan(branchFields(&out)...); err != nil {
		return nil, mapError(err, "branch")
	}
	return &out, nil
}

// Delete removes a branch. A branch still referenced by users or documents is
// refused by the foreign keys.
func (r *BranchPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM branches WHERE id = $1`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperr.Wrap(err, apperr.CodeValidation, "branch has users or documents; deactivate instead")
		}
		return mapError(err, "branch")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("branch")
	}
	return nil
}

func (r *BranchPostgres) List(ctx context.Context) ([]model.BranchWithCounts, error) {
	const q = `
		SELECT b.id, b.name, b.code, b.is_active, b.created_at, b.updated_at,
			(SELECT COUNT(*) FROM users u WHERE u.branch_id = b.id),
			(SELECT COUNT(*) FROM documents d WHERE d.branch_id = b.id)
		FROM branches b
		ORDER BY b.name ASC
	`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.BranchWithCounts, 0)
	for rows.Next() {
		var b model.BranchWithCounts
		dest := append(branchFields(&b.Branch), &b.UserCount, &b.DocumentCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *BranchPostgres) ListActive(ctx context.Context) ([]model.Branch, error) {
	const q = `SELECT ` + branchColumns + ` FROM branches WHERE is_active ORDER BY name ASC`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Branch, 0)
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(branchFields(&b)...); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *BranchPostgres) CountDependents(ctx context.Context, id string) (int, int, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM users WHERE branch_id = $1),
			(SELECT COUNT(*) FROM documents WHERE branch_id = $1)
	`
	var users, documents int
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&users, &documents); err != nil {
		return 0, 0, err
	}
	return users, documents, nil
}
