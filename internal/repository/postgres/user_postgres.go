package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

type UserPostgres struct {
	q queryer
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, name, email, password_hash, role, branch_id, is_active, created_at, updated_at`

func userFields(u *model.User) []any {
	return []any{&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.BranchID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt}
}

func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns
	var out model.User
	err := r.q.QueryRowContext(ctx, q,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.BranchID, u.IsActive, u.CreatedAt, u.UpdatedAt,
	).Scan(userFields(&out)...)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &out, nil
}

func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var out model.User
	if err := r.q.QueryRowContext(ctx, q, id).Scan(userFields(&out)...); err != nil {
		return nil, mapError(err, "user")
	}
	return &out, nil
}

func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	var out model.User
	if err := r.q.QueryRowContext(ctx, q, email).Scan(userFields(&out)...); err != nil {
		return nil, mapError(err, "user")
	}
	return &out, nil
}

func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users SET
			name = $2, email = $3, password_hash = $4, role = $5, branch_id = $6, is_active = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	var out model.User
	err := r.q.QueryRowContext(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.BranchID, u.IsActive).
		Scan(userFields(&out)...)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &out, nil
}

func (r *UserPostgres) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(userFields(&u)...); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
