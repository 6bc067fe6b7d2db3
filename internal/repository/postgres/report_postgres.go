package postgres

import (
	"context"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

// ReportPostgres runs read-only aggregate queries over documents.
type ReportPostgres struct {
	q queryer
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

func reportWhere(f repository.ReportFilter) *where {
	w := &where{}
	if f.BranchID != "" {
		w.add(`d.branch_id = ?`, f.BranchID)
	}
	if f.From != nil {
		w.add(`d.created_at >= ?`, *f.From)
	}
	if f.To != nil {
		w.add(`d.created_at < ?`, *f.To)
	}
	return w
}

func (r *ReportPostgres) Count(ctx context.Context, f repository.ReportFilter) (int, error) {
	w := reportWhere(f)
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents d`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ReportPostgres) CountByStatus(ctx context.Context, f repository.ReportFilter) (map[model.Status]int, error) {
	w := reportWhere(f)
	rows, err := r.q.QueryContext(ctx, `SELECT d.status, COUNT(*) FROM documents d`+w.String()+` GROUP BY d.status`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.Status]int{
		model.StatusSubmitted: 0,
		model.StatusReviewed:  0,
		model.StatusApproved:  0,
		model.StatusRejected:  0,
	}
	for rows.Next() {
		var (
			s model.Status
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *ReportPostgres) CountByBranch(ctx context.Context, f repository.ReportFilter) ([]model.BranchTotal, error) {
	w := reportWhere(f)
	q := `
		SELECT b.id, b.code, b.name, COUNT(d.id)
		FROM documents d
		JOIN branches b ON b.id = d.branch_id` + w.String() + `
		GROUP BY b.id, b.code, b.name
		ORDER BY b.code ASC`
	rows, err := r.q.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.BranchTotal, 0)
	for rows.Next() {
		var t model.BranchTotal
		if err := rows.Scan(&t.BranchID, &t.BranchCode, &t.BranchName, &t.Total); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
