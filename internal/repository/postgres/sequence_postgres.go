package postgres

import (
	"context"

	"certdocs/internal/repository"
)

// SequencePostgres owns document_sequences. The upsert takes the row lock, so
// concurrent transactions on the same (branch, year) queue behind each other
// and a rolled-back transaction leaves the counter untouched.
type SequencePostgres struct {
	q queryer
}

var _ repository.SequenceRepository = (*SequencePostgres)(nil)

func (r *SequencePostgres) Next(ctx context.Context, branchID string, year int) (int, error) {
	const q = `
		INSERT INTO document_sequences (branch_id, year, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (branch_id, year)
		DO UPDATE SET last_seq = document_sequences.last_seq + 1
		RETURNING last_seq
	`
	var seq int
	if err := r.q.QueryRowContext(ctx, q, branchID, year).Scan(&seq); err != nil {
		return 0, mapError(err, "document sequence")
	}
	return seq, nil
}
