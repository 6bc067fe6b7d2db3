package postgres

import (
	"context"
	"database/sql"
	"time"

	"certdocs/internal/apperr"
	"certdocs/internal/repository"
)

const defaultTxTimeout = 5 * time.Second

// queryer is satisfied by both *sql.DB and *sql.Tx, so every repository can
// run either standalone or inside a unit of work.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStore hands out repositories bound to a single queryer.
type txStore struct {
	q queryer
}

func (s txStore) Branches() repository.BranchRepository        { return &BranchPostgres{q: s.q} }
func (s txStore) Users() repository.UserRepository             { return &UserPostgres{q: s.q} }
func (s txStore) Documents() repository.DocumentRepository     { return &DocumentPostgres{q: s.q} }
func (s txStore) Attachments() repository.AttachmentRepository { return &AttachmentPostgres{q: s.q} }
func (s txStore) Versions() repository.VersionRepository       { return &VersionPostgres{q: s.q} }
func (s txStore) Sequences() repository.SequenceRepository     { return &SequencePostgres{q: s.q} }
func (s txStore) Audit() repository.AuditRepository            { return &AuditPostgres{q: s.q} }
func (s txStore) Reports() repository.ReportRepository         { return &ReportPostgres{q: s.q} }

// Store is the PostgreSQL unit of work. Outside WithinTx its repositories use
// the pool directly.
type Store struct {
	txStore
	db      *sql.DB
	timeout time.Duration
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{txStore: txStore{q: db}, db: db, timeout: defaultTxTimeout}
}

var _ repository.UnitOfWork = (*Store)(nil)

// WithinTx runs fn in a READ COMMITTED transaction. The transaction is rolled
// back when fn fails, when ctx is cancelled, or when commit fails.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, txStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "transaction")
	}
	return nil
}
