package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
)

func TestSequencePostgres_Next(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &SequencePostgres{q: db}
	ctx := context.Background()

	t.Run("increments", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO document_sequences (.+) ON CONFLICT \\(branch_id, year\\) DO UPDATE SET last_seq = document_sequences.last_seq \\+ 1 RETURNING last_seq").
			WithArgs("adama", 2026).
			WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(7))

		seq, err := repo.Next(ctx, "adama", 2026)

		require.NoError(t, err)
		assert.Equal(t, 7, seq)
	})

	t.Run("unknown branch", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO document_sequences").
			WithArgs("nope", 2026).
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "document_sequences_branch_id_fkey"})

		_, err := repo.Next(ctx, "nope", 2026)

		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		assert.Equal(t, "branch not found", apperr.MessageOf(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
