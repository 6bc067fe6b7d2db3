package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"certdocs/internal/apperr"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    apperr.Code
		message string
	}{
		{name: "no rows", err: sql.ErrNoRows, want: apperr.CodeNotFound, message: "document not found"},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), want: apperr.CodeNotFound, message: "document not found"},
		{name: "unique", err: &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "documents_doc_no_key"}, want: apperr.CodeConflict, message: "document already exists (documents_doc_no_key)"},
		{name: "fk", err: &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "document_sequences_branch_id_fkey"}, want: apperr.CodeNotFound, message: "branch not found"},
		{name: "serialization", err: &pgconn.PgError{Code: pgSerializationFailure}, want: apperr.CodeConflict, message: "concurrent update, retry"},
		{name: "deadlock", err: &pgconn.PgError{Code: pgDeadlockDetected}, want: apperr.CodeConflict, message: "concurrent update, retry"},
		{name: "other", err: errors.New("conn refused"), want: apperr.CodeInternal, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "document")
			assert.Equal(t, tt.want, apperr.CodeOf(got))
			assert.Equal(t, tt.message, apperr.MessageOf(got))
		})
	}

	assert.NoError(t, mapError(nil, "document"))
}

func TestReferencedEntity(t *testing.T) {
	assert.Equal(t, "user", referencedEntity("documents_created_by_user_id_fkey"))
	assert.Equal(t, "document", referencedEntity("attachments_document_id_fkey"))
	assert.Equal(t, "referenced record", referencedEntity("weird"))
}

func TestWhere(t *testing.T) {
	w := &where{}
	assert.Empty(t, w.String())

	w.add("(a ILIKE ? OR b ILIKE ?)", "%x%")
	w.add("status = ?", "SUBMITTED")

	assert.Equal(t, " WHERE (a ILIKE $1 OR b ILIKE $1) AND status = $2", w.String())
	assert.Equal(t, []any{"%x%", "SUBMITTED"}, w.args)
	assert.Equal(t, "$3", w.next(1))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%adama%", likePattern(" adama "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}
