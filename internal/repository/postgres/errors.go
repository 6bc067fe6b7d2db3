package postgres

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"certdocs/internal/apperr"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsNoRowsError reports whether err is (or wraps) sql.ErrNoRows.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// mapError converts driver errors into coded application errors. entity names
// the record for NOT_FOUND messages. Unknown errors pass through unchanged.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if IsNoRowsError(err) {
		return apperr.NotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(err, apperr.CodeConflict, uniqueMessage(entity, pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return apperr.Wrap(err, apperr.CodeNotFound, referencedEntity(pgErr.ConstraintName)+" not found")
		case pgSerializationFailure, pgDeadlockDetected:
			return apperr.Wrap(err, apperr.CodeConflict, "concurrent update, retry")
		}
	}
	return err
}

func uniqueMessage(entity, constraint string) string {
	if constraint == "" {
		return entity + " already exists"
	}
	return entity + " already exists (" + constraint + ")"
}

// referencedEntity guesses the missing parent from a constraint named
// <table>_<column>_fkey, e.g. documents_branch_id_fkey -> branch.
func referencedEntity(constraint string) string {
	c := strings.TrimSuffix(constraint, "_fkey")
	if i := strings.LastIndex(c, "_id"); i > 0 {
		c = c[:i]
		if j := strings.LastIndex(c, "_"); j >= 0 {
			c = c[j+1:]
		}
		return c
	}
	return "referenced record"
}

// where accumulates AND-ed predicates with positional placeholders. Every "?"
// in a clause is bound to the same argument.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// next returns the placeholder for the argument after the current ones.
func (w *where) next(offset int) string {
	return "$" + strconv.Itoa(len(w.args)+offset)
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
