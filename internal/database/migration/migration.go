package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the
// schema is in place.
const sentinelTable = "public.audit_logs"

var steps = []migrationStep{
	{
		Name: "create_table_branches",
		SQL: `CREATE TABLE IF NOT EXISTS branches (
  id         UUID        PRIMARY KEY,
  name       TEXT        NOT NULL,
  code       TEXT        NOT NULL UNIQUE CHECK (code = upper(code) AND code <> ''),
  is_active  BOOLEAN     NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY,
  name          TEXT        NOT NULL,
  email         TEXT        NOT NULL,
  password_hash TEXT        NOT NULL,
  role          TEXT        NOT NULL CHECK (role IN ('HQ_ADMIN', 'BRANCH_ADMIN', 'AUDITOR')),
  branch_id     UUID        REFERENCES branches (id),
  is_active     BOOLEAN     NOT NULL DEFAULT true,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT users_branch_admin_branch_check CHECK (role <> 'BRANCH_ADMIN' OR branch_id IS NOT NULL)
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));`,
	},
	{
		Name: "create_table_document_sequences",
		SQL: `CREATE TABLE IF NOT EXISTS document_sequences (
  branch_id UUID    NOT NULL REFERENCES branches (id),
  year      INTEGER NOT NULL,
  last_seq  INTEGER NOT NULL CHECK (last_seq >= 1),
  PRIMARY KEY (branch_id, year)
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                  UUID          PRIMARY KEY,
  doc_no              TEXT          NOT NULL UNIQUE,
  type                TEXT          NOT NULL,
  status              TEXT          NOT NULL CHECK (status IN ('SUBMITTED', 'REVIEWED', 'APPROVED', 'REJECTED')),
  branch_id           UUID          NOT NULL REFERENCES branches (id),
  candidate_name      TEXT          NOT NULL,
  candidate_id_number TEXT,
  phone               TEXT,
  occupation          TEXT          NOT NULL,
  level               TEXT          NOT NULL,
  payment_receipt_no  TEXT,
  payment_amount      NUMERIC(14,2) CHECK (payment_amount > 0),
  payment_date        DATE,
  payment_method      TEXT,
  created_by_user_id  UUID          NOT NULL REFERENCES users (id),
  reviewed_by_user_id UUID          REFERENCES users (id),
  approved_by_user_id UUID          REFERENCES users (id),
  reject_reason       TEXT,
  created_at          TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at          TIMESTAMPTZ   NOT NULL DEFAULT now(),
  CONSTRAINT documents_reject_reason_check CHECK ((status = 'REJECTED') = (reject_reason IS NOT NULL))
);`,
	},
	{
		Name: "create_index_documents_branch_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_branch_created_at ON documents (branch_id, created_at DESC);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_table_attachments",
		SQL: `CREATE TABLE IF NOT EXISTS attachments (
  id                  UUID        PRIMARY KEY,
  document_id         UUID        NOT NULL REFERENCES documents (id),
  kind                TEXT        NOT NULL CHECK (kind IN ('PAYMENT_RECEIPT', 'SUPPORTING')),
  original_name       TEXT        NOT NULL,
  stored_name         TEXT        NOT NULL,
  mime_type           TEXT        NOT NULL,
  size_bytes          BIGINT      NOT NULL CHECK (size_bytes >= 0),
  storage_path        TEXT        NOT NULL UNIQUE,
  uploaded_by_user_id UUID        NOT NULL REFERENCES users (id),
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_attachments_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_attachments_document_id ON attachments (document_id);`,
	},
	{
		Name: "create_table_document_versions",
		SQL: `CREATE TABLE IF NOT EXISTS document_versions (
  id                 UUID        PRIMARY KEY,
  document_id        UUID        NOT NULL REFERENCES documents (id),
  version_number     INTEGER     NOT NULL CHECK (version_number >= 1),
  snapshot_json      JSONB       NOT NULL,
  created_by_user_id UUID        NOT NULL REFERENCES users (id),
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT document_versions_document_version_key UNIQUE (document_id, version_number)
);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  seq           BIGSERIAL   NOT NULL UNIQUE,
  id            UUID        PRIMARY KEY,
  action        TEXT        NOT NULL,
  actor_user_id UUID,
  actor_email   TEXT,
  entity_type   TEXT        NOT NULL,
  entity_id     TEXT,
  branch_id     UUID,
  details_json  JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_logs_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_type, entity_id);`,
	},
	{
		Name: "create_index_audit_logs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC);`,
	},
	{
		Name: "create_function_forbid_mutation",
		SQL: `CREATE OR REPLACE FUNCTION forbid_mutation() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION '% is append-only', TG_TABLE_NAME;
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "drop_trigger_audit_logs_append_only",
		SQL:  `DROP TRIGGER IF EXISTS audit_logs_append_only ON audit_logs;`,
	},
	{
		Name: "create_trigger_audit_logs_append_only",
		SQL: `CREATE TRIGGER audit_logs_append_only BEFORE UPDATE OR DELETE ON audit_logs
  FOR EACH ROW EXECUTE FUNCTION forbid_mutation();`,
	},
	{
		Name: "drop_trigger_document_versions_append_only",
		SQL:  `DROP TRIGGER IF EXISTS document_versions_append_only ON document_versions;`,
	},
	{
		Name: "create_trigger_document_versions_append_only",
		SQL: `CREATE TRIGGER document_versions_append_only BEFORE UPDATE OR DELETE ON document_versions
  FOR EACH ROW EXECUTE FUNCTION forbid_mutation();`,
	},
}

// EnsureMigrated checks whether the schema exists and applies every step when it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	query := "SELECT to_regclass('" + sentinelTable + "') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Str("status", "error").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Send()

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Send()
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Send()
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Send()

	return nil
}
