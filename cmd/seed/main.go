// Command seed loads demo branches and accounts. Re-running it is a no-op.
package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"certdocs/internal/apperr"
	"certdocs/internal/auth"
	"certdocs/internal/config"
	"certdocs/internal/database"
	"certdocs/internal/database/migration"
	"certdocs/internal/logging"
	"certdocs/internal/model"
	"certdocs/internal/repository"
	"certdocs/internal/repository/postgres"
)

const demoPassword = "Passw0rd!"

var branches = []model.Branch{
	{Name: "Addis Ababa", Code: "ADDIS"},
	{Name: "Adama", Code: "ADAMA"},
	{Name: "Jimma", Code: "JIMMA"},
}

type seedUser struct {
	name, email string
	role        model.Role
	branch      string
}

var users = []seedUser{
	{name: "HQ Admin", email: "hq@oocaa.local", role: model.RoleHQAdmin},
	{name: "Adama Admin", email: "adama@oocaa.local", role: model.RoleBranchAdmin, branch: "ADAMA"},
	{name: "Auditor", email: "audit@oocaa.local", role: model.RoleAuditor},
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, "certdocs-seed")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := seed(ctx, db, postgres.NewStore(db), cfg.Location(), log); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("seed complete")
}

// seed runs statement by statement so an already-present row does not abort
// the rest of the run.
func seed(ctx context.Context, db *sql.DB, store repository.Store, loc *time.Location, log zerolog.Logger) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, b := range branches {
		b := b
		b.ID = uuid.NewString()
		b.IsActive = true
		b.CreatedAt, b.UpdatedAt = now, now
		if _, err := store.Branches().Create(ctx, &b); err != nil && !apperr.HasCode(err, apperr.CodeConflict) {
			return err
		}
	}

	all, err := store.Branches().List(ctx)
	if err != nil {
		return err
	}
	byCode := make(map[string]string, len(all))
	for _, b := range all {
		byCode[b.Code] = b.ID
	}

	for _, su := range users {
		if _, err := store.Users().FindByEmail(ctx, su.email); err == nil {
			continue
		} else if !apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		u := &model.User{
			ID:           uuid.NewString(),
			Name:         su.name,
			Email:        su.email,
			PasswordHash: hash,
			Role:         su.role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if su.branch != "" {
			id := byCode[su.branch]
			u.BranchID = &id
		}
		if _, err := store.Users().Create(ctx, u); err != nil {
			return err
		}
		log.Info().Str("email", su.email).Str("role", string(su.role)).Msg("user seeded")
	}

	// Six numbers already issued at Adama this year; the next is 0007.
	if id, ok := byCode["ADAMA"]; ok {
		_, err = db.ExecContext(ctx,
			`INSERT INTO document_sequences (branch_id, year, last_seq) VALUES ($1, $2, 6)
			 ON CONFLICT (branch_id, year) DO NOTHING`,
			id, time.Now().In(loc).Year())
	}
	return err
}
