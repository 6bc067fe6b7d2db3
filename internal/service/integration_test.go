//go:build integration

package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"certdocs/internal/database/migration"
	"certdocs/internal/metrics"
	"certdocs/internal/model"
	"certdocs/internal/repository/postgres"
	"certdocs/internal/service"
	storageMocks "certdocs/internal/storage/mocks"
)

type fixture struct {
	db     *sql.DB
	store  *postgres.Store
	docs   service.DocumentService
	hq     model.Actor
	branch *model.Branch
}

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("certdocs"),
		tcpostgres.WithUsername("certdocs"),
		tcpostgres.WithPassword("certdocs"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.EnsureMigrated(ctx, db, zerolog.Nop(), "testcontainer"))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := startPostgres(t)
	store := postgres.NewStore(db)
	now := time.Now().UTC()

	branch, err := store.Branches().Create(ctx, &model.Branch{
		ID: uuid.NewString(), Name: "Adama", Code: "ADAMA", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	user, err := store.Users().Create(ctx, &model.User{
		ID: uuid.NewString(), Name: "HQ Admin", Email: "hq@oocaa.local", PasswordHash: "x",
		Role: model.RoleHQAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	docs := service.NewDocumentService(store, new(storageMocks.MockStorage),
		service.NewNumberingService(store, service.DefaultNumberPrefix),
		service.NewAuditRecorder(m), m, zerolog.Nop(), service.DocumentOptions{})

	return &fixture{db: db, store: store, docs: docs, hq: user.Actor(), branch: branch}
}

func TestIntegration_ConcurrentNumbering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 20

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		docNos []string
		errs   []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := f.docs.Create(ctx, f.hq, service.CreateDocumentInput{
				BranchID:      f.branch.ID,
				CandidateName: fmt.Sprintf("Candidate %02d", i),
				Occupation:    "Electrician",
				Level:         "II",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			docNos = append(docNos, doc.DocNo)
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(docNos)
	year := time.Now().UTC().Year()
	for i, docNo := range docNos {
		assert.Equal(t, service.FormatDocNo(service.DefaultNumberPrefix, "ADAMA", year, i+1), docNo)
	}
}

func TestIntegration_VersionsAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.docs.Create(ctx, f.hq, service.CreateDocumentInput{
		BranchID:      f.branch.ID,
		CandidateName: "Abebe Kebede",
		Occupation:    "Electrician",
		Level:         "II",
	})
	require.NoError(t, err)

	for _, name := range []string{"Abebe K.", "Abebe Kebede Tola"} {
		name := name
		_, err := f.docs.Update(ctx, f.hq, doc.ID, service.UpdateDocumentInput{CandidateName: &name})
		require.NoError(t, err)
	}

	versions, err := f.store.Versions().ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}

	var snap model.Document
	require.NoError(t, json.Unmarshal(versions[2].SnapshotJSON, &snap))
	assert.Equal(t, "Abebe Kebede Tola", snap.CandidateName)

	entries, err := f.store.Audit().ListByEntity(ctx, model.EntityDocument, doc.ID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, err = f.db.ExecContext(ctx, `UPDATE audit_logs SET action = 'TAMPERED'`)
	assert.Error(t, err, "audit log must be append-only")
}
