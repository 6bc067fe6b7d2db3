package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
	"certdocs/internal/repository"
	repoMocks "certdocs/internal/repository/mocks"
)

func TestAuditRecorder_Record(t *testing.T) {
	ctx := context.Background()
	uow := repoMocks.NewMockUnitOfWork()
	uow.AuditRepo.On("Append", mock.Anything, mock.Anything).Return(echoAudit, nil)

	r := NewAuditRecorder(nil)

	e, err := r.Record(ctx, uow, AuditEvent{
		Action:     model.AuditStatusChanged,
		Actor:      &adamaActor,
		EntityType: model.EntityDocument,
		EntityID:   "doc-1",
		BranchID:   "b-adama",
		Details:    map[string]any{"fromStatus": "SUBMITTED", "toStatus": "REVIEWED"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u-adama", *e.ActorUserID)
	assert.Equal(t, "adama@oocaa.local", *e.ActorEmail)
	assert.Equal(t, "doc-1", *e.EntityID)
	assert.JSONEq(t, `{"fromStatus":"SUBMITTED","toStatus":"REVIEWED"}`, string(e.DetailsJSON))

	system, err := r.Record(ctx, uow, AuditEvent{Action: model.AuditBranchCreated, EntityType: model.EntityBranch})
	require.NoError(t, err)
	assert.Nil(t, system.ActorUserID)
	assert.Nil(t, system.EntityID)
	assert.JSONEq(t, `{}`, string(system.DetailsJSON))
}

func TestAuditService_List(t *testing.T) {
	ctx := context.Background()
	page := &repository.PageResult[model.AuditLogEntry]{Items: []model.AuditLogEntry{{ID: "a-1"}}, Total: 1}

	t.Run("branch admin is pinned to own branch", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.AuditRepo.On("List", mock.Anything, repository.AuditFilter{BranchID: "b-adama"}, repository.PageQuery{Limit: 50, Offset: 0}).
			Return(page, nil)

		res, err := NewAuditService(uow, nil).List(ctx, adamaActor, AuditQuery{BranchID: "b-jimma"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, 50, res.PageSize)
		uow.AssertAll(t)
	})

	t.Run("doc number resolves to entity and dates are inclusive", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.DocumentRepo.On("FindByDocNo", mock.Anything, "OOCAA-ADAMA-2026-0007").Return(submittedDoc(false), nil)

		from := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		wantTo := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

		uow.AuditRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.AuditFilter) bool {
			return f.EntityID == "doc-1" && f.Action == model.AuditStatusChanged &&
				f.From.Equal(wantFrom) && f.To.Equal(wantTo)
		}), repository.PageQuery{Limit: 20, Offset: 20}).Return(page, nil)

		res, err := NewAuditService(uow, time.UTC).List(ctx, hqActor, AuditQuery{
			Action:   model.AuditStatusChanged,
			DocNo:    "OOCAA-ADAMA-2026-0007",
			Dates:    DateRange{From: &from, To: &to},
			Page:     2,
			PageSize: 20,
		})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
		uow.AssertAll(t)
	})

	t.Run("unknown doc number yields empty page", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.DocumentRepo.On("FindByDocNo", mock.Anything, "missing").Return(nil, apperr.NotFound("document"))

		res, err := NewAuditService(uow, nil).List(ctx, auditorActor, AuditQuery{DocNo: "missing"})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Zero(t, res.Total)
		uow.AuditRepo.AssertNotCalled(t, "List")
	})
}
