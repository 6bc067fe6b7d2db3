package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
	repoMocks "certdocs/internal/repository/mocks"
)

func TestFormatDocNo(t *testing.T) {
	assert.Equal(t, "OOCAA-ADAMA-2026-0007", FormatDocNo("OOCAA", "ADAMA", 2026, 7))
	assert.Equal(t, "OOCAA-JIMMA-2027-12345", FormatDocNo("OOCAA", "JIMMA", 2027, 12345))
}

func TestNumberingService_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("seventh allocation", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.BranchRepo.On("FindByID", mock.Anything, "b-adama").Return(adamaBranch, nil)
		uow.SequenceRepo.On("Next", mock.Anything, "b-adama", 2026).Return(7, nil)
		uow.DocumentRepo.On("ExistsDocNo", mock.Anything, "OOCAA-ADAMA-2026-0007").Return(false, nil)

		docNo, err := NewNumberingService(uow, "").Allocate(ctx, "b-adama", 2026)
		require.NoError(t, err)
		assert.Equal(t, "OOCAA-ADAMA-2026-0007", docNo)
		assert.Equal(t, 1, uow.Commits)
		uow.AssertAll(t)
	})

	t.Run("unknown branch", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.BranchRepo.On("FindByID", mock.Anything, "nope").Return(nil, apperr.NotFound("branch"))

		_, err := NewNumberingService(uow, "").Allocate(ctx, "nope", 2026)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		assert.Equal(t, 1, uow.Rollbacks)
		uow.SequenceRepo.AssertNotCalled(t, "Next")
	})

	t.Run("number already taken", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		uow.BranchRepo.On("FindByID", mock.Anything, "b-adama").Return(adamaBranch, nil)
		uow.SequenceRepo.On("Next", mock.Anything, "b-adama", 2026).Return(3, nil)
		uow.DocumentRepo.On("ExistsDocNo", mock.Anything, "X-ADAMA-2026-0003").Return(true, nil)

		_, err := NewNumberingService(uow, "X").Allocate(ctx, "b-adama", 2026)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
		assert.Equal(t, 1, uow.Rollbacks)
	})
}
