package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Count(ctx context.Context, f repository.ReportFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockReportRepository) CountByStatus(ctx context.Context, f repository.ReportFilter) (map[model.Status]int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Status]int), args.Error(1)
}

func (m *MockReportRepository) CountByBranch(ctx context.Context, f repository.ReportFilter) ([]model.BranchTotal, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BranchTotal), args.Error(1)
}
