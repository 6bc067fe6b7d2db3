package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/model"
	"certdocs/internal/service"
)

type MockAuditService struct {
	mock.Mock
}

var _ service.AuditService = (*MockAuditService)(nil)

func (m *MockAuditService) List(ctx context.Context, actor model.Actor, q service.AuditQuery) (*service.AuditPage, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditPage), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

var _ service.ReportService = (*MockReportService)(nil)

func (m *MockReportService) Summary(ctx context.Context, actor model.Actor, q service.ReportQuery) (*model.ReportSummary, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportSummary), args.Error(1)
}
