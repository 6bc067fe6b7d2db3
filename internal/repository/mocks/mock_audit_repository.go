package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/model"
	"certdocs/internal/repository"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, e *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	args := m.Called(ctx, e)
	if f, ok := args.Get(0).(func(*model.AuditLogEntry) *model.AuditLogEntry); ok {
		return f(e), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditLogEntry), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, f repository.AuditFilter, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditLogEntry]), args.Error(1)
}

func (m *MockAuditRepository) ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, limit int) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, entityType, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditLogEntry), args.Error(1)
}

// Actions returns the audit actions passed to Append, in call order.
func (m *MockAuditRepository) Actions() []model.AuditAction {
	var out []model.AuditAction
	for _, c := range m.Calls {
		if c.Method == "Append" {
			out = append(out, c.Arguments.Get(1).(*model.AuditLogEntry).Action)
		}
	}
	return out
}
