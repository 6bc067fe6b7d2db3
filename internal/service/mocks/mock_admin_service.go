package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/model"
	"certdocs/internal/service"
)

type MockBranchService struct {
	mock.Mock
}

var _ service.BranchService = (*MockBranchService)(nil)

func (m *MockBranchService) List(ctx context.Context, actor model.Actor) ([]model.BranchWithCounts, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BranchWithCounts), args.Error(1)
}

func (m *MockBranchService) ListActive(ctx context.Context) ([]model.Branch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Branch), args.Error(1)
}

func (m *MockBranchService) Create(ctx context.Context, actor model.Actor, in service.BranchInput) (*model.Branch, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Branch), args.Error(1)
}

func (m *MockBranchService) Update(ctx context.Context, actor model.Actor, id string, p service.BranchPatch) (*model.Branch, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Branch), args.Error(1)
}

func (m *MockBranchService) Delete(ctx context.Context, actor model.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func (m *MockUserService) List(ctx context.Context, actor model.Actor) ([]model.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, actor model.Actor, in service.CreateUserInput) (*model.User, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor model.Actor, id string, p service.UserPatch) (*model.User, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}
