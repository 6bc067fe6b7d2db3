package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/lifecycle"
	"certdocs/internal/model"
	"certdocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Create(ctx context.Context, actor model.Actor, in service.CreateDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, actor model.Actor, id string) (*service.DocumentDetail, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentDetail), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actor model.Actor, q service.DocumentQuery) (*service.DocumentPage, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPage), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, actor model.Actor, id string, in service.UpdateDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) ChangeStatus(ctx context.Context, actor model.Actor, id string, req lifecycle.Request) (*model.Document, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) AddAttachment(ctx context.Context, actor model.Actor, documentID string, up service.AttachmentUpload) (*model.Attachment, error) {
	args := m.Called(ctx, actor, documentID, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attachment), args.Error(1)
}

func (m *MockDocumentService) OpenAttachment(ctx context.Context, actor model.Actor, attachmentID string) (*service.AttachmentContent, error) {
	args := m.Called(ctx, actor, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttachmentContent), args.Error(1)
}

func (m *MockDocumentService) PresignAttachment(ctx context.Context, actor model.Actor, attachmentID string) (string, error) {
	args := m.Called(ctx, actor, attachmentID)
	return args.String(0), args.Error(1)
}
