package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"certdocs/internal/repository"
)

// MockUnitOfWork runs transactions against the same mock repositories it
// exposes outside of them and counts commits and rollbacks.
type MockUnitOfWork struct {
	BranchRepo     *MockBranchRepository
	UserRepo       *MockUserRepository
	DocumentRepo   *MockDocumentRepository
	AttachmentRepo *MockAttachmentRepository
	VersionRepo    *MockVersionRepository
	SequenceRepo   *MockSequenceRepository
	AuditRepo      *MockAuditRepository
	ReportRepo     *MockReportRepository

	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		BranchRepo:     &MockBranchRepository{},
		UserRepo:       &MockUserRepository{},
		DocumentRepo:   &MockDocumentRepository{},
		AttachmentRepo: &MockAttachmentRepository{},
		VersionRepo:    &MockVersionRepository{},
		SequenceRepo:   &MockSequenceRepository{},
		AuditRepo:      &MockAuditRepository{},
		ReportRepo:     &MockReportRepository{},
	}
}

var _ repository.UnitOfWork = (*MockUnitOfWork)(nil)

func (u *MockUnitOfWork) Branches() repository.BranchRepository        { return u.BranchRepo }
func (u *MockUnitOfWork) Users() repository.UserRepository             { return u.UserRepo }
func (u *MockUnitOfWork) Documents() repository.DocumentRepository     { return u.DocumentRepo }
func (u *MockUnitOfWork) Attachments() repository.AttachmentRepository { return u.AttachmentRepo }
func (u *MockUnitOfWork) Versions() repository.VersionRepository       { return u.VersionRepo }
func (u *MockUnitOfWork) Sequences() repository.SequenceRepository     { return u.SequenceRepo }
func (u *MockUnitOfWork) Audit() repository.AuditRepository            { return u.AuditRepo }
func (u *MockUnitOfWork) Reports() repository.ReportRepository         { return u.ReportRepo }

func (u *MockUnitOfWork) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := fn(ctx, u)

	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		u.Rollbacks++
		return err
	}
	u.Commits++
	return nil
}

// AssertAll checks the expectations of every repository mock.
func (u *MockUnitOfWork) AssertAll(t mock.TestingT) {
	u.BranchRepo.AssertExpectations(t)
	u.UserRepo.AssertExpectations(t)
	u.DocumentRepo.AssertExpectations(t)
	u.AttachmentRepo.AssertExpectations(t)
	u.VersionRepo.AssertExpectations(t)
	u.SequenceRepo.AssertExpectations(t)
	u.AuditRepo.AssertExpectations(t)
	u.ReportRepo.AssertExpectations(t)
}
