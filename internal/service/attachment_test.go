package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
	repoMocks "certdocs/internal/repository/mocks"
	"certdocs/internal/storage"
	storeMocks "certdocs/internal/storage/mocks"
)

func receiptUpload(body string) AttachmentUpload {
	return AttachmentUpload{
		Kind:         model.AttachmentPaymentReceipt,
		OriginalName: "Receipt.PDF",
		MimeType:     "application/pdf",
		Size:         int64(len(body)),
		Body:         strings.NewReader(body),
	}
}

func isAttachmentKey(key string) bool {
	return strings.HasPrefix(key, "attachments/doc-1/") && strings.HasSuffix(key, ".pdf")
}

func TestDocumentService_AddAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("stores bytes then records metadata and audit", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		uow.DocumentRepo.On("FindByIDForUpdate", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		store.On("Put", mock.Anything, mock.MatchedBy(isAttachmentKey), mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
			return o.Size == 7 && o.ContentType == "application/pdf"
		})).Return(storage.ObjectInfo{Size: 7}, nil)
		uow.AttachmentRepo.On("Create", mock.Anything, mock.Anything).Return(echoAttachment, nil)
		uow.AuditRepo.On("Append", mock.Anything, mock.Anything).Return(echoAudit, nil)

		att, err := newDocService(uow, store).AddAttachment(ctx, adamaActor, "doc-1", receiptUpload("%PDF-1."))
		require.NoError(t, err)
		assert.Equal(t, "doc-1", att.DocumentID)
		assert.Equal(t, "Receipt.PDF", att.OriginalName)
		assert.True(t, isAttachmentKey(att.StoragePath))
		assert.Equal(t, "u-adama", att.UploadedByUserID)

		entries := auditEntries(uow)
		require.Len(t, entries, 1)
		assert.Equal(t, model.AuditFileUploaded, entries[0].Action)
		assert.Equal(t, model.EntityDocument, entries[0].EntityType)
		assert.Equal(t, "doc-1", *entries[0].EntityID)
		assert.Contains(t, string(entries[0].DetailsJSON), `"attachmentId":"`+att.ID+`"`)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("failed commit removes stored object", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		uow.DocumentRepo.On("FindByIDForUpdate", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Size: 3}, nil)
		uow.AttachmentRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		store.On("Delete", mock.Anything, mock.MatchedBy(isAttachmentKey)).Return(nil)

		_, err := newDocService(uow, store).AddAttachment(ctx, adamaActor, "doc-1", receiptUpload("abc"))
		require.Error(t, err)
		assert.Equal(t, 1, uow.Rollbacks)
		store.AssertExpectations(t)
	})

	t.Run("status moved on while uploading", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		reviewed := submittedDoc(true)
		reviewed.Status = model.StatusReviewed
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(true), nil)
		uow.DocumentRepo.On("FindByIDForUpdate", mock.Anything, "doc-1").Return(reviewed, nil)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
		store.On("Delete", mock.Anything, mock.Anything).Return(nil)

		_, err := newDocService(uow, store).AddAttachment(ctx, adamaActor, "doc-1", receiptUpload("abc"))
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState))
		store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	rejected := []struct {
		name  string
		actor model.Actor
		doc   func() *model.Document
		up    func() AttachmentUpload
		code  apperr.Code
	}{
		{
			name:  "auditor",
			actor: auditorActor,
			doc:   func() *model.Document { return submittedDoc(false) },
			up:    func() AttachmentUpload { return receiptUpload("abc") },
			code:  apperr.CodeForbidden,
		},
		{
			name:  "other branch",
			actor: jimmaActor,
			doc:   func() *model.Document { return submittedDoc(false) },
			up:    func() AttachmentUpload { return receiptUpload("abc") },
			code:  apperr.CodeForbidden,
		},
		{
			name:  "approved document",
			actor: hqActor,
			doc: func() *model.Document {
				d := submittedDoc(true)
				d.Status = model.StatusApproved
				return d
			},
			up:   func() AttachmentUpload { return receiptUpload("abc") },
			code: apperr.CodeInvalidState,
		},
		{
			name:  "unsupported type",
			actor: adamaActor,
			doc:   func() *model.Document { return submittedDoc(false) },
			up: func() AttachmentUpload {
				up := receiptUpload("abc")
				up.MimeType = "text/plain"
				return up
			},
			code: apperr.CodeValidation,
		},
		{
			name:  "too large",
			actor: adamaActor,
			doc:   func() *model.Document { return submittedDoc(false) },
			up: func() AttachmentUpload {
				up := receiptUpload("abc")
				up.Size = MaxUploadBytes + 1
				return up
			},
			code: apperr.CodeValidation,
		},
		{
			name:  "unknown kind",
			actor: adamaActor,
			doc:   func() *model.Document { return submittedDoc(false) },
			up: func() AttachmentUpload {
				up := receiptUpload("abc")
				up.Kind = "PHOTO"
				return up
			},
			code: apperr.CodeValidation,
		},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			uow := repoMocks.NewMockUnitOfWork()
			store := &storeMocks.MockStorage{}
			uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(tt.doc(), nil)

			_, err := newDocService(uow, store).AddAttachment(ctx, tt.actor, "doc-1", tt.up())
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDocumentService_OpenAttachment(t *testing.T) {
	ctx := context.Background()
	att := &model.Attachment{ID: "att-1", DocumentID: "doc-1", StoragePath: "attachments/doc-1/x.pdf", SizeBytes: 5}

	t.Run("streams", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		uow.AttachmentRepo.On("FindByID", mock.Anything, "att-1").Return(att, nil)
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		store.On("Get", mock.Anything, "attachments/doc-1/x.pdf").
			Return(io.NopCloser(strings.NewReader("hello")), storage.ObjectInfo{Size: 5}, nil)

		content, err := newDocService(uow, store).OpenAttachment(ctx, auditorActor, "att-1")
		require.NoError(t, err)
		defer content.Body.Close()
		b, _ := io.ReadAll(content.Body)
		assert.Equal(t, "hello", string(b))
		assert.EqualValues(t, 5, content.Size)
	})

	t.Run("other branch", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		uow.AttachmentRepo.On("FindByID", mock.Anything, "att-1").Return(att, nil)
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(false), nil)

		_, err := newDocService(uow, store).OpenAttachment(ctx, jimmaActor, "att-1")
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("presign", func(t *testing.T) {
		uow := repoMocks.NewMockUnitOfWork()
		store := &storeMocks.MockStorage{}
		uow.AttachmentRepo.On("FindByID", mock.Anything, "att-1").Return(att, nil)
		uow.DocumentRepo.On("FindByID", mock.Anything, "doc-1").Return(submittedDoc(false), nil)
		store.On("PresignGet", mock.Anything, "attachments/doc-1/x.pdf", mock.Anything).Return("http://minio/x", nil)

		url, err := newDocService(uow, store).PresignAttachment(ctx, hqActor, "att-1")
		require.NoError(t, err)
		assert.Equal(t, "http://minio/x", url)
	})
}
