package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/lifecycle"
	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
	"certdocs/internal/storage"
)

// MaxUploadBytes is the default attachment size limit (10 MiB).
const MaxUploadBytes int64 = 10 << 20

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// AttachmentUpload is an incoming file. Size must be the exact byte count.
type AttachmentUpload struct {
	Kind         model.AttachmentKind
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

// AttachmentContent is an opened attachment. Callers close Body.
type AttachmentContent struct {
	Attachment *model.Attachment
	Body       io.ReadCloser
	Size       int64
}

func (s *documentService) validateUpload(up AttachmentUpload) error {
	if up.Body == nil {
		return apperr.Validation("file is required")
	}
	if !up.Kind.Valid() {
		return apperr.Newf(apperr.CodeValidation, "unknown attachment kind %q", up.Kind)
	}
	if strings.TrimSpace(up.OriginalName) == "" {
		return apperr.Validation("file name is required")
	}
	if !allowedMimeTypes[up.MimeType] {
		return apperr.Newf(apperr.CodeValidation, "unsupported file type %q", up.MimeType)
	}
	if up.Size <= 0 {
		return apperr.Validation("file is empty")
	}
	if up.Size > s.opts.UploadMaxBytes {
		return apperr.Newf(apperr.CodeValidation, "file exceeds %d bytes", s.opts.UploadMaxBytes)
	}
	return nil
}

// AddAttachment streams the file to storage and then records it. If the
// record cannot be committed the stored object is removed again.
func (s *documentService) AddAttachment(ctx context.Context, actor model.Actor, documentID string, up AttachmentUpload) (att *model.Attachment, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.AddAttachment")
	defer func() { endSpan(span, err) }()

	doc, err := s.uow.Documents().FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, doc.BranchID, policy.Write); err != nil {
		return nil, err
	}
	if err := lifecycle.CanAttach(doc); err != nil {
		return nil, err
	}
	if err := s.validateUpload(up); err != nil {
		return nil, err
	}

	key, storedName := storage.AttachmentKey(doc.ID, up.OriginalName)
	info, err := s.store.Put(ctx, key, io.LimitReader(up.Body, up.Size), storage.PutObjectOptions{
		Size:        up.Size,
		ContentType: up.MimeType,
		Metadata:    map[string]string{"original-filename": up.OriginalName},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to store file")
	}
	size := up.Size
	if info.Size > 0 {
		size = info.Size
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Documents().FindByIDForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := lifecycle.CanAttach(locked); err != nil {
			return err
		}

		att, err = tx.Attachments().Create(ctx, &model.Attachment{
			ID:               uuid.NewString(),
			DocumentID:       locked.ID,
			Kind:             up.Kind,
			OriginalName:     up.OriginalName,
			StoredName:       storedName,
			MimeType:         up.MimeType,
			SizeBytes:        size,
			StoragePath:      key,
			UploadedByUserID: actor.ID,
			CreatedAt:        s.now().UTC(),
		})
		if err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditFileUploaded,
			Actor:      &actor,
			EntityType: model.EntityDocument,
			EntityID:   locked.ID,
			BranchID:   locked.BranchID,
			Details: map[string]any{
				"attachmentId": att.ID,
				"docNo":        locked.DocNo,
				"kind":         att.Kind,
				"originalName": att.OriginalName,
				"sizeBytes":    att.SizeBytes,
				"mimeType":     att.MimeType,
			},
		})
		return err
	})
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", key).Msg("failed to remove orphaned attachment object")
		}
		return nil, err
	}

	s.metrics.AttachmentUploaded(att.Kind, att.SizeBytes)
	return att, nil
}

func (s *documentService) readableAttachment(ctx context.Context, actor model.Actor, attachmentID string) (*model.Attachment, error) {
	att, err := s.uow.Attachments().FindByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.uow.Documents().FindByID(ctx, att.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, doc.BranchID, policy.Read); err != nil {
		return nil, err
	}
	return att, nil
}

// OpenAttachment streams an attachment the actor may read.
func (s *documentService) OpenAttachment(ctx context.Context, actor model.Actor, attachmentID string) (*AttachmentContent, error) {
	att, err := s.readableAttachment(ctx, actor, attachmentID)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, att.StoragePath)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to read file")
	}
	size := att.SizeBytes
	if info.Size > 0 {
		size = info.Size
	}
	return &AttachmentContent{Attachment: att, Body: body, Size: size}, nil
}

// PresignAttachment returns a short-lived direct download URL.
func (s *documentService) PresignAttachment(ctx context.Context, actor model.Actor, attachmentID string) (string, error) {
	att, err := s.readableAttachment(ctx, actor, attachmentID)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, att.StoragePath, s.opts.PresignExpiry)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to sign download url")
	}
	return url, nil
}
