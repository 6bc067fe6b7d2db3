package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"certdocs/internal/apperr"
	"certdocs/internal/lifecycle"
	"certdocs/internal/metrics"
	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
	"certdocs/internal/storage"
)

// DetailAuditLimit is how many audit entries the document detail view carries.
const DetailAuditLimit = 50

// CreateDocumentInput carries the fields of a new document. BranchID is
// ignored for branch admins, who always create in their own branch.
type CreateDocumentInput struct {
	BranchID          string
	CandidateName     string
	CandidateIDNumber *string
	Phone             *string
	Occupation        string
	Level             string
	PaymentReceiptNo  *string
	PaymentAmount     *decimal.Decimal
	PaymentDate       *time.Time
	PaymentMethod     *string
}

// UpdateDocumentInput is a partial edit. Nil fields are left alone; an
// optional text field set to "" is cleared.
type UpdateDocumentInput struct {
	CandidateName     *string
	CandidateIDNumber *string
	Phone             *string
	Occupation        *string
	Level             *string
	PaymentReceiptNo  *string
	PaymentAmount     *decimal.Decimal
	PaymentDate       *time.Time
	PaymentMethod     *string
}

// DocumentQuery filters the document list.
type DocumentQuery struct {
	Query    string
	Status   model.Status
	BranchID string
	Dates    DateRange
	Limit    int
	Offset   int
}

// DocumentPage is one page of the document list.
type DocumentPage struct {
	Items  []model.DocumentSummary `json:"data"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// DocumentDetail is a document with its attachments, versions and recent history.
type DocumentDetail struct {
	Document    *model.Document         `json:"document"`
	Attachments []model.Attachment      `json:"attachments"`
	Versions    []model.DocumentVersion `json:"versions"`
	Audit       []model.AuditLogEntry   `json:"audit"`
}

// DocumentService is the document lifecycle engine. Every mutation commits
// the document row, its version snapshot and its audit entries together.
type DocumentService interface {
	Create(ctx context.Context, actor model.Actor, in CreateDocumentInput) (*model.Document, error)
	Get(ctx context.Context, actor model.Actor, id string) (*DocumentDetail, error)
	List(ctx context.Context, actor model.Actor, q DocumentQuery) (*DocumentPage, error)
	Update(ctx context.Context, actor model.Actor, id string, in UpdateDocumentInput) (*model.Document, error)
	ChangeStatus(ctx context.Context, actor model.Actor, id string, req lifecycle.Request) (*model.Document, error)

	AddAttachment(ctx context.Context, actor model.Actor, documentID string, up AttachmentUpload) (*model.Attachment, error)
	OpenAttachment(ctx context.Context, actor model.Actor, attachmentID string) (*AttachmentContent, error)
	PresignAttachment(ctx context.Context, actor model.Actor, attachmentID string) (string, error)
}

// DocumentOptions tunes a DocumentService. Zero values select defaults.
type DocumentOptions struct {
	MaxNumberAttempts int
	UploadMaxBytes    int64
	PresignExpiry     time.Duration
	// Location decides the calendar year used for numbering and date filters.
	Location *time.Location
}

type documentService struct {
	uow       repository.UnitOfWork
	store     storage.Storage
	numbering NumberingService
	audit     AuditRecorder
	metrics   *metrics.Metrics
	log       zerolog.Logger
	opts      DocumentOptions
	now       func() time.Time
}

func NewDocumentService(
	uow repository.UnitOfWork,
	store storage.Storage,
	numbering NumberingService,
	audit AuditRecorder,
	m *metrics.Metrics,
	log zerolog.Logger,
	opts DocumentOptions,
) DocumentService {
	if opts.MaxNumberAttempts <= 0 {
		opts.MaxNumberAttempts = 3
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = MaxUploadBytes
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 15 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &documentService{
		uow:       uow,
		store:     store,
		numbering: numbering,
		audit:     audit,
		metrics:   m,
		log:       log.With().Str("component", "document_service").Logger(),
		opts:      opts,
		now:       time.Now,
	}
}

// Create allocates a number and stores the document with version 1. A
// numbering conflict rolls the whole attempt back and is retried a bounded
// number of times.
func (s *documentService) Create(ctx context.Context, actor model.Actor, in CreateDocumentInput) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer func() { endSpan(span, err) }()

	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin, model.RoleBranchAdmin); err != nil {
		return nil, err
	}
	branchID := in.BranchID
	if actor.Role == model.RoleBranchAdmin {
		branchID = actor.BranchID
	}
	if branchID == "" {
		return nil, apperr.Validation("branch is required")
	}
	if err := policy.Authorize(actor, branchID, policy.Write); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	year := s.now().In(s.opts.Location).Year()
	for attempt := 1; ; attempt++ {
		var code string
		doc, code, err = s.createOnce(ctx, actor, branchID, year, in)
		if err == nil {
			s.metrics.DocumentCreated(code)
			return doc, nil
		}
		if !apperr.HasCode(err, apperr.CodeConflict) || attempt >= s.opts.MaxNumberAttempts {
			return nil, err
		}
		s.metrics.NumberingRetry()
		s.log.Warn().Err(err).
			Str("branch_id", branchID).
			Int("year", year).
			Int("attempt", attempt).
			Msg("document number conflict, retrying")
	}
}

func (s *documentService) createOnce(ctx context.Context, actor model.Actor, branchID string, year int, in CreateDocumentInput) (*model.Document, string, error) {
	var (
		created    *model.Document
		branchCode string
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		branch, err := tx.Branches().FindByID(ctx, branchID)
		if err != nil {
			return err
		}
		if !branch.IsActive {
			return apperr.Validation("branch is inactive")
		}
		branchCode = branch.Code

		docNo, err := s.numbering.AllocateTx(ctx, tx, branchID, year)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		created, err = tx.Documents().Create(ctx, &model.Document{
			ID:                uuid.NewString(),
			DocNo:             docNo,
			Type:              model.DocumentTypeAssessmentApplication,
			Status:            model.StatusSubmitted,
			BranchID:          branchID,
			CandidateName:     trim(in.CandidateName),
			CandidateIDNumber: optional(in.CandidateIDNumber),
			Phone:             optional(in.Phone),
			Occupation:        trim(in.Occupation),
			Level:             trim(in.Level),
			PaymentReceiptNo:  optional(in.PaymentReceiptNo),
			PaymentAmount:     in.PaymentAmount,
			PaymentDate:       in.PaymentDate,
			PaymentMethod:     optional(in.PaymentMethod),
			CreatedByUserID:   actor.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			return err
		}

		if err := s.writeVersion(ctx, tx, actor, created); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditDocumentCreated,
			Actor:      &actor,
			EntityType: model.EntityDocument,
			EntityID:   created.ID,
			BranchID:   created.BranchID,
			Details:    map[string]any{"docNo": created.DocNo},
		})
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return created, branchCode, nil
}

// writeVersion appends the next snapshot of doc. The caller holds the
// document row lock or has just inserted the row.
func (s *documentService) writeVersion(ctx context.Context, tx repository.Store, actor model.Actor, doc *model.Document) error {
	n, err := tx.Versions().NextNumber(ctx, doc.ID)
	if err != nil {
		return err
	}
	snap, err := doc.Snapshot()
	if err != nil {
		return err
	}
	_, err = tx.Versions().Create(ctx, &model.DocumentVersion{
		ID:              uuid.NewString(),
		DocumentID:      doc.ID,
		VersionNumber:   n,
		SnapshotJSON:    snap,
		CreatedByUserID: actor.ID,
		CreatedAt:       s.now().UTC(),
	})
	return err
}

func (s *documentService) Get(ctx context.Context, actor model.Actor, id string) (detail *DocumentDetail, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Get")
	defer func() { endSpan(span, err) }()

	doc, err := s.uow.Documents().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, doc.BranchID, policy.Read); err != nil {
		return nil, err
	}

	detail = &DocumentDetail{Document: doc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Attachments, err = s.uow.Attachments().ListByDocument(gctx, doc.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Versions, err = s.uow.Versions().ListByDocument(gctx, doc.ID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Audit, err = s.uow.Audit().ListByEntity(gctx, model.EntityDocument, doc.ID, DetailAuditLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns documents newest first. Branch admins are pinned to their own
// branch whatever BranchID they pass.
func (s *documentService) List(ctx context.Context, actor model.Actor, q DocumentQuery) (*DocumentPage, error) {
	branchID, err := policy.ScopeBranch(actor, q.BranchID)
	if err != nil {
		return nil, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Newf(apperr.CodeValidation, "unknown status %q", q.Status)
	}

	limit, offset := normalizePage(q.Limit, q.Offset)
	f := repository.DocumentFilter{Query: trim(q.Query), Status: q.Status, BranchID: branchID}
	f.From, f.To = q.Dates.bounds(s.opts.Location)

	res, err := s.uow.Documents().List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentPage{Items: res.Items, Total: res.Total, Limit: limit, Offset: offset}, nil
}

// Update applies a partial edit to a SUBMITTED document and snapshots the
// result. An edit that changes nothing writes nothing.
func (s *documentService) Update(ctx context.Context, actor model.Actor, id string, in UpdateDocumentInput) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update")
	defer func() { endSpan(span, err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Documents().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, current.BranchID, policy.Write); err != nil {
			return err
		}
		if err := lifecycle.CanEdit(current); err != nil {
			return err
		}
		if err := validateUpdate(in); err != nil {
			return err
		}

		next, changed := applyUpdate(*current, in)
		if len(changed) == 0 {
			doc = current
			return nil
		}

		doc, err = tx.Documents().Update(ctx, &next)
		if err != nil {
			return err
		}
		if err := s.writeVersion(ctx, tx, actor, doc); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditDocumentUpdated,
			Actor:      &actor,
			EntityType: model.EntityDocument,
			EntityID:   doc.ID,
			BranchID:   doc.BranchID,
			Details:    map[string]any{"docNo": doc.DocNo, "changedFields": changed},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ChangeStatus moves a document along the lifecycle. Undefined transitions
// are reported before write access is checked, so they fail the same way
// for every role.
func (s *documentService) ChangeStatus(ctx context.Context, actor model.Actor, id string, req lifecycle.Request) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.ChangeStatus")
	defer func() { endSpan(span, err) }()

	var res *lifecycle.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Documents().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, current.BranchID, policy.Read); err != nil {
			return err
		}
		if err := lifecycle.Check(current.Status, req.To); err != nil {
			return err
		}
		if err := policy.Authorize(actor, current.BranchID, policy.Write); err != nil {
			return err
		}

		attachments, err := tx.Attachments().ListByDocument(ctx, current.ID)
		if err != nil {
			return err
		}
		res, err = lifecycle.Apply(*current, attachments, actor, req)
		if err != nil {
			return err
		}

		doc, err = tx.Documents().Update(ctx, &res.Document)
		if err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditStatusChanged,
			Actor:      &actor,
			EntityType: model.EntityDocument,
			EntityID:   doc.ID,
			BranchID:   doc.BranchID,
			Details:    map[string]any{"docNo": doc.DocNo, "fromStatus": res.From, "toStatus": res.To},
		}); err != nil {
			return err
		}
		if res.To != model.StatusRejected {
			return nil
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditDocumentRejected,
			Actor:      &actor,
			EntityType: model.EntityDocument,
			EntityID:   doc.ID,
			BranchID:   doc.BranchID,
			Details:    map[string]any{"docNo": doc.DocNo, "reason": *doc.RejectReason},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(res.From, res.To)
	s.log.Info().
		Str("document_id", doc.ID).
		Str("doc_no", doc.DocNo).
		Str("from", string(res.From)).
		Str("to", string(res.To)).
		Str("actor_id", actor.ID).
		Msg("document status changed")
	return doc, nil
}

func validateCreate(in CreateDocumentInput) error {
	if err := minLen("candidateName", in.CandidateName, 2); err != nil {
		return err
	}
	if err := minLen("occupation", in.Occupation, 2); err != nil {
		return err
	}
	if err := minLen("level", in.Level, 1); err != nil {
		return err
	}
	return validatePayment(in.PaymentReceiptNo, in.PaymentAmount, in.PaymentMethod)
}

func validateUpdate(in UpdateDocumentInput) error {
	if in.CandidateName != nil {
		if err := minLen("candidateName", *in.CandidateName, 2); err != nil {
			return err
		}
	}
	if in.Occupation != nil {
		if err := minLen("occupation", *in.Occupation, 2); err != nil {
			return err
		}
	}
	if in.Level != nil {
		if err := minLen("level", *in.Level, 1); err != nil {
			return err
		}
	}
	return validatePayment(in.PaymentReceiptNo, in.PaymentAmount, in.PaymentMethod)
}

// validatePayment checks the payment fields that are present and non-blank.
func validatePayment(receiptNo *string, amount *decimal.Decimal, method *string) error {
	if v := optional(receiptNo); v != nil {
		if err := minLen("paymentReceiptNo", *v, 2); err != nil {
			return err
		}
	}
	if v := optional(method); v != nil {
		if err := minLen("paymentMethod", *v, 2); err != nil {
			return err
		}
	}
	if amount != nil && !amount.IsPositive() {
		return apperr.Validation("paymentAmount must be greater than 0")
	}
	return nil
}

// applyUpdate returns doc with in applied and the names of the fields whose
// value actually changed, in a stable order.
func applyUpdate(doc model.Document, in UpdateDocumentInput) (model.Document, []string) {
	changed := []string{}

	setText := func(name string, dst *string, src *string) {
		if src == nil {
			return
		}
		v := trim(*src)
		if v != *dst {
			*dst = v
			changed = append(changed, name)
		}
	}
	setOptional := func(name string, dst **string, src *string) {
		if src == nil {
			return
		}
		v := optional(src)
		if !equalStr(*dst, v) {
			*dst = v
			changed = append(changed, name)
		}
	}

	setText("candidateName", &doc.CandidateName, in.CandidateName)
	setOptional("candidateIdNumber", &doc.CandidateIDNumber, in.CandidateIDNumber)
	setOptional("phone", &doc.Phone, in.Phone)
	setText("occupation", &doc.Occupation, in.Occupation)
	setText("level", &doc.Level, in.Level)
	setOptional("paymentReceiptNo", &doc.PaymentReceiptNo, in.PaymentReceiptNo)
	if in.PaymentAmount != nil && (doc.PaymentAmount == nil || !doc.PaymentAmount.Equal(*in.PaymentAmount)) {
		amount := *in.PaymentAmount
		doc.PaymentAmount = &amount
		changed = append(changed, "paymentAmount")
	}
	if in.PaymentDate != nil && (doc.PaymentDate == nil || !sameDay(*doc.PaymentDate, *in.PaymentDate)) {
		date := *in.PaymentDate
		doc.PaymentDate = &date
		changed = append(changed, "paymentDate")
	}
	setOptional("paymentMethod", &doc.PaymentMethod, in.PaymentMethod)

	return doc, changed
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
