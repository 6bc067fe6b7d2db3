package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/metrics"
	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
)

// AuditEvent describes a committed fact. Actor is nil for system events.
type AuditEvent struct {
	Action     model.AuditAction
	Actor      *model.Actor
	EntityType model.EntityType
	EntityID   string
	BranchID   string
	Details    any
}

// AuditRecorder appends audit entries inside the caller's transaction. It
// never vetoes an operation; a failed append fails the whole unit of work.
type AuditRecorder interface {
	Record(ctx context.Context, tx repository.Store, ev AuditEvent) (*model.AuditLogEntry, error)
}

type auditRecorder struct {
	now     func() time.Time
	metrics *metrics.Metrics
}

func NewAuditRecorder(m *metrics.Metrics) AuditRecorder {
	return &auditRecorder{now: time.Now, metrics: m}
}

func (r *auditRecorder) Record(ctx context.Context, tx repository.Store, ev AuditEvent) (*model.AuditLogEntry, error) {
	details := json.RawMessage(`{}`)
	if ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return nil, err
		}
		details = b
	}

	e := &model.AuditLogEntry{
		ID:          uuid.NewString(),
		Action:      ev.Action,
		EntityType:  ev.EntityType,
		DetailsJSON: details,
		CreatedAt:   r.now().UTC(),
	}
	if ev.Actor != nil {
		e.ActorUserID = strPtr(ev.Actor.ID)
		e.ActorEmail = strPtr(ev.Actor.Email)
	}
	if ev.EntityID != "" {
		e.EntityID = strPtr(ev.EntityID)
	}
	if ev.BranchID != "" {
		e.BranchID = strPtr(ev.BranchID)
	}

	stored, err := tx.Audit().Append(ctx, e)
	if err != nil {
		return nil, err
	}
	r.metrics.AuditRecorded(ev.Action)
	return stored, nil
}

// AuditQuery filters the audit log view.
type AuditQuery struct {
	Action     model.AuditAction
	ActorEmail string
	BranchID   string
	DocNo      string
	Dates      DateRange
	Page       int
	PageSize   int
}

// AuditPage is one page of audit entries.
type AuditPage struct {
	Items    []model.AuditLogEntry `json:"data"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// AuditService serves the read side of the audit log.
type AuditService interface {
	List(ctx context.Context, actor model.Actor, q AuditQuery) (*AuditPage, error)
}

type auditService struct {
	store repository.Store
	loc   *time.Location
}

func NewAuditService(store repository.Store, loc *time.Location) AuditService {
	if loc == nil {
		loc = time.UTC
	}
	return &auditService{store: store, loc: loc}
}

// List returns entries newest first. Branch admins only ever see their own
// branch. An unknown DocNo yields an empty page rather than an error.
func (s *auditService) List(ctx context.Context, actor model.Actor, q AuditQuery) (*AuditPage, error) {
	branchID, err := policy.ScopeBranch(actor, q.BranchID)
	if err != nil {
		return nil, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	limit, _ := normalizePage(q.PageSize, 0)
	page := &AuditPage{Items: []model.AuditLogEntry{}, Page: q.Page, PageSize: limit}

	f := repository.AuditFilter{Action: q.Action, ActorEmail: q.ActorEmail, BranchID: branchID}
	f.From, f.To = q.Dates.bounds(s.loc)

	if q.DocNo != "" {
		doc, err := s.store.Documents().FindByDocNo(ctx, q.DocNo)
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return page, nil
		}
		if err != nil {
			return nil, err
		}
		f.EntityID = doc.ID
	}

	res, err := s.store.Audit().List(ctx, f, repository.PageQuery{Limit: limit, Offset: (q.Page - 1) * limit})
	if err != nil {
		return nil, err
	}
	page.Items = res.Items
	page.Total = res.Total
	return page, nil
}
