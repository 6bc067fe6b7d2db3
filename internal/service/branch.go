package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
)

// BranchInput creates a branch. Code is upper-cased.
type BranchInput struct {
	Name string
	Code string
}

// BranchPatch is a partial branch update.
type BranchPatch struct {
	Name     *string
	Code     *string
	IsActive *bool
}

// BranchService manages branches. Everything except ListActive is
// restricted to headquarters.
type BranchService interface {
	List(ctx context.Context, actor model.Actor) ([]model.BranchWithCounts, error)
	ListActive(ctx context.Context) ([]model.Branch, error)
	Create(ctx context.Context, actor model.Actor, in BranchInput) (*model.Branch, error)
	Update(ctx context.Context, actor model.Actor, id string, p BranchPatch) (*model.Branch, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type branchService struct {
	uow   repository.UnitOfWork
	audit AuditRecorder
	now   func() time.Time
}

func NewBranchService(uow repository.UnitOfWork, audit AuditRecorder) BranchService {
	return &branchService{uow: uow, audit: audit, now: time.Now}
}

func (s *branchService) List(ctx context.Context, actor model.Actor) ([]model.BranchWithCounts, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}
	return s.uow.Branches().List(ctx)
}

func (s *branchService) ListActive(ctx context.Context) ([]model.Branch, error) {
	return s.uow.Branches().ListActive(ctx)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if len(code) < 2 {
		return apperr.Validation("code must be at least 2 characters")
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return apperr.Validation("code may only contain letters and digits")
		}
	}
	return nil
}

func (s *branchService) Create(ctx context.Context, actor model.Actor, in BranchInput) (*model.Branch, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}
	code := normalizeCode(in.Code)
	if err := minLen("name", in.Name, 2); err != nil {
		return nil, err
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}

	var created *model.Branch
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		now := s.now().UTC()
		var err error
		created, err = tx.Branches().Create(ctx, &model.Branch{
			ID:        uuid.NewString(),
			Name:      trim(in.Name),
			Code:      code,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditBranchCreated,
			Actor:      &actor,
			EntityType: model.EntityBranch,
			EntityID:   created.ID,
			BranchID:   created.ID,
			Details:    map[string]any{"code": created.Code, "name": created.Name},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *branchService) Update(ctx context.Context, actor model.Actor, id string, p BranchPatch) (*model.Branch, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}

	var updated *model.Branch
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		b, err := tx.Branches().FindByID(ctx, id)
		if err != nil {
			return err
		}

		changed := []string{}
		if p.Name != nil {
			if err := minLen("name", *p.Name, 2); err != nil {
				return err
			}
			if v := trim(*p.Name); v != b.Name {
				b.Name = v
				changed = append(changed, "name")
			}
		}
		if p.Code != nil {
			code := normalizeCode(*p.Code)
			if err := validateCode(code); err != nil {
				return err
			}
			if code != b.Code {
				b.Code = code
				changed = append(changed, "code")
			}
		}
		if p.IsActive != nil && *p.IsActive != b.IsActive {
			b.IsActive = *p.IsActive
			changed = append(changed, "isActive")
		}
		if len(changed) == 0 {
			updated = b
			return nil
		}

		updated, err = tx.Branches().Update(ctx, b)
		if err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditBranchUpdated,
			Actor:      &actor,
			EntityType: model.EntityBranch,
			EntityID:   updated.ID,
			BranchID:   updated.ID,
			Details:    map[string]any{"code": updated.Code, "isActive": updated.IsActive, "changedFields": changed},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a branch that owns nothing. Branches with users or
// documents can only be deactivated.
func (s *branchService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return err
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		b, err := tx.Branches().FindByID(ctx, id)
		if err != nil {
			return err
		}
		users, docs, err := tx.Branches().CountDependents(ctx, id)
		if err != nil {
			return err
		}
		if users > 0 || docs > 0 {
			return apperr.Validation("cannot delete branch with users or documents; deactivate instead")
		}
		if err := tx.Branches().Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditBranchDeleted,
			Actor:      &actor,
			EntityType: model.EntityBranch,
			EntityID:   b.ID,
			Details:    map[string]any{"code": b.Code, "name": b.Name},
		})
		return err
	})
}
