package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/auth"
	"certdocs/internal/model"
	"certdocs/internal/policy"
	"certdocs/internal/repository"
)

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	BranchID *string
}

// UserPatch is a partial account update. BranchID set to "" detaches the
// user from its branch. ResetPassword replaces the password when non-nil.
type UserPatch struct {
	Name          *string
	Email         *string
	Role          *model.Role
	BranchID      *string
	IsActive      *bool
	ResetPassword *string
}

// UserService manages accounts. Headquarters only.
type UserService interface {
	List(ctx context.Context, actor model.Actor) ([]model.User, error)
	Create(ctx context.Context, actor model.Actor, in CreateUserInput) (*model.User, error)
	Update(ctx context.Context, actor model.Actor, id string, p UserPatch) (*model.User, error)
	// Deactivate soft-deletes an account. Nobody can deactivate themselves.
	Deactivate(ctx context.Context, actor model.Actor, id string) error
}

type userService struct {
	uow   repository.UnitOfWork
	audit AuditRecorder
	now   func() time.Time
}

func NewUserService(uow repository.UnitOfWork, audit AuditRecorder) UserService {
	return &userService{uow: uow, audit: audit, now: time.Now}
}

func (s *userService) List(ctx context.Context, actor model.Actor) ([]model.User, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}
	return s.uow.Users().List(ctx)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("invalid email")
	}
	return email, nil
}

// checkBranch enforces that a branch admin references an existing branch and
// that any referenced branch exists.
func checkBranch(ctx context.Context, tx repository.Store, role model.Role, branchID *string) error {
	if branchID == nil {
		if role == model.RoleBranchAdmin {
			return apperr.Validation("branch is required for BRANCH_ADMIN")
		}
		return nil
	}
	if _, err := tx.Branches().FindByID(ctx, *branchID); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return apperr.Validation("branch does not exist")
		}
		return err
	}
	return nil
}

func (s *userService) Create(ctx context.Context, actor model.Actor, in CreateUserInput) (*model.User, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}
	if err := minLen("name", in.Name, 2); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperr.Newf(apperr.CodeValidation, "unknown role %q", in.Role)
	}
	if len(in.Password) < auth.MinPasswordLen {
		return nil, apperr.Newf(apperr.CodeValidation, "password must be at least %d characters", auth.MinPasswordLen)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	branchID := optional(in.BranchID)

	var created *model.User
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := checkBranch(ctx, tx, in.Role, branchID); err != nil {
			return err
		}
		now := s.now().UTC()
		var err error
		created, err = tx.Users().Create(ctx, &model.User{
			ID:           uuid.NewString(),
			Name:         trim(in.Name),
			Email:        email,
			PasswordHash: hash,
			Role:         in.Role,
			BranchID:     branchID,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditUserCreated,
			Actor:      &actor,
			EntityType: model.EntityUser,
			EntityID:   created.ID,
			BranchID:   deref(created.BranchID),
			Details:    map[string]any{"email": created.Email, "role": created.Role},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *userService) Update(ctx context.Context, actor model.Actor, id string, p UserPatch) (*model.User, error) {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return nil, err
	}
	if id == actor.ID && p.IsActive != nil && !*p.IsActive {
		return nil, apperr.Validation("cannot disable own account")
	}

	var updated *model.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}

		changed := []string{}
		if p.Name != nil {
			if err := minLen("name", *p.Name, 2); err != nil {
				return err
			}
			if v := trim(*p.Name); v != u.Name {
				u.Name = v
				changed = append(changed, "name")
			}
		}
		if p.Email != nil {
			email, err := normalizeEmail(*p.Email)
			if err != nil {
				return err
			}
			if email != u.Email {
				u.Email = email
				changed = append(changed, "email")
			}
		}
		if p.Role != nil && *p.Role != u.Role {
			if !p.Role.Valid() {
				return apperr.Newf(apperr.CodeValidation, "unknown role %q", *p.Role)
			}
			u.Role = *p.Role
			changed = append(changed, "role")
		}
		if p.BranchID != nil {
			if v := optional(p.BranchID); !equalStr(v, u.BranchID) {
				u.BranchID = v
				changed = append(changed, "branchId")
			}
		}
		if p.ResetPassword != nil {
			if len(*p.ResetPassword) < auth.MinPasswordLen {
				return apperr.Newf(apperr.CodeValidation, "password must be at least %d characters", auth.MinPasswordLen)
			}
			hash, err := auth.HashPassword(*p.ResetPassword)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
			changed = append(changed, "password")
		}
		activeChanged := p.IsActive != nil && *p.IsActive != u.IsActive
		if activeChanged {
			u.IsActive = *p.IsActive
		}
		if len(changed) == 0 && !activeChanged {
			updated = u
			return nil
		}
		if err := checkBranch(ctx, tx, u.Role, u.BranchID); err != nil {
			return err
		}

		updated, err = tx.Users().Update(ctx, u)
		if err != nil {
			return err
		}

		if len(changed) > 0 {
			if _, err := s.audit.Record(ctx, tx, AuditEvent{
				Action:     model.AuditUserUpdated,
				Actor:      &actor,
				EntityType: model.EntityUser,
				EntityID:   updated.ID,
				BranchID:   deref(updated.BranchID),
				Details:    map[string]any{"email": updated.Email, "changedFields": changed},
			}); err != nil {
				return err
			}
		}
		if activeChanged {
			action := model.AuditUserDisabled
			if updated.IsActive {
				action = model.AuditUserEnabled
			}
			if _, err := s.audit.Record(ctx, tx, AuditEvent{
				Action:     action,
				Actor:      &actor,
				EntityType: model.EntityUser,
				EntityID:   updated.ID,
				BranchID:   deref(updated.BranchID),
				Details:    map[string]any{"email": updated.Email, "isActive": updated.IsActive},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *userService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	if err := policy.AuthorizeRole(actor, model.RoleHQAdmin); err != nil {
		return err
	}
	if id == actor.ID {
		return apperr.Validation("cannot deactivate own account")
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !u.IsActive {
			return nil
		}
		u.IsActive = false
		if _, err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, AuditEvent{
			Action:     model.AuditUserDisabled,
			Actor:      &actor,
			EntityType: model.EntityUser,
			EntityID:   u.ID,
			BranchID:   deref(u.BranchID),
			Details:    map[string]any{"email": u.Email, "deleted": true},
		})
		return err
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
