package handler

import (
	"github.com/gofiber/fiber/v2"

	"certdocs/internal/model"
	"certdocs/internal/service"
)

type branchRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Code string `json:"code" validate:"required,min=2,alphanum"`
}

type branchPatchRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2"`
	Code     *string `json:"code" validate:"omitempty,min=2,alphanum"`
	IsActive *bool   `json:"is_active"`
}

type createUserRequest struct {
	Name     string     `json:"name" validate:"required,min=2"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=HQ_ADMIN BRANCH_ADMIN AUDITOR"`
	BranchID *string    `json:"branch_id" validate:"omitempty,uuid"`
}

type userPatchRequest struct {
	Name          *string     `json:"name" validate:"omitempty,min=2"`
	Email         *string     `json:"email" validate:"omitempty,email"`
	Role          *model.Role `json:"role" validate:"omitempty,oneof=HQ_ADMIN BRANCH_ADMIN AUDITOR"`
	BranchID      *string     `json:"branch_id" validate:"omitempty,uuid"`
	IsActive      *bool       `json:"is_active"`
	ResetPassword *string     `json:"reset_password"`
}

// ListActiveBranches returns the branches a document can be filed under.
func ListActiveBranches(svc service.BranchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branches, err := svc.ListActive(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": branches})
	}
}

// ListBranches godoc
// @Summary List all branches with usage counts
// @Tags admin
// @Produce json
// @Success 200 {array} model.BranchWithCounts
// @Failure 403 {object} errorPayload
// @Router /api/admin/branches [get]
func ListBranches(svc service.BranchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		branches, err := svc.List(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": branches})
	}
}

// CreateBranch godoc
// @Summary Create a branch
// @Tags admin
// @Accept json
// @Produce json
// @Param body body branchRequest true "branch"
// @Success 201 {object} model.Branch
// @Router /api/admin/branches [post]
func CreateBranch(svc service.BranchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var req branchRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		b, err := svc.Create(c.UserContext(), actor, service.BranchInput{Name: req.Name, Code: req.Code})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// UpdateBranch godoc
// @Summary Update a branch
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "branch id"
// @Param body body branchPatchRequest true "changes"
// @Success 200 {object} model.Branch
// @Router /api/admin/branches/{id} [patch]
func UpdateBranch(svc service.BranchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req branchPatchRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		b, err := svc.Update(c.UserContext(), actor, id, service.BranchPatch{
			Name:     req.Name,
			Code:     req.Code,
			IsActive: req.IsActive,
		})
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

// DeleteBranch godoc
// @Summary Delete an unused branch
// @Tags admin
// @Param id path string true "branch id"
// @Success 204
// @Failure 400 {object} errorPayload
// @Router /api/admin/branches/{id} [delete]
func DeleteBranch(svc service.BranchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListUsers godoc
// @Summary List accounts
// @Tags admin
// @Produce json
// @Success 200 {array} model.User
// @Router /api/admin/users [get]
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		users, err := svc.List(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": users})
	}
}

// CreateUser godoc
// @Summary Create an account
// @Tags admin
// @Accept json
// @Produce json
// @Param body body createUserRequest true "account"
// @Success 201 {object} model.User
// @Failure 409 {object} errorPayload
// @Router /api/admin/users [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var req createUserRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		u, err := svc.Create(c.UserContext(), actor, service.CreateUserInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
			BranchID: req.BranchID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// UpdateUser godoc
// @Summary Update an account
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "user id"
// @Param body body userPatchRequest true "changes"
// @Success 200 {object} model.User
// @Router /api/admin/users/{id} [patch]
func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req userPatchRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		u, err := svc.Update(c.UserContext(), actor, id, service.UserPatch{
			Name:          req.Name,
			Email:         req.Email,
			Role:          req.Role,
			BranchID:      req.BranchID,
			IsActive:      req.IsActive,
			ResetPassword: req.ResetPassword,
		})
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

// DeactivateUser godoc
// @Summary Deactivate an account
// @Tags admin
// @Param id path string true "user id"
// @Success 204
// @Router /api/admin/users/{id} [delete]
func DeactivateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Deactivate(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
