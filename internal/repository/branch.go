package repository

import (
	"context"

	"certdocs/internal/model"
)

type BranchRepository interface {
	Create(ctx context.Context, b *model.Branch) (*model.Branch, error)
	FindByID(ctx context.Context, id string) (*model.Branch, error)
	Update(ctx context.Context, b *model.Branch) (*model.Branch, error)
	Delete(ctx context.Context, id string) error
	// List returns all branches ordered by name with dependent counts.
	List(ctx context.Context) ([]model.BranchWithCounts, error)
	ListActive(ctx context.Context) ([]model.Branch, error)
	// CountDependents returns how many users and documents reference the branch.
	CountDependents(ctx context.Context, id string) (users int, documents int, err error)
}
