package repository

import (
	"context"

	"certdocs/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}
