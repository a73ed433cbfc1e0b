package repository

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
)

// UserRepository is the persistence boundary for users.
//
// Find methods return (nil, nil) when nothing matches. Save assigns the
// identifier and both timestamps; Update refreshes UpdatedAt.
type UserRepository interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	SearchByUsername(ctx context.Context, term string) ([]domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, user *domain.User) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
