package users

import (
	"context"

	"github.com/framefarm/framefarm/internal/models"
)

type UseCase interface {
	Add(ctx context.Context, username string) (*models.User, error)
	Remove(ctx context.Context, username string) error
	Rekey(ctx context.Context, username string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
