package users

import (
	"context"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// Repository is the durable user registry. Implementations must re-read the
// backing document before every externally visible read and persist after
// every mutation.
type Repository interface {
	Add(ctx context.Context, username string) (*models.User, error)
	Remove(ctx context.Context, username string) error
	Rekey(ctx context.Context, username string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
