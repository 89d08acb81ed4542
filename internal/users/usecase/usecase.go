package usecase

import (
	"context"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/internal/users"
	"github.com/framefarm/framefarm/pkg/logger"
)

type usersUC struct {
	cfg       *config.Config
	usersRepo users.Repository
	logger    logger.Logger
}

func NewUsersUseCase(cfg *config.Config, usersRepo users.Repository, log logger.Logger) users.UseCase {
	return &usersUC{
		cfg:       cfg,
		usersRepo: usersRepo,
		logger:    log,
	}
}

func (u *usersUC) Add(ctx context.Context, username string) (*models.User, error) {
	user, err := u.usersRepo.Add(ctx, username)
	if err != nil {
		return nil, err
	}
	u.logger.Infof("added user %q", user.Username)
	return user, nil
}

func (u *usersUC) Remove(ctx context.Context, username string) error {
	if err := u.usersRepo.Remove(ctx, username); err != nil {
		return err
	}
	u.logger.Infof("removed user %q", username)
	return nil
}

func (u *usersUC) Rekey(ctx context.Context, username string) (*models.User, error) {
	user, err := u.usersRepo.Rekey(ctx, username)
	if err != nil {
		return nil, err
	}
	u.logger.Infof("rekeyed user %q", username)
	return user, nil
}

func (u *usersUC) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.usersRepo.GetByUsername(ctx, username)
}

func (u *usersUC) List(ctx context.Context) ([]*models.User, error) {
	list, err := u.usersRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range list {
		user.SanitizeKey()
	}
	return list, nil
}
