package repository

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/internal/users"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/store"
)

type userRepo struct {
	mu     sync.Mutex
	store  *store.FileStore
	users  []*models.User
	logger logger.Logger
}

// NewUserRepo restores the registry from disk. A missing document is normal:
// the registry boots empty and a default user is created so the operator can
// connect at least once; its key is logged exactly then. A corrupt document
// is fatal.
func NewUserRepo(st *store.FileStore, bootstrapUser string, log logger.Logger) (users.Repository, error) {
	r := &userRepo{
		store:  st,
		logger: log,
	}
	found, err := r.store.Restore(&r.users)
	if err != nil {
		return nil, errors.Wrap(err, "users.NewUserRepo")
	}
	if !found {
		if bootstrapUser == "" {
			bootstrapUser = "admin"
		}
		user := &models.User{Username: bootstrapUser}
		if err = user.GenerateKey(); err != nil {
			return nil, err
		}
		r.users = append(r.users, user)
		if err = r.store.Save(r.users); err != nil {
			return nil, errors.Wrap(err, "users.NewUserRepo.Save")
		}
		log.Infof("created bootstrap user %q with key %s", user.Username, user.Key)
	}
	return r, nil
}

// refresh re-reads the on-disk document so a mutation never clobbers a
// concurrent writer. Caller holds the lock.
func (r *userRepo) refresh() error {
	var loaded []*models.User
	found, err := r.store.Restore(&loaded)
	if err != nil {
		return errors.Wrap(err, "users.refresh")
	}
	if found {
		r.users = loaded
	}
	return nil
}

func (r *userRepo) find(username string) *models.User {
	for _, u := range r.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (r *userRepo) Add(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	if r.find(username) != nil {
		return nil, users.ErrUserExists
	}
	user := &models.User{Username: username}
	if err := user.GenerateKey(); err != nil {
		return nil, err
	}
	r.users = append(r.users, user)
	if err := r.store.Save(r.users); err != nil {
		return nil, errors.Wrap(err, "users.Add.Save")
	}
	cp := *user
	return &cp, nil
}

func (r *userRepo) Remove(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return err
	}
	for i, u := range r.users {
		if u.Username == username {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return errors.Wrap(r.store.Save(r.users), "users.Remove.Save")
		}
	}
	return users.ErrUserNotFound
}

// Rekey replaces the user's key in place, invalidating every digest computed
// with the old one.
func (r *userRepo) Rekey(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	user := r.find(username)
	if user == nil {
		return nil, users.ErrUserNotFound
	}
	if err := user.GenerateKey(); err != nil {
		return nil, err
	}
	if err := r.store.Save(r.users); err != nil {
		return nil, errors.Wrap(err, "users.Rekey.Save")
	}
	cp := *user
	return &cp, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	user := r.find(username)
	if user == nil {
		return nil, users.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}
