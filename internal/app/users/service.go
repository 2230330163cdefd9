package users

import (
	"context"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
	"vinylfeed/internal/store"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	ListUsers(ctx context.Context, page, limit int) ([]models.User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, page, limit int) ([]models.User, int, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update store.UserUpdate) (*models.User, error)
}

// Service exposes user profile workflows.
type Service interface {
	List(ctx context.Context, page, limit int) ([]models.User, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Search(ctx context.Context, query string, page, limit int) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, update store.UserUpdate) (*models.User, error)
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, page, limit int) ([]models.User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListUsers(ctx, page, limit)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, id)
}

func (s *service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetUserByUsername(ctx, username)
}

func (s *service) Search(ctx context.Context, query string, page, limit int) ([]models.User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.SearchUsers(ctx, query, page, limit)
}

func (s *service) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, user)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, update store.UserUpdate) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateUser(ctx, id, update)
}
