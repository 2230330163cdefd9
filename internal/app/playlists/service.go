package playlists

import (
	"context"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
	"vinylfeed/internal/store"
)

// Store captures the persistence needs for playlist workflows.
type Store interface {
	ListPublicPlaylists(ctx context.Context, page, limit int) ([]*models.Playlist, int, error)
	ListUserPlaylists(ctx context.Context, userID uuid.UUID, includePrivate bool, page, limit int) ([]*models.Playlist, int, error)
	GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	CreatePlaylist(ctx context.Context, userID uuid.UUID, playlist *models.Playlist) (*models.Playlist, error)
	UpdatePlaylist(ctx context.Context, id uuid.UUID, update store.PlaylistUpdate) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id uuid.UUID) error
}

// Service coordinates playlist-related operations.
type Service interface {
	ListPublic(ctx context.Context, page, limit int) ([]*models.Playlist, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, includePrivate bool, page, limit int) ([]*models.Playlist, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	Create(ctx context.Context, userID uuid.UUID, playlist *models.Playlist) (*models.Playlist, error)
	Update(ctx context.Context, id uuid.UUID, update store.PlaylistUpdate) (*models.Playlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) ListPublic(ctx context.Context, page, limit int) ([]*models.Playlist, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListPublicPlaylists(ctx, page, limit)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, includePrivate bool, page, limit int) ([]*models.Playlist, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListUserPlaylists(ctx, userID, includePrivate, page, limit)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetPlaylist(ctx, id)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, playlist *models.Playlist) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreatePlaylist(ctx, userID, playlist)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, update store.PlaylistUpdate) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdatePlaylist(ctx, id, update)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeletePlaylist(ctx, id)
}
