// Package memberships coordinates playlist/track membership workflows: adds,
// removals, reorders and ordered listing. All position bookkeeping happens in
// the store; this layer keeps the call surface small for the HTTP handlers.
package memberships

import (
	"context"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
)

// Store captures the persistence needs for membership workflows.
type Store interface {
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID uuid.UUID, position *int, addedBy uuid.UUID) (*models.PlaylistTrack, error)
	RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID uuid.UUID) error
	MoveTrack(ctx context.Context, playlistID, trackID uuid.UUID, newPosition int) (*models.PlaylistTrack, error)
	ListPlaylistTracks(ctx context.Context, playlistID uuid.UUID, page, limit int) ([]models.PlaylistTrack, int, error)
}

// Service exposes membership operations.
type Service interface {
	Add(ctx context.Context, playlistID, trackID uuid.UUID, position *int, addedBy uuid.UUID) (*models.PlaylistTrack, error)
	Remove(ctx context.Context, playlistID, trackID uuid.UUID) error
	Reorder(ctx context.Context, playlistID, trackID uuid.UUID, newPosition int) (*models.PlaylistTrack, error)
	List(ctx context.Context, playlistID uuid.UUID, page, limit int) ([]models.PlaylistTrack, int, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Add(ctx context.Context, playlistID, trackID uuid.UUID, position *int, addedBy uuid.UUID) (*models.PlaylistTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.AddTrackToPlaylist(ctx, playlistID, trackID, position, addedBy)
}

func (s *service) Remove(ctx context.Context, playlistID, trackID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RemoveTrackFromPlaylist(ctx, playlistID, trackID)
}

func (s *service) Reorder(ctx context.Context, playlistID, trackID uuid.UUID, newPosition int) (*models.PlaylistTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.MoveTrack(ctx, playlistID, trackID, newPosition)
}

func (s *service) List(ctx context.Context, playlistID uuid.UUID, page, limit int) ([]models.PlaylistTrack, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListPlaylistTracks(ctx, playlistID, page, limit)
}
