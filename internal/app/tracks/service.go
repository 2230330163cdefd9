package tracks

import (
	"context"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
	"vinylfeed/internal/musicapi"
	"vinylfeed/internal/store"
)

// Store captures the persistence needs for track workflows.
type Store interface {
	ListTracks(ctx context.Context, page, limit int) ([]models.Track, int, error)
	SearchTracks(ctx context.Context, query string, page, limit int) ([]models.Track, int, error)
	GetTrack(ctx context.Context, id uuid.UUID) (*models.Track, error)
	CreateTrack(ctx context.Context, track *models.Track) (*models.Track, error)
	UpdateTrack(ctx context.Context, id uuid.UUID, update store.TrackUpdate) (*models.Track, error)
	DeleteTrack(ctx context.Context, id uuid.UUID) error
}

// Service exposes track-centric operations, including search against
// external platforms when a client is configured.
type Service interface {
	List(ctx context.Context, page, limit int) ([]models.Track, int, error)
	Search(ctx context.Context, query string, page, limit int) ([]models.Track, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Track, error)
	Create(ctx context.Context, track *models.Track) (*models.Track, error)
	Update(ctx context.Context, id uuid.UUID, update store.TrackUpdate) (*models.Track, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SearchPlatform(ctx context.Context, query string, limit int) ([]musicapi.Track, error)
}

type service struct {
	store    Store
	platform musicapi.Client
}

// New constructs a track Service. platform may be nil when no external
// platform credentials are configured.
func New(store Store, platform musicapi.Client) Service {
	return &service{store: store, platform: platform}
}

func (s *service) List(ctx context.Context, page, limit int) ([]models.Track, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListTracks(ctx, page, limit)
}

func (s *service) Search(ctx context.Context, query string, page, limit int) ([]models.Track, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.SearchTracks(ctx, query, page, limit)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetTrack(ctx, id)
}

func (s *service) Create(ctx context.Context, track *models.Track) (*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.CreateTrack(ctx, track)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, update store.TrackUpdate) (*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.UpdateTrack(ctx, id, update)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteTrack(ctx, id)
}

func (s *service) SearchPlatform(ctx context.Context, query string, limit int) ([]musicapi.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.platform == nil {
		return nil, musicapi.ErrNotConfigured
	}
	return s.platform.SearchTracks(ctx, query, limit)
}
