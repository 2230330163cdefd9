// Package musicapi talks to external streaming platforms. Clients resolve
// track metadata so imported tracks arrive with their platform IDs and ISRC
// already filled in.
package musicapi

import (
	"context"
	"errors"
)

// Provider identifies a music streaming platform.
type Provider string

const (
	ProviderSpotify    Provider = "spotify"
	ProviderAppleMusic Provider = "apple_music"
)

// ErrNotConfigured is returned when no platform credentials were supplied.
var ErrNotConfigured = errors.New("no music platform configured")

// Track is a track as described by an external platform.
type Track struct {
	ExternalID string   `json:"externalId"`
	Provider   Provider `json:"provider"`
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration"`
	ISRC       string   `json:"isrc,omitempty"`
	CoverURL   string   `json:"coverUrl,omitempty"`
	PreviewURL string   `json:"previewUrl,omitempty"`
}

// Client is the platform-facing surface the track service depends on.
type Client interface {
	// SearchTracks searches the platform catalogue by free text.
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)

	// GetTrack fetches a single track by its platform ID.
	GetTrack(ctx context.Context, externalID string) (*Track, error)
}
