package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can see a playlist.
type Visibility string

const (
	VisibilityPublic    Visibility = "PUBLIC"
	VisibilityPrivate   Visibility = "PRIVATE"
	VisibilityFollowers Visibility = "FOLLOWERS"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFollowers:
		return true
	}
	return false
}

// User is a member of the platform. Identity verification lives with an
// external provider; we only keep the profile.
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	DisplayName   string    `json:"displayName" db:"display_name"`
	Bio           string    `json:"bio,omitempty" db:"bio"`
	ProfileImage  string    `json:"profileImage,omitempty" db:"profile_image"`
	PlaylistCount int       `json:"playlistCount,omitempty" db:"playlist_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Track is a song that can belong to any number of playlists.
type Track struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ISRC           string    `json:"isrc,omitempty" db:"isrc"`
	Title          string    `json:"title" db:"title"`
	Artist         string    `json:"artist" db:"artist"`
	Album          string    `json:"album,omitempty" db:"album"`
	DurationMS     int       `json:"duration" db:"duration_ms"`
	CoverURL       string    `json:"coverUrl,omitempty" db:"cover_url"`
	SpotifyID      string    `json:"spotifyId,omitempty" db:"spotify_id"`
	AppleMusicID   string    `json:"appleMusicId,omitempty" db:"apple_music_id"`
	YoutubeMusicID string    `json:"youtubeMusicId,omitempty" db:"youtube_music_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Playlist is a user-curated, ordered list of tracks. TrackCount is
// denormalized and maintained exclusively by the membership operations.
type Playlist struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"userId" db:"user_id"`
	Owner         *User           `json:"owner,omitempty"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description,omitempty" db:"description"`
	Visibility    Visibility      `json:"visibility" db:"visibility"`
	Collaborative bool            `json:"collaborative" db:"collaborative"`
	CoverURL      string          `json:"coverUrl,omitempty" db:"cover_url"`
	TrackCount    int             `json:"trackCount" db:"track_count"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
	Tracks        []PlaylistTrack `json:"tracks,omitempty"`
}

// PlaylistTrack links one track to one playlist at one ordinal position.
// Positions within a playlist are zero-based, unique and contiguous.
type PlaylistTrack struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PlaylistID uuid.UUID `json:"playlistId" db:"playlist_id"`
	TrackID    uuid.UUID `json:"trackId" db:"track_id"`
	Position   int       `json:"position" db:"position"`
	AddedByID  uuid.UUID `json:"addedById" db:"added_by"`
	AddedBy    *User     `json:"addedBy,omitempty"`
	AddedAt    time.Time `json:"addedAt" db:"added_at"`
	Track      *Track    `json:"track,omitempty"`
}
