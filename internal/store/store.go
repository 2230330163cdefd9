package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken signals the username is already in use.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrTrackNotFound indicates the referenced track does not exist.
	ErrTrackNotFound = errors.New("track not found")
	// ErrISRCExists signals a track with the same ISRC already exists.
	ErrISRCExists = errors.New("track with this ISRC already exists")
	// ErrPlaylistNotFound indicates the referenced playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrTrackNotInPlaylist indicates the track is not a member of the playlist.
	ErrTrackNotInPlaylist = errors.New("track not found in playlist")
	// ErrTrackInPlaylist signals the track is already a member of the playlist.
	ErrTrackInPlaylist = errors.New("track already in playlist")
	// ErrPositionOutOfRange indicates a position argument outside the valid range.
	ErrPositionOutOfRange = errors.New("position out of range")
	// ErrTitleRequired signals a missing playlist title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidVisibility signals an unknown playlist visibility value.
	ErrInvalidVisibility = errors.New("invalid visibility")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
