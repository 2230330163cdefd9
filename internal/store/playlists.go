package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"vinylfeed/internal/models"
)

// PlaylistUpdate carries the fields of a partial playlist update. Nil fields
// are left untouched. TrackCount is deliberately absent: only the membership
// operations may change it.
type PlaylistUpdate struct {
	Title         *string
	Description   *string
	Visibility    *models.Visibility
	Collaborative *bool
	CoverURL      *string
}

// ListPublicPlaylists returns one page of the public discovery feed, newest
// first, with each playlist's ordered tracks attached.
func (s *Store) ListPublicPlaylists(ctx context.Context, page, limit int) ([]*models.Playlist, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM playlists
		WHERE visibility = $1
	`, models.VisibilityPublic).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count playlists: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''), p.visibility, p.collaborative,
		       COALESCE(p.cover_url, ''), p.track_count, p.created_at, p.updated_at,
		       u.username, COALESCE(u.display_name, ''), COALESCE(u.profile_image, '')
		FROM playlists p
		JOIN users u ON u.id = p.user_id
		WHERE p.visibility = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, models.VisibilityPublic, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*models.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylistWithOwner(rows)
		if err != nil {
			return nil, 0, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate playlists: %w", err)
	}

	if err := s.attachPlaylistTracks(ctx, playlists); err != nil {
		return nil, 0, err
	}
	return playlists, total, nil
}

// ListUserPlaylists returns one page of a user's playlists, newest first,
// with each playlist's ordered tracks attached. Private and followers-only
// playlists are included only when includePrivate is set; callers pass true
// when the requester is viewing their own profile.
func (s *Store) ListUserPlaylists(ctx context.Context, userID uuid.UUID, includePrivate bool, page, limit int) ([]*models.Playlist, int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1
		FROM users
		WHERE id = $1
	`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrUserNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("check user: %w", err)
	}

	var (
		total int
		rows  *sql.Rows
	)
	if includePrivate {
		if err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM playlists
			WHERE user_id = $1
		`, userID).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count user playlists: %w", err)
		}

		rows, err = s.db.QueryContext(ctx, `
			SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''), p.visibility, p.collaborative,
			       COALESCE(p.cover_url, ''), p.track_count, p.created_at, p.updated_at,
			       u.username, COALESCE(u.display_name, ''), COALESCE(u.profile_image, '')
			FROM playlists p
			JOIN users u ON u.id = p.user_id
			WHERE p.user_id = $1
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $2 OFFSET $3
		`, userID, limit, (page-1)*limit)
	} else {
		if err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM playlists
			WHERE user_id = $1 AND visibility = $2
		`, userID, models.VisibilityPublic).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count user playlists: %w", err)
		}

		rows, err = s.db.QueryContext(ctx, `
			SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''), p.visibility, p.collaborative,
			       COALESCE(p.cover_url, ''), p.track_count, p.created_at, p.updated_at,
			       u.username, COALESCE(u.display_name, ''), COALESCE(u.profile_image, '')
			FROM playlists p
			JOIN users u ON u.id = p.user_id
			WHERE p.user_id = $1 AND p.visibility = $2
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $3 OFFSET $4
		`, userID, models.VisibilityPublic, limit, (page-1)*limit)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list user playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*models.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylistWithOwner(rows)
		if err != nil {
			return nil, 0, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user playlists: %w", err)
	}

	if err := s.attachPlaylistTracks(ctx, playlists); err != nil {
		return nil, 0, err
	}
	return playlists, total, nil
}

// GetPlaylist returns a single playlist with its ordered tracks.
func (s *Store) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''), p.visibility, p.collaborative,
		       COALESCE(p.cover_url, ''), p.track_count, p.created_at, p.updated_at,
		       u.username, COALESCE(u.display_name, ''), COALESCE(u.profile_image, '')
		FROM playlists p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`, id)

	playlist, err := scanPlaylistWithOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachPlaylistTracks(ctx, []*models.Playlist{playlist}); err != nil {
		return nil, err
	}
	return playlist, nil
}

// CreatePlaylist persists a new playlist owned by userID.
func (s *Store) CreatePlaylist(ctx context.Context, userID uuid.UUID, playlist *models.Playlist) (*models.Playlist, error) {
	if playlist == nil {
		return nil, errors.New("playlist is required")
	}
	playlist.Title = strings.TrimSpace(playlist.Title)
	if playlist.Title == "" {
		return nil, ErrTitleRequired
	}
	if playlist.Visibility == "" {
		playlist.Visibility = models.VisibilityPublic
	}
	if !playlist.Visibility.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidVisibility, playlist.Visibility)
	}

	var owner models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, COALESCE(display_name, ''), COALESCE(profile_image, '')
		FROM users
		WHERE id = $1
	`, userID).Scan(&owner.ID, &owner.Username, &owner.DisplayName, &owner.ProfileImage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	playlist.ID = uuid.New()
	playlist.UserID = userID
	playlist.Owner = &owner
	playlist.TrackCount = 0
	now := time.Now().UTC()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO playlists (id, user_id, title, description, visibility, collaborative, cover_url, track_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
	`, playlist.ID, userID, playlist.Title, nullIfEmpty(playlist.Description), playlist.Visibility,
		playlist.Collaborative, nullIfEmpty(playlist.CoverURL), now); err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}

	playlist.Tracks = make([]models.PlaylistTrack, 0)
	return playlist, nil
}

// UpdatePlaylist applies a partial update and returns the stored playlist.
func (s *Store) UpdatePlaylist(ctx context.Context, id uuid.UUID, update PlaylistUpdate) (*models.Playlist, error) {
	sets := []string{}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		add("title", title)
	}
	if update.Description != nil {
		add("description", nullIfEmpty(*update.Description))
	}
	if update.Visibility != nil {
		if !update.Visibility.Valid() {
			return nil, fmt.Errorf("%w %q", ErrInvalidVisibility, *update.Visibility)
		}
		add("visibility", *update.Visibility)
	}
	if update.Collaborative != nil {
		add("collaborative", *update.Collaborative)
	}
	if update.CoverURL != nil {
		add("cover_url", nullIfEmpty(*update.CoverURL))
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE playlists SET %s WHERE id = $%d", strings.Join(sets, ", "), argIdx),
			args...)
		if err != nil {
			return nil, fmt.Errorf("update playlist: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil, ErrPlaylistNotFound
		}
	}

	return s.GetPlaylist(ctx, id)
}

// DeletePlaylist removes a playlist; its memberships go with it.
func (s *Store) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlists
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// attachPlaylistTracks loads the ordered memberships for a batch of playlists
// in one round trip.
func (s *Store) attachPlaylistTracks(ctx context.Context, playlists []*models.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Playlist, len(playlists))
	ids := make([]string, 0, len(playlists))
	for _, playlist := range playlists {
		playlist.Tracks = make([]models.PlaylistTrack, 0)
		byID[playlist.ID] = playlist
		ids = append(ids, playlist.ID.String())
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.id, pt.playlist_id, pt.track_id, pt.position, pt.added_by, pt.added_at,
		       t.id, COALESCE(t.isrc, ''), t.title, t.artist, COALESCE(t.album, ''), t.duration_ms,
		       COALESCE(t.cover_url, ''), COALESCE(t.spotify_id, ''), COALESCE(t.apple_music_id, ''),
		       COALESCE(t.youtube_music_id, ''), t.created_at, t.updated_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ANY($1::uuid[])
		ORDER BY pt.playlist_id, pt.position ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load playlist tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pt    models.PlaylistTrack
			track models.Track
		)
		if err := rows.Scan(&pt.ID, &pt.PlaylistID, &pt.TrackID, &pt.Position, &pt.AddedByID, &pt.AddedAt,
			&track.ID, &track.ISRC, &track.Title, &track.Artist, &track.Album, &track.DurationMS,
			&track.CoverURL, &track.SpotifyID, &track.AppleMusicID,
			&track.YoutubeMusicID, &track.CreatedAt, &track.UpdatedAt); err != nil {
			return fmt.Errorf("scan playlist track: %w", err)
		}
		pt.Track = &track
		if playlist, ok := byID[pt.PlaylistID]; ok {
			playlist.Tracks = append(playlist.Tracks, pt)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate playlist tracks: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlaylistWithOwner(row rowScanner) (*models.Playlist, error) {
	var (
		playlist models.Playlist
		owner    models.User
	)
	if err := row.Scan(&playlist.ID, &playlist.UserID, &playlist.Title, &playlist.Description,
		&playlist.Visibility, &playlist.Collaborative, &playlist.CoverURL, &playlist.TrackCount,
		&playlist.CreatedAt, &playlist.UpdatedAt,
		&owner.Username, &owner.DisplayName, &owner.ProfileImage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	owner.ID = playlist.UserID
	playlist.Owner = &owner
	return &playlist, nil
}
