package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
)

// Membership operations keep two invariants per playlist: the positions of
// its N rows are exactly {0..N-1}, and playlists.track_count equals N. Every
// mutation runs in a single transaction and takes a row lock on the playlist
// (SELECT ... FOR UPDATE) so concurrent writers against the same playlist are
// serialized; writers on different playlists do not contend.
//
// Bulk shifts run in two steps through a negative offset because
// (playlist_id, position) is unique and a single-pass shift could collide
// mid-update.

// AddTrackToPlaylist inserts a track into a playlist at the given position,
// shifting later members down. A nil position appends to the end.
func (s *Store) AddTrackToPlaylist(ctx context.Context, playlistID, trackID uuid.UUID, position *int, addedBy uuid.UUID) (*models.PlaylistTrack, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	count, err := lockPlaylist(ctx, tx, playlistID)
	if err != nil {
		return nil, err
	}

	track, err := trackByIDTx(ctx, tx, trackID)
	if err != nil {
		return nil, err
	}

	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT 1
		FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
	`, playlistID, trackID).Scan(&exists)
	if err == nil {
		return nil, ErrTrackInPlaylist
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	pos := count
	if position != nil {
		if *position < 0 || *position > count {
			return nil, ErrPositionOutOfRange
		}
		pos = *position
	}

	if pos < count {
		if err := shiftUp(ctx, tx, playlistID, pos); err != nil {
			return nil, err
		}
	}

	membership := &models.PlaylistTrack{
		ID:         uuid.New(),
		PlaylistID: playlistID,
		TrackID:    trackID,
		Position:   pos,
		AddedByID:  addedBy,
		AddedAt:    time.Now().UTC(),
		Track:      track,
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlist_tracks (id, playlist_id, track_id, position, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, membership.ID, playlistID, trackID, pos, addedBy, membership.AddedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTrackInPlaylist
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	if err := bumpTrackCount(ctx, tx, playlistID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add track: %w", err)
	}
	tx = nil

	return membership, nil
}

// RemoveTrackFromPlaylist deletes a membership and closes the gap it leaves.
func (s *Store) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := lockPlaylist(ctx, tx, playlistID); err != nil {
		return err
	}

	var (
		rowID    uuid.UUID
		position int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, position
		FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
	`, playlistID, trackID).Scan(&rowID, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTrackNotInPlaylist
	}
	if err != nil {
		return fmt.Errorf("lookup membership: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM playlist_tracks
		WHERE id = $1
	`, rowID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	if err := shiftDown(ctx, tx, playlistID, position); err != nil {
		return err
	}

	if err := bumpTrackCount(ctx, tx, playlistID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove track: %w", err)
	}
	tx = nil

	return nil
}

// MoveTrack relocates a member to newPosition, shifting the range between the
// old and new slots. The row is parked at the sentinel position -1 while the
// range moves so the (playlist_id, position) constraint never trips.
func (s *Store) MoveTrack(ctx context.Context, playlistID, trackID uuid.UUID, newPosition int) (*models.PlaylistTrack, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	count, err := lockPlaylist(ctx, tx, playlistID)
	if err != nil {
		return nil, err
	}

	var (
		rowID       uuid.UUID
		oldPosition int
		addedBy     uuid.UUID
		addedAt     time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, position, added_by, added_at
		FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
	`, playlistID, trackID).Scan(&rowID, &oldPosition, &addedBy, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotInPlaylist
	}
	if err != nil {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}

	if newPosition < 0 || newPosition >= count {
		return nil, ErrPositionOutOfRange
	}

	track, err := trackByIDTx(ctx, tx, trackID)
	if err != nil {
		return nil, err
	}

	membership := &models.PlaylistTrack{
		ID:         rowID,
		PlaylistID: playlistID,
		TrackID:    trackID,
		Position:   newPosition,
		AddedByID:  addedBy,
		AddedAt:    addedAt,
		Track:      track,
	}

	if newPosition == oldPosition {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit move track: %w", err)
		}
		tx = nil
		return membership, nil
	}

	// Phase 1: detach to the sentinel slot.
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = -1
		WHERE id = $1
	`, rowID); err != nil {
		return nil, fmt.Errorf("detach membership: %w", err)
	}

	// Phase 2: shift the affected range. The sentinel row sits at -1, the
	// offset pass parks shifted rows at -2 and below, so the two never meet.
	if newPosition > oldPosition {
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = -(position + 1)
			WHERE playlist_id = $1 AND position > $2 AND position <= $3
		`, playlistID, oldPosition, newPosition); err != nil {
			return nil, fmt.Errorf("shift range: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = -position - 2
			WHERE playlist_id = $1 AND position < -1
		`, playlistID); err != nil {
			return nil, fmt.Errorf("settle range: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = -(position + 2)
			WHERE playlist_id = $1 AND position >= $2 AND position < $3
		`, playlistID, newPosition, oldPosition); err != nil {
			return nil, fmt.Errorf("shift range: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = -position - 1
			WHERE playlist_id = $1 AND position < -1
		`, playlistID); err != nil {
			return nil, fmt.Errorf("settle range: %w", err)
		}
	}

	// Phase 3: place the row at its destination.
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = $1
		WHERE id = $2
	`, newPosition, rowID); err != nil {
		return nil, fmt.Errorf("place membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move track: %w", err)
	}
	tx = nil

	return membership, nil
}

// ListPlaylistTracks returns one page of a playlist's members ordered by
// position, with track and adding-user details attached.
func (s *Store) ListPlaylistTracks(ctx context.Context, playlistID uuid.UUID, page, limit int) ([]models.PlaylistTrack, int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1
		FROM playlists
		WHERE id = $1
	`, playlistID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("check playlist: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM playlist_tracks
		WHERE playlist_id = $1
	`, playlistID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count memberships: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.id, pt.playlist_id, pt.track_id, pt.position, pt.added_by, pt.added_at,
		       t.id, COALESCE(t.isrc, ''), t.title, t.artist, COALESCE(t.album, ''), t.duration_ms,
		       COALESCE(t.cover_url, ''), COALESCE(t.spotify_id, ''), COALESCE(t.apple_music_id, ''),
		       COALESCE(t.youtube_music_id, ''), t.created_at, t.updated_at,
		       u.id, u.username, COALESCE(u.display_name, '')
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		JOIN users u ON u.id = pt.added_by
		WHERE pt.playlist_id = $1
		ORDER BY pt.position ASC
		LIMIT $2 OFFSET $3
	`, playlistID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]models.PlaylistTrack, 0)
	for rows.Next() {
		var (
			pt    models.PlaylistTrack
			track models.Track
			user  models.User
		)
		if err := rows.Scan(&pt.ID, &pt.PlaylistID, &pt.TrackID, &pt.Position, &pt.AddedByID, &pt.AddedAt,
			&track.ID, &track.ISRC, &track.Title, &track.Artist, &track.Album, &track.DurationMS,
			&track.CoverURL, &track.SpotifyID, &track.AppleMusicID,
			&track.YoutubeMusicID, &track.CreatedAt, &track.UpdatedAt,
			&user.ID, &user.Username, &user.DisplayName); err != nil {
			return nil, 0, fmt.Errorf("scan membership: %w", err)
		}
		pt.Track = &track
		pt.AddedBy = &user
		memberships = append(memberships, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, total, nil
}

// lockPlaylist takes the per-playlist write lock and returns the current
// track count.
func lockPlaylist(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT track_count
		FROM playlists
		WHERE id = $1
		FOR UPDATE
	`, playlistID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPlaylistNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock playlist: %w", err)
	}
	return count, nil
}

// shiftUp opens a slot at from by moving every position >= from one step
// later, passing through negative space to dodge the uniqueness constraint.
func shiftUp(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID, from int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = -(position + 2)
		WHERE playlist_id = $1 AND position >= $2
	`, playlistID, from); err != nil {
		return fmt.Errorf("shift up: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = -position - 1
		WHERE playlist_id = $1 AND position < 0
	`, playlistID); err != nil {
		return fmt.Errorf("settle shift up: %w", err)
	}
	return nil
}

// shiftDown closes the gap at removed by moving every later position one step
// earlier.
func shiftDown(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID, removed int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = -(position + 1)
		WHERE playlist_id = $1 AND position > $2
	`, playlistID, removed); err != nil {
		return fmt.Errorf("shift down: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlist_tracks
		SET position = -position - 2
		WHERE playlist_id = $1 AND position < 0
	`, playlistID); err != nil {
		return fmt.Errorf("settle shift down: %w", err)
	}
	return nil
}

func bumpTrackCount(ctx context.Context, tx *sql.Tx, playlistID uuid.UUID, delta int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE playlists
		SET track_count = track_count + $1, updated_at = $2
		WHERE id = $3
	`, delta, time.Now().UTC(), playlistID); err != nil {
		return fmt.Errorf("update track count: %w", err)
	}
	return nil
}

func trackByIDTx(ctx context.Context, tx *sql.Tx, trackID uuid.UUID) (*models.Track, error) {
	var track models.Track
	err := tx.QueryRowContext(ctx, `
		SELECT id, COALESCE(isrc, ''), title, artist, COALESCE(album, ''), duration_ms,
		       COALESCE(cover_url, ''), COALESCE(spotify_id, ''), COALESCE(apple_music_id, ''),
		       COALESCE(youtube_music_id, ''), created_at, updated_at
		FROM tracks
		WHERE id = $1
	`, trackID).Scan(&track.ID, &track.ISRC, &track.Title, &track.Artist, &track.Album, &track.DurationMS,
		&track.CoverURL, &track.SpotifyID, &track.AppleMusicID,
		&track.YoutubeMusicID, &track.CreatedAt, &track.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return &track, nil
}
