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

const trackColumns = `id, COALESCE(isrc, ''), title, artist, COALESCE(album, ''), duration_ms,
	       COALESCE(cover_url, ''), COALESCE(spotify_id, ''), COALESCE(apple_music_id, ''),
	       COALESCE(youtube_music_id, ''), created_at, updated_at`

// TrackUpdate carries the fields of a partial track update. Nil fields are
// left untouched.
type TrackUpdate struct {
	ISRC           *string
	Title          *string
	Artist         *string
	Album          *string
	DurationMS     *int
	CoverURL       *string
	SpotifyID      *string
	AppleMusicID   *string
	YoutubeMusicID *string
}

// ListTracks returns one page of tracks, newest first, plus the total count.
func (s *Store) ListTracks(ctx context.Context, page, limit int) ([]models.Track, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tracks
	`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tracks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// SearchTracks matches query against title, artist and album,
// case-insensitively.
func (s *Store) SearchTracks(ctx context.Context, query string, page, limit int) ([]models.Track, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tracks
		WHERE title ILIKE $1 OR artist ILIKE $1 OR album ILIKE $1
	`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count track matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks
		WHERE title ILIKE $1 OR artist ILIKE $1 OR album ILIKE $1
		ORDER BY title ASC, id ASC
		LIMIT $2 OFFSET $3
	`, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("search tracks: %w", err)
	}
	defer rows.Close()

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// GetTrack returns a single track by ID.
func (s *Store) GetTrack(ctx context.Context, id uuid.UUID) (*models.Track, error) {
	var track models.Track
	err := s.db.QueryRowContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks
		WHERE id = $1
	`, id).Scan(trackFields(&track)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return &track, nil
}

// CreateTrack persists a new track. A non-empty ISRC must be unique.
func (s *Store) CreateTrack(ctx context.Context, track *models.Track) (*models.Track, error) {
	if track == nil {
		return nil, errors.New("track is required")
	}
	track.Title = strings.TrimSpace(track.Title)
	track.Artist = strings.TrimSpace(track.Artist)
	if track.Title == "" || track.Artist == "" {
		return nil, errors.New("title and artist are required")
	}

	if track.ISRC != "" {
		var existing uuid.UUID
		err := s.db.QueryRowContext(ctx, `
			SELECT id
			FROM tracks
			WHERE isrc = $1
		`, track.ISRC).Scan(&existing)
		if err == nil {
			return nil, ErrISRCExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check isrc: %w", err)
		}
	}

	track.ID = uuid.New()
	now := time.Now().UTC()
	track.CreatedAt = now
	track.UpdatedAt = now

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (id, isrc, title, artist, album, duration_ms, cover_url, spotify_id, apple_music_id, youtube_music_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, track.ID, nullIfEmpty(track.ISRC), track.Title, track.Artist, nullIfEmpty(track.Album), track.DurationMS,
		nullIfEmpty(track.CoverURL), nullIfEmpty(track.SpotifyID), nullIfEmpty(track.AppleMusicID),
		nullIfEmpty(track.YoutubeMusicID), now); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrISRCExists
		}
		return nil, fmt.Errorf("insert track: %w", err)
	}

	return track, nil
}

// UpdateTrack applies a partial update and returns the stored track.
func (s *Store) UpdateTrack(ctx context.Context, id uuid.UUID, update TrackUpdate) (*models.Track, error) {
	sets := []string{}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.ISRC != nil {
		add("isrc", nullIfEmpty(*update.ISRC))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Artist != nil {
		add("artist", *update.Artist)
	}
	if update.Album != nil {
		add("album", nullIfEmpty(*update.Album))
	}
	if update.DurationMS != nil {
		add("duration_ms", *update.DurationMS)
	}
	if update.CoverURL != nil {
		add("cover_url", nullIfEmpty(*update.CoverURL))
	}
	if update.SpotifyID != nil {
		add("spotify_id", nullIfEmpty(*update.SpotifyID))
	}
	if update.AppleMusicID != nil {
		add("apple_music_id", nullIfEmpty(*update.AppleMusicID))
	}
	if update.YoutubeMusicID != nil {
		add("youtube_music_id", nullIfEmpty(*update.YoutubeMusicID))
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE tracks SET %s WHERE id = $%d", strings.Join(sets, ", "), argIdx),
			args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrISRCExists
			}
			return nil, fmt.Errorf("update track: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil, ErrTrackNotFound
		}
	}

	return s.GetTrack(ctx, id)
}

// DeleteTrack removes a track. The cascade drops its memberships, so every
// playlist that contained it is renumbered and its count corrected in the
// same transaction.
func (s *Store) DeleteTrack(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id
		FROM playlists
		WHERE id IN (SELECT playlist_id FROM playlist_tracks WHERE track_id = $1)
		FOR UPDATE
	`, id)
	if err != nil {
		return fmt.Errorf("lock affected playlists: %w", err)
	}
	var affectedIDs []string
	for rows.Next() {
		var playlistID uuid.UUID
		if err := rows.Scan(&playlistID); err != nil {
			rows.Close()
			return fmt.Errorf("scan playlist id: %w", err)
		}
		affectedIDs = append(affectedIDs, playlistID.String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate playlist ids: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM tracks
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTrackNotFound
	}

	if len(affectedIDs) > 0 {
		// Renumber through negative space, then flip back, so the
		// (playlist_id, position) constraint holds throughout.
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks pt
			SET position = -seq.rn
			FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY playlist_id ORDER BY position) AS rn
				FROM playlist_tracks
				WHERE playlist_id = ANY($1::uuid[])
			) seq
			WHERE pt.id = seq.id
		`, pq.Array(affectedIDs)); err != nil {
			return fmt.Errorf("renumber memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = -position - 1
			WHERE playlist_id = ANY($1::uuid[]) AND position < 0
		`, pq.Array(affectedIDs)); err != nil {
			return fmt.Errorf("settle renumber: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE playlists
			SET track_count = (SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = playlists.id)
			WHERE id = ANY($1::uuid[])
		`, pq.Array(affectedIDs)); err != nil {
			return fmt.Errorf("correct track counts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete track: %w", err)
	}
	tx = nil

	return nil
}

func trackFields(track *models.Track) []interface{} {
	return []interface{}{
		&track.ID, &track.ISRC, &track.Title, &track.Artist, &track.Album, &track.DurationMS,
		&track.CoverURL, &track.SpotifyID, &track.AppleMusicID,
		&track.YoutubeMusicID, &track.CreatedAt, &track.UpdatedAt,
	}
}

func collectTracks(rows *sql.Rows) ([]models.Track, error) {
	tracks := make([]models.Track, 0)
	for rows.Next() {
		var track models.Track
		if err := rows.Scan(trackFields(&track)...); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}
