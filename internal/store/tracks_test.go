package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"vinylfeed/internal/models"
)

func TestCreateTrackSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM tracks
		WHERE isrc = $1
	`)).
		WithArgs("GBAYE0601498").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO tracks (id, isrc, title, artist, album, duration_ms, cover_url, spotify_id, apple_music_id, youtube_music_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`)).
		WithArgs(sqlmock.AnyArg(), "GBAYE0601498", "Starlight", "Muse", "Black Holes and Revelations", 240000,
			nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	track := &models.Track{
		ISRC:       "GBAYE0601498",
		Title:      "  Starlight ",
		Artist:     " Muse  ",
		Album:      "Black Holes and Revelations",
		DurationMS: 240000,
	}

	got, err := s.CreateTrack(context.Background(), track)
	if err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}
	if got.Title != "Starlight" || got.Artist != "Muse" {
		t.Fatalf("expected trimmed title/artist, got %q / %q", got.Title, got.Artist)
	}
	if got.ID == uuid.Nil {
		t.Fatalf("expected an assigned ID")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTrackDuplicateISRC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM tracks
		WHERE isrc = $1
	`)).
		WithArgs("GBAYE0601498").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	_, err = s.CreateTrack(context.Background(), &models.Track{
		ISRC:       "GBAYE0601498",
		Title:      "Starlight",
		Artist:     "Muse",
		DurationMS: 240000,
	})
	if !errors.Is(err, ErrISRCExists) {
		t.Fatalf("expected ErrISRCExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetTrackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT id, COALESCE\(isrc, ''\)`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetTrack(context.Background(), id)
	if !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchTracks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM tracks
		WHERE title ILIKE $1 OR artist ILIKE $1 OR album ILIKE $1
	`)).
		WithArgs("%muse%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`FROM tracks\s+WHERE title ILIKE \$1 OR artist ILIKE \$1 OR album ILIKE \$1`).
		WithArgs("%muse%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "isrc", "title", "artist", "album", "duration_ms",
			"cover_url", "spotify_id", "apple_music_id", "youtube_music_id", "created_at", "updated_at",
		}).AddRow(uuid.NewString(), "", "Starlight", "Muse", "", 240000, "", "", "", "", now, now))

	tracks, total, err := s.SearchTracks(context.Background(), "muse", 1, 20)
	if err != nil {
		t.Fatalf("SearchTracks error: %v", err)
	}
	if total != 1 || len(tracks) != 1 {
		t.Fatalf("expected one match, got total=%d len=%d", total, len(tracks))
	}
	if tracks[0].Artist != "Muse" {
		t.Fatalf("expected artist Muse, got %q", tracks[0].Artist)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTrackPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	id := uuid.New()
	now := time.Now()
	title := "Starlight (Remastered)"
	duration := 241000

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tracks SET title = $1, duration_ms = $2, updated_at = $3 WHERE id = $4`)).
		WithArgs(title, duration, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT id, COALESCE\(isrc, ''\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "isrc", "title", "artist", "album", "duration_ms",
			"cover_url", "spotify_id", "apple_music_id", "youtube_music_id", "created_at", "updated_at",
		}).AddRow(id.String(), "", title, "Muse", "", duration, "", "", "", "", now, now))

	got, err := s.UpdateTrack(context.Background(), id, TrackUpdate{Title: &title, DurationMS: &duration})
	if err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if got.Title != title || got.DurationMS != duration {
		t.Fatalf("unexpected result: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteTrackRenumbersAffectedPlaylists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	trackID := uuid.New()
	playlistA := uuid.NewString()
	playlistB := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM playlists
		WHERE id IN (SELECT playlist_id FROM playlist_tracks WHERE track_id = $1)
		FOR UPDATE
	`)).
		WithArgs(trackID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(playlistA).AddRow(playlistB))
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM tracks
		WHERE id = $1
	`)).
		WithArgs(trackID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET position = -seq\.rn`).
		WithArgs(pq.Array([]string{playlistA, playlistB})).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE playlist_tracks
		SET position = -position - 1
		WHERE playlist_id = ANY($1::uuid[]) AND position < 0
	`)).
		WithArgs(pq.Array([]string{playlistA, playlistB})).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE playlists
		SET track_count = (SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = playlists.id)
		WHERE id = ANY($1::uuid[])
	`)).
		WithArgs(pq.Array([]string{playlistA, playlistB})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := s.DeleteTrack(context.Background(), trackID); err != nil {
		t.Fatalf("DeleteTrack error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteTrackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	trackID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM playlists`).
		WithArgs(trackID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM tracks
		WHERE id = $1
	`)).
		WithArgs(trackID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = s.DeleteTrack(context.Background(), trackID)
	if !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
