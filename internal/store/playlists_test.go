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

func TestCreatePlaylistDefaultsToPublic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, username, COALESCE(display_name, ''), COALESCE(profile_image, '')
		FROM users
		WHERE id = $1
	`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "display_name", "profile_image"}).
			AddRow(userID.String(), "thom", "Thom", ""))

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO playlists (id, user_id, title, description, visibility, collaborative, cover_url, track_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
	`)).
		WithArgs(sqlmock.AnyArg(), userID, "Road Trip", nil, models.VisibilityPublic, false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := s.CreatePlaylist(context.Background(), userID, &models.Playlist{Title: " Road Trip "})
	if err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}
	if got.Visibility != models.VisibilityPublic {
		t.Fatalf("expected PUBLIC visibility, got %q", got.Visibility)
	}
	if got.TrackCount != 0 {
		t.Fatalf("expected empty playlist, got track count %d", got.TrackCount)
	}
	if got.Owner == nil || got.Owner.Username != "thom" {
		t.Fatalf("expected owner attached, got %+v", got.Owner)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePlaylistRequiresTitle(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	_, err = s.CreatePlaylist(context.Background(), uuid.New(), &models.Playlist{Title: "   "})
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestCreatePlaylistRejectsUnknownVisibility(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	_, err = s.CreatePlaylist(context.Background(), uuid.New(), &models.Playlist{
		Title:      "Mixtape",
		Visibility: models.Visibility("FRIENDS"),
	})
	if !errors.Is(err, ErrInvalidVisibility) {
		t.Fatalf("expected ErrInvalidVisibility, got %v", err)
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	id := uuid.New()

	mock.ExpectQuery(`FROM playlists p`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetPlaylist(context.Background(), id)
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListPublicPlaylistsAttachesTracks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	playlistID := uuid.New()
	ownerID := uuid.New()
	trackID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM playlists
		WHERE visibility = $1
	`)).
		WithArgs(models.VisibilityPublic).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`FROM playlists p\s+JOIN users u ON u\.id = p\.user_id`).
		WithArgs(models.VisibilityPublic, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "visibility", "collaborative",
			"cover_url", "track_count", "created_at", "updated_at",
			"username", "display_name", "profile_image",
		}).AddRow(playlistID.String(), ownerID.String(), "Morning Mix", "", "PUBLIC", false,
			"", 1, now, now, "thom", "Thom", ""))

	mock.ExpectQuery(`FROM playlist_tracks pt\s+JOIN tracks t ON t\.id = pt\.track_id`).
		WithArgs(pq.Array([]string{playlistID.String()})).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "playlist_id", "track_id", "position", "added_by", "added_at",
			"t_id", "isrc", "title", "artist", "album", "duration_ms",
			"cover_url", "spotify_id", "apple_music_id", "youtube_music_id", "created_at", "updated_at",
		}).AddRow(uuid.NewString(), playlistID.String(), trackID.String(), 0, ownerID.String(), now,
			trackID.String(), "", "Weird Fishes", "Radiohead", "In Rainbows", 318000,
			"", "", "", "", now, now))

	playlists, total, err := s.ListPublicPlaylists(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListPublicPlaylists error: %v", err)
	}
	if total != 1 || len(playlists) != 1 {
		t.Fatalf("expected one playlist, got total=%d len=%d", total, len(playlists))
	}
	if len(playlists[0].Tracks) != 1 {
		t.Fatalf("expected one attached track, got %d", len(playlists[0].Tracks))
	}
	if playlists[0].Tracks[0].Track.Title != "Weird Fishes" {
		t.Fatalf("unexpected track: %+v", playlists[0].Tracks[0].Track)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUserPlaylistsPublicOnlyForOtherViewers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	ownerID := uuid.New()
	playlistID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT 1
		FROM users
		WHERE id = $1
	`)).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM playlists
		WHERE user_id = $1 AND visibility = $2
	`)).
		WithArgs(ownerID, models.VisibilityPublic).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`WHERE p\.user_id = \$1 AND p\.visibility = \$2`).
		WithArgs(ownerID, models.VisibilityPublic, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "visibility", "collaborative",
			"cover_url", "track_count", "created_at", "updated_at",
			"username", "display_name", "profile_image",
		}).AddRow(playlistID.String(), ownerID.String(), "Evening Spins", "", "PUBLIC", false,
			"", 0, now, now, "thom", "Thom", ""))

	mock.ExpectQuery(`FROM playlist_tracks pt\s+JOIN tracks t ON t\.id = pt\.track_id`).
		WithArgs(pq.Array([]string{playlistID.String()})).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "playlist_id", "track_id", "position", "added_by", "added_at",
			"t_id", "isrc", "title", "artist", "album", "duration_ms",
			"cover_url", "spotify_id", "apple_music_id", "youtube_music_id", "created_at", "updated_at",
		}))

	playlists, total, err := s.ListUserPlaylists(context.Background(), ownerID, false, 1, 20)
	if err != nil {
		t.Fatalf("ListUserPlaylists error: %v", err)
	}
	if total != 1 || len(playlists) != 1 {
		t.Fatalf("expected one playlist, got total=%d len=%d", total, len(playlists))
	}
	if playlists[0].Owner == nil || playlists[0].Owner.Username != "thom" {
		t.Fatalf("expected owner attached, got %+v", playlists[0].Owner)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUserPlaylistsOwnerSeesPrivate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	ownerID := uuid.New()
	playlistID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT 1
		FROM users
		WHERE id = $1
	`)).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM playlists
		WHERE user_id = $1
	`)).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`WHERE p\.user_id = \$1\s+ORDER BY p\.created_at DESC`).
		WithArgs(ownerID, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "visibility", "collaborative",
			"cover_url", "track_count", "created_at", "updated_at",
			"username", "display_name", "profile_image",
		}).AddRow(playlistID.String(), ownerID.String(), "Secret Stash", "", "PRIVATE", false,
			"", 0, now, now, "thom", "Thom", ""))

	mock.ExpectQuery(`FROM playlist_tracks pt\s+JOIN tracks t ON t\.id = pt\.track_id`).
		WithArgs(pq.Array([]string{playlistID.String()})).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "playlist_id", "track_id", "position", "added_by", "added_at",
			"t_id", "isrc", "title", "artist", "album", "duration_ms",
			"cover_url", "spotify_id", "apple_music_id", "youtube_music_id", "created_at", "updated_at",
		}))

	playlists, total, err := s.ListUserPlaylists(context.Background(), ownerID, true, 1, 20)
	if err != nil {
		t.Fatalf("ListUserPlaylists error: %v", err)
	}
	if total != 2 || len(playlists) != 1 {
		t.Fatalf("expected total=2 with one row on the page, got total=%d len=%d", total, len(playlists))
	}
	if playlists[0].Visibility != models.VisibilityPrivate {
		t.Fatalf("expected the private playlist, got %q", playlists[0].Visibility)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUserPlaylistsUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	ownerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT 1
		FROM users
		WHERE id = $1
	`)).
		WithArgs(ownerID).
		WillReturnError(sql.ErrNoRows)

	_, _, err = s.ListUserPlaylists(context.Background(), ownerID, false, 1, 20)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePlaylistNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	id := uuid.New()
	title := "Renamed"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE playlists SET title = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs(title, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = s.UpdatePlaylist(context.Background(), id, PlaylistUpdate{Title: &title})
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeletePlaylistNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM playlists
		WHERE id = $1
	`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.DeletePlaylist(context.Background(), id)
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
