// Package httpapi exposes the REST surface of the service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"vinylfeed/internal/models"
	"vinylfeed/internal/musicapi"
	"vinylfeed/internal/store"
)

// UserService captures the user-facing operations needed by the HTTP handlers.
type UserService interface {
	List(ctx context.Context, page, limit int) ([]models.User, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Search(ctx context.Context, query string, page, limit int) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, update store.UserUpdate) (*models.User, error)
}

// TrackService coordinates track catalogue operations.
type TrackService interface {
	List(ctx context.Context, page, limit int) ([]models.Track, int, error)
	Search(ctx context.Context, query string, page, limit int) ([]models.Track, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Track, error)
	Create(ctx context.Context, track *models.Track) (*models.Track, error)
	Update(ctx context.Context, id uuid.UUID, update store.TrackUpdate) (*models.Track, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SearchPlatform(ctx context.Context, query string, limit int) ([]musicapi.Track, error)
}

// PlaylistService coordinates playlist-related operations.
type PlaylistService interface {
	ListPublic(ctx context.Context, page, limit int) ([]*models.Playlist, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, includePrivate bool, page, limit int) ([]*models.Playlist, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	Create(ctx context.Context, userID uuid.UUID, playlist *models.Playlist) (*models.Playlist, error)
	Update(ctx context.Context, id uuid.UUID, update store.PlaylistUpdate) (*models.Playlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipService coordinates playlist track ordering operations.
type MembershipService interface {
	Add(ctx context.Context, playlistID, trackID uuid.UUID, position *int, addedBy uuid.UUID) (*models.PlaylistTrack, error)
	Remove(ctx context.Context, playlistID, trackID uuid.UUID) error
	Reorder(ctx context.Context, playlistID, trackID uuid.UUID, newPosition int) (*models.PlaylistTrack, error)
	List(ctx context.Context, playlistID uuid.UUID, page, limit int) ([]models.PlaylistTrack, int, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users       UserService
	tracks      TrackService
	playlists   PlaylistService
	memberships MembershipService
}

// New configures a Server with the given services.
func New(users UserService, tracks TrackService, playlists PlaylistService, memberships MembershipService) *Server {
	return &Server{
		users:       users,
		tracks:      tracks,
		playlists:   playlists,
		memberships: memberships,
	}
}

// Routes exposes the HTTP handlers for the service.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// User routes
	mux.HandleFunc("GET /api/v1/users", s.handleListUsers)
	mux.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/search", s.handleSearchUsers)
	// Query parameter rather than a path segment: a "users/username/{username}"
	// pattern would conflict with "users/{id}/playlists" in the mux.
	mux.HandleFunc("GET /api/v1/users/by-username", s.handleGetUserByUsername)
	mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)
	mux.HandleFunc("PATCH /api/v1/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("GET /api/v1/users/{id}/playlists", s.handleListUserPlaylists)

	// Track routes
	mux.HandleFunc("GET /api/v1/tracks", s.handleListTracks)
	mux.HandleFunc("POST /api/v1/tracks", s.handleCreateTrack)
	mux.HandleFunc("GET /api/v1/tracks/search", s.handleSearchTracks)
	mux.HandleFunc("GET /api/v1/tracks/platform/search", s.handleSearchPlatform)
	mux.HandleFunc("GET /api/v1/tracks/{id}", s.handleGetTrack)
	mux.HandleFunc("PATCH /api/v1/tracks/{id}", s.handleUpdateTrack)
	mux.HandleFunc("DELETE /api/v1/tracks/{id}", s.handleDeleteTrack)

	// Playlist routes
	mux.HandleFunc("GET /api/v1/playlists", s.handleListPlaylists)
	mux.HandleFunc("POST /api/v1/playlists", s.handleCreatePlaylist)
	mux.HandleFunc("GET /api/v1/playlists/{id}", s.handleGetPlaylist)
	mux.HandleFunc("PATCH /api/v1/playlists/{id}", s.handleUpdatePlaylist)
	mux.HandleFunc("DELETE /api/v1/playlists/{id}", s.handleDeletePlaylist)

	// Playlist track routes
	mux.HandleFunc("GET /api/v1/playlists/{id}/tracks", s.handleListPlaylistTracks)
	mux.HandleFunc("POST /api/v1/playlists/{id}/tracks", s.handleAddTrackToPlaylist)
	mux.HandleFunc("DELETE /api/v1/playlists/{id}/tracks/{trackId}", s.handleRemoveTrackFromPlaylist)
	mux.HandleFunc("PATCH /api/v1/playlists/{id}/tracks/{trackId}/position", s.handleReorderTrack)

	return mux
}

// pageMeta carries pagination details alongside list responses.
type pageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

type successResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Meta    *pageMeta `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

func writePage(w http.ResponseWriter, status int, data any, meta pageMeta) {
	writeJSON(w, status, successResponse{Success: true, Data: data, Meta: &meta})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: errorBody{Code: code, Message: message}})
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTrackNotFound),
		errors.Is(err, store.ErrPlaylistNotFound),
		errors.Is(err, store.ErrTrackNotInPlaylist):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, store.ErrISRCExists),
		errors.Is(err, store.ErrTrackInPlaylist):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, store.ErrPositionOutOfRange),
		errors.Is(err, store.ErrInvalidVisibility),
		errors.Is(err, store.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, musicapi.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// parseID parses a UUID path value.
func parseID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

// parsePagination reads page and limit query parameters with defaults.
func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

func newPageMeta(total, page, limit int) pageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return pageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// requesterID reads the authenticated user ID forwarded by the gateway.
func requesterID(r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("X-User-ID")
	if header == "" {
		return uuid.Nil, errors.New("missing X-User-ID header")
	}
	return uuid.Parse(header)
}
