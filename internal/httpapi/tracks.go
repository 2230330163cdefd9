package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vinylfeed/internal/models"
	"vinylfeed/internal/store"
)

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	tracks, total, err := s.tracks.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, tracks, newPageMeta(total, page, limit))
}

func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing q parameter")
		return
	}

	page, limit := parsePagination(r)

	tracks, total, err := s.tracks.Search(r.Context(), query, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, tracks, newPageMeta(total, page, limit))
}

func (s *Server) handleSearchPlatform(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing q parameter")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	tracks, err := s.tracks.SearchPlatform(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, tracks)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	track, err := s.tracks.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, track)
}

type createTrackRequest struct {
	ISRC           string `json:"isrc"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	DurationMS     int    `json:"duration"`
	CoverURL       string `json:"coverUrl"`
	SpotifyID      string `json:"spotifyId"`
	AppleMusicID   string `json:"appleMusicId"`
	YoutubeMusicID string `json:"youtubeMusicId"`
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var req createTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	if req.Title == "" || req.Artist == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "title and artist are required")
		return
	}
	if req.DurationMS <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "duration must be positive")
		return
	}

	track := &models.Track{
		ISRC:           req.ISRC,
		Title:          req.Title,
		Artist:         req.Artist,
		Album:          req.Album,
		DurationMS:     req.DurationMS,
		CoverURL:       req.CoverURL,
		SpotifyID:      req.SpotifyID,
		AppleMusicID:   req.AppleMusicID,
		YoutubeMusicID: req.YoutubeMusicID,
	}

	created, err := s.tracks.Create(r.Context(), track)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

type updateTrackRequest struct {
	ISRC           *string `json:"isrc"`
	Title          *string `json:"title"`
	Artist         *string `json:"artist"`
	Album          *string `json:"album"`
	DurationMS     *int    `json:"duration"`
	CoverURL       *string `json:"coverUrl"`
	SpotifyID      *string `json:"spotifyId"`
	AppleMusicID   *string `json:"appleMusicId"`
	YoutubeMusicID *string `json:"youtubeMusicId"`
}

func (s *Server) handleUpdateTrack(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	var req updateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	updated, err := s.tracks.Update(r.Context(), id, store.TrackUpdate{
		ISRC:           req.ISRC,
		Title:          req.Title,
		Artist:         req.Artist,
		Album:          req.Album,
		DurationMS:     req.DurationMS,
		CoverURL:       req.CoverURL,
		SpotifyID:      req.SpotifyID,
		AppleMusicID:   req.AppleMusicID,
		YoutubeMusicID: req.YoutubeMusicID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	if err := s.tracks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
