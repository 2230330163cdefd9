package httpapi

import (
	"encoding/json"
	"net/http"

	"vinylfeed/internal/models"
	"vinylfeed/internal/store"
)

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	playlists, total, err := s.playlists.ListPublic(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, playlists, newPageMeta(total, page, limit))
}

func (s *Server) handleListUserPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	page, limit := parsePagination(r)

	// Owners see all of their playlists; everyone else gets the public ones.
	includePrivate := false
	if requester, err := requesterID(r); err == nil && requester == userID {
		includePrivate = true
	}

	playlists, total, err := s.playlists.ListForUser(r.Context(), userID, includePrivate, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, playlists, newPageMeta(total, page, limit))
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	playlist, err := s.playlists.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, playlist)
}

type createPlaylistRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Visibility    string `json:"visibility"`
	Collaborative bool   `json:"collaborative"`
	CoverURL      string `json:"coverUrl"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	playlist := &models.Playlist{
		Title:         req.Title,
		Description:   req.Description,
		Visibility:    models.Visibility(req.Visibility),
		Collaborative: req.Collaborative,
		CoverURL:      req.CoverURL,
	}

	created, err := s.playlists.Create(r.Context(), userID, playlist)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

type updatePlaylistRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Visibility    *string `json:"visibility"`
	Collaborative *bool   `json:"collaborative"`
	CoverURL      *string `json:"coverUrl"`
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	var req updatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	update := store.PlaylistUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Collaborative: req.Collaborative,
		CoverURL:      req.CoverURL,
	}
	if req.Visibility != nil {
		visibility := models.Visibility(*req.Visibility)
		update.Visibility = &visibility
	}

	updated, err := s.playlists.Update(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	if err := s.playlists.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	page, limit := parsePagination(r)

	tracks, total, err := s.memberships.List(r.Context(), playlistID, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, tracks, newPageMeta(total, page, limit))
}

type addTrackRequest struct {
	TrackID  string `json:"trackId"`
	Position *int   `json:"position"`
}

func (s *Server) handleAddTrackToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	userID, err := requesterID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}

	var req addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	trackID, err := parseUUID(req.TrackID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	added, err := s.memberships.Add(r.Context(), playlistID, trackID, req.Position, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, added)
}

func (s *Server) handleRemoveTrackFromPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	trackID, err := parseID(r, "trackId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	if err := s.memberships.Remove(r.Context(), playlistID, trackID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type reorderTrackRequest struct {
	Position *int `json:"position"`
}

func (s *Server) handleReorderTrack(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid playlist id")
		return
	}

	trackID, err := parseID(r, "trackId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid track id")
		return
	}

	var req reorderTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}
	if req.Position == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "position is required")
		return
	}

	moved, err := s.memberships.Reorder(r.Context(), playlistID, trackID, *req.Position)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, moved)
}
