package httpapi

import (
	"encoding/json"
	"net/http"

	"vinylfeed/internal/models"
	"vinylfeed/internal/store"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	users, total, err := s.users.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, users, newPageMeta(total, page, limit))
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing q parameter")
		return
	}

	page, limit := parsePagination(r)

	users, total, err := s.users.Search(r.Context(), query, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePage(w, http.StatusOK, users, newPageMeta(total, page, limit))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing username parameter")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

type createUserRequest struct {
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username is required")
		return
	}

	user := &models.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	}

	created, err := s.users.Create(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

type updateUserRequest struct {
	DisplayName  *string `json:"displayName"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload")
		return
	}

	updated, err := s.users.Update(r.Context(), id, store.UserUpdate{
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}
