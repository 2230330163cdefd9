package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"vinylfeed/internal/models"
)

// UserUpdate carries the fields of a partial profile update. Nil fields are
// left untouched.
type UserUpdate struct {
	DisplayName  *string
	Bio          *string
	ProfileImage *string
}

// ListUsers returns one page of users, newest first, plus the total count.
func (s *Store) ListUsers(ctx context.Context, page, limit int) ([]models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM users
	`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, COALESCE(display_name, ''), COALESCE(bio, ''), COALESCE(profile_image, ''), created_at, updated_at
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser returns a single user with their public playlist count.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `u.id = $1`, id)
}

// GetUserByUsername returns a single user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `u.username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, COALESCE(u.display_name, ''), COALESCE(u.bio, ''), COALESCE(u.profile_image, ''),
		       u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM playlists p WHERE p.user_id = u.id AND p.visibility = 'PUBLIC')
		FROM users u
		WHERE `+where+`
	`, arg).Scan(&user.ID, &user.Username, &user.DisplayName, &user.Bio, &user.ProfileImage,
		&user.CreatedAt, &user.UpdatedAt, &user.PlaylistCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SearchUsers matches query against username and display name,
// case-insensitively.
func (s *Store) SearchUsers(ctx context.Context, query string, page, limit int) ([]models.User, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM users
		WHERE username ILIKE $1 OR display_name ILIKE $1
	`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, COALESCE(display_name, ''), COALESCE(bio, ''), COALESCE(profile_image, ''), created_at, updated_at
		FROM users
		WHERE username ILIKE $1 OR display_name ILIKE $1
		ORDER BY username ASC
		LIMIT $2 OFFSET $3
	`, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser registers a profile for an externally-authenticated identity.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, errors.New("username is required")
	}

	user.ID = uuid.New()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, bio, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, user.ID, user.Username, nullIfEmpty(user.DisplayName), nullIfEmpty(user.Bio),
		nullIfEmpty(user.ProfileImage), now); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// UpdateUser applies a partial profile update and returns the stored user.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*models.User, error) {
	sets := []string{}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.DisplayName != nil {
		add("display_name", nullIfEmpty(*update.DisplayName))
	}
	if update.Bio != nil {
		add("bio", nullIfEmpty(*update.Bio))
	}
	if update.ProfileImage != nil {
		add("profile_image", nullIfEmpty(*update.ProfileImage))
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), argIdx),
			args...)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return s.GetUser(ctx, id)
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.DisplayName, &user.Bio,
			&user.ProfileImage, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
