// solforum/database/users.go
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"solforum/models"
	"solforum/utils"

	"github.com/google/uuid"
)

// CreateUser inserts a new member account and returns its id. The password
// must already be hashed.
func (ds *DatabaseService) CreateUser(username, passwordHash string) (string, error) {
	id := uuid.New().String()
	_, err := ds.DB.Exec(
		"INSERT INTO users (id, username, password_hash, created_at, role) VALUES (?, ?, ?, ?, 'member')",
		id, username, passwordHash, utils.GetSQLTime())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("username taken: %w", ErrConflict)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUserAuth fetches the fields needed to verify a login attempt.
func (ds *DatabaseService) GetUserAuth(username string) (id, passwordHash string, user models.SessionUser, banned bool, banReason string, err error) {
	err = ds.DB.QueryRow(`
		SELECT id, username, password_hash, role, is_banned, ban_reason
		FROM users WHERE username = ? COLLATE NOCASE`, username).Scan(
		&id, &user.Username, &passwordHash, &user.Role, &banned, &banReason)
	if err == sql.ErrNoRows {
		err = fmt.Errorf("user %q: %w", username, ErrNotFound)
		return
	}
	user.ID = id
	return
}

// TouchLastSeen stamps a user's activity time. Errors are logged, not
// returned, since this is best effort.
func (ds *DatabaseService) TouchLastSeen(userID string) {
	if _, err := ds.DB.Exec("UPDATE users SET last_seen = ? WHERE id = ?", utils.GetSQLTime(), userID); err != nil {
		ds.logger.Error("Failed to update last_seen", "user_id", userID, "error", err)
	}
}

// GetSessionUser resolves a user id to the identity attached to requests.
func (ds *DatabaseService) GetSessionUser(userID string) (*models.SessionUser, bool, error) {
	var su models.SessionUser
	var banned bool
	err := ds.DB.QueryRow("SELECT id, username, role, is_banned FROM users WHERE id = ?", userID).
		Scan(&su.ID, &su.Username, &su.Role, &banned)
	if err == sql.ErrNoRows {
		return nil, false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, false, err
	}
	return &su, banned, nil
}
