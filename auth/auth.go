// solforum/auth/auth.go
package auth

import (
	"database/sql"
	"net/http"
	"time"

	"solforum/utils"

	"github.com/google/uuid"
)

const sessionCookie = "forum_session"

// Manager issues and resolves database-backed session cookies.
type Manager struct {
	db     *sql.DB
	maxAge time.Duration
}

func NewManager(db *sql.DB, maxAge time.Duration) *Manager {
	return &Manager{db: db, maxAge: maxAge}
}

// Create opens a session for userID and sets the cookie.
func (m *Manager) Create(w http.ResponseWriter, userID string) error {
	id := uuid.New().String()
	now := utils.GetSQLTime()
	expires := now.Add(m.maxAge)

	_, err := m.db.Exec(`INSERT INTO sessions(id, user_id, created_at, expires_at) VALUES(?,?,?,?)`,
		id, userID, now, expires)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return nil
}

// Destroy removes the session row and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(sessionCookie)
	if c != nil && c.Value != "" {
		if _, err := m.db.Exec(`DELETE FROM sessions WHERE id = ?`, c.Value); err != nil {
			// Cookie still gets cleared below, the row expires on its own.
			_ = err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
}

// CurrentUserID resolves the request's session cookie to a user id.
func (m *Manager) CurrentUserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	var uid string
	var exp time.Time
	err = m.db.QueryRow(`SELECT user_id, expires_at FROM sessions WHERE id = ?`, c.Value).Scan(&uid, &exp)
	if err != nil || time.Now().After(exp) {
		return "", false
	}
	return uid, true
}

// PruneExpired deletes sessions past their expiry. Meant for a periodic
// background sweep.
func (m *Manager) PruneExpired() error {
	_, err := m.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, utils.GetSQLTime())
	return err
}
