// solforum/handlers/main_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"solforum/auth"
	"solforum/database"
	"solforum/models"
	"solforum/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db          *database.DatabaseService
	sessions    *auth.Manager
	rateLimiter *models.RateLimiter
	storage     models.StorageService
	logger      *slog.Logger
}

func (a *MockApplication) DB() *database.DatabaseService    { return a.db }
func (a *MockApplication) Sessions() *auth.Manager          { return a.sessions }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Storage() models.StorageService   { return a.storage }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }

// setupTestApp creates a full application stack with a test database.
func setupTestApp(t *testing.T) (*MockApplication, http.Handler) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dbDir, err := os.MkdirTemp("", "solforum_test_db_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dbDir, "test.db?_journal_mode=WAL&_foreign_keys=on")
	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	avatarDir, err := os.MkdirTemp("", "solforum_test_avatars_*")
	if err != nil {
		t.Fatalf("Failed to create temp avatar dir: %v", err)
	}

	app := &MockApplication{
		db:          dbService,
		sessions:    auth.NewManager(dbService.DB, 24*time.Hour),
		rateLimiter: models.NewRateLimiter(time.Millisecond, 1000, time.Hour, 24*time.Hour),
		storage:     &utils.LocalStorage{AvatarDir: avatarDir},
		logger:      logger,
	}

	t.Cleanup(func() {
		app.db.DB.Close()
		os.RemoveAll(dbDir)
		os.RemoveAll(avatarDir)
	})

	return app, SetupRouter(app, avatarDir)
}

// registerUser creates an account through the API and returns its session
// cookie and user id.
func registerUser(t *testing.T, mux http.Handler, username string) (*http.Cookie, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "hunter22"})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Register for %s returned %d: %s", username, rr.Code, rr.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == "forum_session" {
			return c, resp.ID
		}
	}
	t.Fatalf("Register for %s did not set a session cookie", username)
	return nil, ""
}

// promoteUser sets a user's role directly in the database.
func promoteUser(t *testing.T, app *MockApplication, userID, role string) {
	t.Helper()
	if _, err := app.db.DB.Exec("UPDATE users SET role = ? WHERE id = ?", role, userID); err != nil {
		t.Fatalf("Failed to promote user: %v", err)
	}
}

// doJSON performs a JSON request with an optional session cookie.
func doJSON(t *testing.T, mux http.Handler, method, path string, payload interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
