// solforum/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"solforum/auth"
	"solforum/database"
	"solforum/models"

	"github.com/go-chi/chi/v5"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	Sessions() *auth.Manager
	RateLimiter() *models.RateLimiter
	Storage() models.StorageService
	Logger() *slog.Logger
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// respondError maps database sentinel errors to status codes and sends the
// standard {"error": ...} body.
func respondError(w http.ResponseWriter, err error, app App) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrLocked), errors.Is(err, database.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, database.ErrValidation), errors.Is(err, database.ErrHasChildren):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		app.Logger().Error("Request failed", "error", err)
		respondJSON(w, status, map[string]string{"error": "Internal server error"}, app)
		return
	}
	respondJSON(w, status, map[string]string{"error": err.Error()}, app)
}

func badRequest(w http.ResponseWriter, msg string, app App) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"error": msg}, app)
}

// MakeHandler accepts our generic App interface.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// decodeBody reads a JSON request body into dest.
func decodeBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dest)
}

// urlID parses a numeric {id} URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// pageParam reads the ?page query parameter, defaulting to 1.
func pageParam(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page
}
