// solforum/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"solforum/config"
	"solforum/database"
	"solforum/utils"

	"golang.org/x/crypto/bcrypt"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and opens a session for it.
func HandleRegister(w http.ResponseWriter, r *http.Request, app App) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	if !utils.ValidUsername(req.Username) {
		badRequest(w, "Username must be 3-30 characters: letters, numbers, underscores, hyphens", app)
		return
	}
	if len(req.Password) < config.MinPasswordLen || len(req.Password) > config.MaxPasswordLen {
		badRequest(w, "Password must be 6-128 characters", app)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), config.BcryptCost)
	if err != nil {
		respondError(w, err, app)
		return
	}

	userID, err := app.DB().CreateUser(req.Username, string(hash))
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondJSON(w, http.StatusConflict, map[string]string{"error": "Username is already taken"}, app)
			return
		}
		respondError(w, err, app)
		return
	}

	if err := app.Sessions().Create(w, userID); err != nil {
		respondError(w, err, app)
		return
	}

	app.Logger().Info("User registered", "username", req.Username)
	respondJSON(w, http.StatusCreated, map[string]string{"id": userID, "username": req.Username}, app)
}

// HandleLogin verifies credentials and opens a session. Failures are
// reported without revealing whether the username exists.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	userID, hash, su, banned, banReason, err := app.DB().GetUserAuth(req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"}, app)
			return
		}
		respondError(w, err, app)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"}, app)
		return
	}

	if banned {
		msg := "This account has been banned"
		if banReason != "" {
			msg += ": " + banReason
		}
		respondJSON(w, http.StatusForbidden, map[string]string{"error": msg}, app)
		return
	}

	app.DB().TouchLastSeen(userID)
	if err := app.Sessions().Create(w, userID); err != nil {
		respondError(w, err, app)
		return
	}

	app.Logger().Info("User logged in", "username", su.Username)
	respondJSON(w, http.StatusOK, su, app)
}

// HandleLogout destroys the current session.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	app.Sessions().Destroy(w, r)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleMe returns the authenticated identity, or null when logged out.
func HandleMe(w http.ResponseWriter, r *http.Request, app App) {
	su, ok := currentUser(r)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"user": nil}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": su}, app)
}
