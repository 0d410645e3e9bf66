// solforum/handlers/profile.go
package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"solforum/config"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp decode support
)

// HandleUpdateProfile edits the caller's bio.
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	var req struct {
		Bio string `json:"bio"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Bio = strings.TrimSpace(req.Bio)
	if len(req.Bio) > config.MaxBioLen {
		badRequest(w, "Bio must be at most 500 characters", app)
		return
	}

	if err := app.DB().UpdateProfile(su.ID, req.Bio); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleUploadAvatar accepts a multipart image, resizes it to a square
// avatar, and stores it through the configured storage backend.
func HandleUploadAvatar(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)
	logger := app.Logger().With("handler", "HandleUploadAvatar", "user", su.Username)

	if err := r.ParseMultipartForm(config.MaxAvatarSize); err != nil {
		badRequest(w, "Could not parse upload", app)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "Missing avatar file", app)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("Failed to close upload file", "error", err)
		}
	}()

	limitedReader := &io.LimitedReader{R: file, N: config.MaxAvatarSize + 1}
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		respondError(w, err, app)
		return
	}
	if limitedReader.N == 0 {
		badRequest(w, "Avatar is larger than the 2MB limit", app)
		return
	}
	if len(data) == 0 {
		badRequest(w, "Avatar file is empty", app)
		return
	}

	// Magic byte validation
	contentType := http.DetectContentType(data)
	allowedTypes := map[string]bool{
		"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
	}
	if !allowedTypes[contentType] {
		logger.Warn("User uploaded file with invalid MIME type", "detected_type", contentType, "filename", header.Filename)
		badRequest(w, fmt.Sprintf("Unsupported file type: %s. Only JPG, PNG, GIF, and WebP are allowed", contentType), app)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		badRequest(w, "Could not decode image", app)
		return
	}

	avatar := imaging.Fill(img, config.AvatarSize, config.AvatarSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, avatar, imaging.PNG); err != nil {
		respondError(w, err, app)
		return
	}

	hash := sha256.Sum256(data)
	filename := fmt.Sprintf("%s_%s.png", su.ID, hex.EncodeToString(hash[:])[:12])

	path, err := app.Storage().SaveFile(filename, buf.Bytes(), "image/png")
	if err != nil {
		logger.Error("Failed to store avatar", "error", err)
		respondError(w, err, app)
		return
	}

	oldPath, err := app.DB().SetAvatarPath(su.ID, path)
	if err != nil {
		respondError(w, err, app)
		return
	}
	if oldPath != "" && oldPath != path {
		if err := app.Storage().DeleteFile(oldPath); err != nil {
			logger.Warn("Failed to remove previous avatar", "path", oldPath, "error", err)
		}
	}

	logger.Info("Avatar updated", "path", path)
	respondJSON(w, http.StatusOK, map[string]string{"avatar_path": path}, app)
}
