// solforum/handlers/admin.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"solforum/database"

	"github.com/go-chi/chi/v5"
)

// --- Thread Moderation ---

// HandleUpdateThread applies sticky, lock, announcement, rename, and move
// changes to a thread.
func HandleUpdateThread(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid thread ID", app)
		return
	}

	var req struct {
		IsSticky       *bool   `json:"isSticky"`
		IsLocked       *bool   `json:"isLocked"`
		IsAnnouncement *bool   `json:"isAnnouncement"`
		SubforumID     *int64  `json:"subforumId"`
		Title          *string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 || len(title) > 200 {
			badRequest(w, "Title must be 3-200 characters", app)
			return
		}
		req.Title = &title
	}

	upd := database.ThreadUpdate{
		IsSticky:       req.IsSticky,
		IsLocked:       req.IsLocked,
		IsAnnouncement: req.IsAnnouncement,
		SubforumID:     req.SubforumID,
		Title:          req.Title,
	}
	if err := app.DB().UpdateThread(id, upd, su.ID); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleDeleteThread removes a thread and everything in it.
func HandleDeleteThread(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid thread ID", app)
		return
	}
	reason := r.URL.Query().Get("reason")

	if err := app.DB().DeleteThread(id, su.ID, reason); err != nil {
		respondError(w, err, app)
		return
	}
	app.Logger().Info("Thread deleted", "thread_id", id, "moderator", su.Username)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleDeletePost removes a post. Deleting the opening post removes the
// whole thread, which the response flags.
func HandleDeletePost(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid post ID", app)
		return
	}
	reason := r.URL.Query().Get("reason")

	threadDeleted, err := app.DB().DeletePost(id, su.ID, reason)
	if err != nil {
		respondError(w, err, app)
		return
	}
	app.Logger().Info("Post deleted", "post_id", id, "thread_deleted", threadDeleted, "moderator", su.Username)
	respondJSON(w, http.StatusOK, map[string]bool{"threadDeleted": threadDeleted}, app)
}

// --- Reports ---

// HandleListReports serves the moderation queue.
func HandleListReports(w http.ResponseWriter, r *http.Request, app App) {
	status := r.URL.Query().Get("status")
	reports, err := app.DB().GetReports(status, 100)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports}, app)
}

// HandleReviewReport resolves a pending report.
func HandleReviewReport(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid report ID", app)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	if err := app.DB().ReviewReport(id, su.ID, req.Status); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// --- Structure Management ---

// HandleCreateCategory adds a category at the end of the sort order.
func HandleCreateCategory(w http.ResponseWriter, r *http.Request, app App) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		badRequest(w, "Name must be 1-100 characters", app)
		return
	}

	id, err := app.DB().CreateCategory(req.Name, req.Description)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"categoryId": id}, app)
}

// HandleUpdateCategory edits a category.
func HandleUpdateCategory(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid category ID", app)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		SortOrder   int    `json:"sortOrder"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		badRequest(w, "Name must be 1-100 characters", app)
		return
	}

	if err := app.DB().UpdateCategory(id, req.Name, req.Description, req.SortOrder); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleDeleteCategory removes an empty category.
func HandleDeleteCategory(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid category ID", app)
		return
	}
	if err := app.DB().DeleteCategory(id, su.ID); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleCreateSubforum adds a subforum at the end of its category's order.
func HandleCreateSubforum(w http.ResponseWriter, r *http.Request, app App) {
	var req struct {
		CategoryID  int64  `json:"categoryId"`
		Name        string `json:"name"`
		Description string `json:"description"`
		IconColor   string `json:"iconColor"`
		IconLabel   string `json:"iconLabel"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		badRequest(w, "Name must be 1-100 characters", app)
		return
	}

	id, err := app.DB().CreateSubforum(req.CategoryID, req.Name, req.Description, req.IconColor, req.IconLabel)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"subforumId": id}, app)
}

// HandleUpdateSubforum edits a subforum.
func HandleUpdateSubforum(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid subforum ID", app)
		return
	}
	var req struct {
		CategoryID  int64  `json:"categoryId"`
		Name        string `json:"name"`
		Description string `json:"description"`
		IconColor   string `json:"iconColor"`
		IconLabel   string `json:"iconLabel"`
		SortOrder   int    `json:"sortOrder"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		badRequest(w, "Name must be 1-100 characters", app)
		return
	}

	if err := app.DB().UpdateSubforum(id, req.CategoryID, req.Name, req.Description, req.IconColor, req.IconLabel, req.SortOrder); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleDeleteSubforum removes an empty subforum.
func HandleDeleteSubforum(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid subforum ID", app)
		return
	}
	if err := app.DB().DeleteSubforum(id, su.ID); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// --- Users ---

// HandleListUsers serves the admin user list.
func HandleListUsers(w http.ResponseWriter, r *http.Request, app App) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	users, err := app.DB().ListUsers(limit, offset)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users}, app)
}

// HandleUpdateUser changes another user's role or ban state.
func HandleUpdateUser(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)
	userID := chi.URLParam(r, "id")

	var req struct {
		Role      *string `json:"role"`
		IsBanned  *bool   `json:"isBanned"`
		BanReason *string `json:"banReason"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	upd := database.UserUpdate{Role: req.Role, IsBanned: req.IsBanned, BanReason: req.BanReason}
	if err := app.DB().UpdateUser(userID, upd, su); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// --- Settings, Stats, Log ---

// HandleGetSettings serves the full settings map for the admin panel.
func HandleGetSettings(w http.ResponseWriter, r *http.Request, app App) {
	settings, err := app.DB().GetSettings(r.Context())
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}

// HandleUpdateSettings upserts theme settings.
func HandleUpdateSettings(w http.ResponseWriter, r *http.Request, app App) {
	var req map[string]string
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	if err := app.DB().UpdateSettings(r.Context(), req); err != nil {
		respondError(w, err, app)
		return
	}
	settings, err := app.DB().GetSettings(r.Context())
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}

// HandleResetSettings restores all settings to defaults.
func HandleResetSettings(w http.ResponseWriter, r *http.Request, app App) {
	if err := app.DB().ResetSettings(r.Context()); err != nil {
		respondError(w, err, app)
		return
	}
	settings, err := app.DB().GetSettings(r.Context())
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}

// HandleAdminStats serves the dashboard summary.
func HandleAdminStats(w http.ResponseWriter, r *http.Request, app App) {
	stats, err := app.DB().GetAdminStats()
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, stats, app)
}

// HandleModerationLog serves the newest moderation actions.
func HandleModerationLog(w http.ResponseWriter, r *http.Request, app App) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}
	entries, err := app.DB().GetModerationLog(limit)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries}, app)
}
