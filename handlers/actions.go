// solforum/handlers/actions.go
package handlers

import (
	"net/http"
	"strings"

	"solforum/config"
)

// HandleCreateThread creates a thread with its opening post.
func HandleCreateThread(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	var req struct {
		SubforumID int64  `json:"subforumId"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if len(req.Title) < config.MinTitleLen || len(req.Title) > config.MaxTitleLen {
		badRequest(w, "Title must be 3-200 characters", app)
		return
	}
	if len(req.Content) < config.MinContentLen || len(req.Content) > config.MaxContentLen {
		badRequest(w, "Content must be 1-50000 characters", app)
		return
	}

	threadID, err := app.DB().CreateThread(req.SubforumID, su.ID, su.Username, req.Title, req.Content)
	if err != nil {
		respondError(w, err, app)
		return
	}

	app.Logger().Info("Thread created", "thread_id", threadID, "user", su.Username)
	respondJSON(w, http.StatusCreated, map[string]int64{"threadId": threadID}, app)
}

// HandleCreatePost replies to a thread.
func HandleCreatePost(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	var req struct {
		ThreadID int64  `json:"threadId"`
		Content  string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if len(req.Content) < config.MinContentLen || len(req.Content) > config.MaxContentLen {
		badRequest(w, "Content must be 1-50000 characters", app)
		return
	}

	postID, err := app.DB().CreateReply(req.ThreadID, su.ID, su.Username, req.Content)
	if err != nil {
		respondError(w, err, app)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"postId": postID}, app)
}

// HandleEditPost edits a post's content. Authors may edit their own posts,
// staff may edit any post.
func HandleEditPost(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid post ID", app)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if len(req.Content) < config.MinContentLen || len(req.Content) > config.MaxContentLen {
		badRequest(w, "Content must be 1-50000 characters", app)
		return
	}

	if err := app.DB().EditPost(id, su, req.Content); err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true}, app)
}

// HandleCreateReport files a report against a post.
func HandleCreateReport(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	var req struct {
		PostID int64  `json:"postId"`
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}

	req.Reason = strings.TrimSpace(req.Reason)
	if len(req.Reason) < config.MinReasonLen || len(req.Reason) > config.MaxReasonLen {
		badRequest(w, "Reason must be 5-1000 characters", app)
		return
	}

	reportID, err := app.DB().CreateReport(req.PostID, su.ID, req.Reason)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"reportId": reportID}, app)
}

// HandleToggleReaction adds or removes a reaction on a post.
func HandleToggleReaction(w http.ResponseWriter, r *http.Request, app App) {
	su, _ := currentUser(r)

	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid post ID", app)
		return
	}

	var req struct {
		ReactionType string `json:"reactionType"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body", app)
		return
	}
	if req.ReactionType == "" || len(req.ReactionType) > 20 {
		badRequest(w, "Invalid reaction type", app)
		return
	}

	added, err := app.DB().ToggleReaction(id, su.ID, req.ReactionType)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"added": added}, app)
}
