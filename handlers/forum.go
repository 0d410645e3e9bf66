// solforum/handlers/forum.go
package handlers

import (
	"net/http"

	"solforum/config"

	"github.com/go-chi/chi/v5"
)

// HandleForumIndex serves the category tree and forum-wide stats.
func HandleForumIndex(w http.ResponseWriter, r *http.Request, app App) {
	categories, err := app.DB().GetCategoriesWithSubforums()
	if err != nil {
		respondError(w, err, app)
		return
	}
	stats, err := app.DB().GetForumStats()
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"stats":      stats,
	}, app)
}

// HandleGetSubforum serves one subforum's metadata.
func HandleGetSubforum(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid subforum ID", app)
		return
	}
	subforum, err := app.DB().GetSubforum(id)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, subforum, app)
}

// HandleListSubforums serves the flat subforum list used by pickers.
func HandleListSubforums(w http.ResponseWriter, r *http.Request, app App) {
	subforums, err := app.DB().ListSubforums()
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"subforums": subforums}, app)
}

// HandleSubforumThreads serves one page of a subforum's thread list.
func HandleSubforumThreads(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid subforum ID", app)
		return
	}
	subforum, err := app.DB().GetSubforum(id)
	if err != nil {
		respondError(w, err, app)
		return
	}

	page := pageParam(r)
	threads, total, err := app.DB().GetThreadsBySubforum(id, page, config.ThreadsPerPage)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"subforum": subforum,
		"threads":  threads,
		"page":     page,
		"total":    total,
	}, app)
}

// HandleGetThread serves a thread with one page of its posts and counts the
// view.
func HandleGetThread(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid thread ID", app)
		return
	}
	thread, err := app.DB().GetThread(id)
	if err != nil {
		respondError(w, err, app)
		return
	}

	page := pageParam(r)
	posts, total, err := app.DB().GetPostsByThread(id, page, config.PostsPerPage)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"thread": thread,
		"posts":  posts,
		"page":   page,
		"total":  total,
	}, app)
}

// HandleGetThreadPosts serves one page of a thread's posts without counting
// a view.
func HandleGetThreadPosts(w http.ResponseWriter, r *http.Request, app App) {
	id, err := urlID(r, "id")
	if err != nil {
		badRequest(w, "Invalid thread ID", app)
		return
	}
	page := pageParam(r)
	posts, total, err := app.DB().GetPostsByThread(id, page, config.PostsPerPage)
	if err != nil {
		respondError(w, err, app)
		return
	}
	// Every thread has at least its opening post.
	if total == 0 {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Thread not found"}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
		"page":  page,
		"total": total,
	}, app)
}

// HandleGetUser serves a public profile with recent posts.
func HandleGetUser(w http.ResponseWriter, r *http.Request, app App) {
	username := chi.URLParam(r, "username")
	user, err := app.DB().GetUserByUsername(username)
	if err != nil {
		respondError(w, err, app)
		return
	}
	posts, err := app.DB().GetRecentPostsByUser(user.ID, 10)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"recent_posts": posts,
	}, app)
}

// HandleGetTheme serves the public theme settings.
func HandleGetTheme(w http.ResponseWriter, r *http.Request, app App) {
	settings, err := app.DB().GetThemeSettings(r.Context())
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}
