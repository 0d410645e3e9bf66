package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRouter wires every endpoint. avatarDir is the local avatar
// directory served at /avatars/ when local storage is in use.
func SetupRouter(app App, avatarDir string) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(RequestLogger(app))
	mux.Use(middleware.Recoverer)
	mux.Use(SessionMiddleware(app))

	if avatarDir != "" {
		mux.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(avatarDir))))
	}

	// Auth
	mux.Route("/auth", func(r chi.Router) {
		r.With(RateLimit(app)).Post("/register", MakeHandler(app, HandleRegister))
		r.With(RateLimit(app)).Post("/login", MakeHandler(app, HandleLogin))
		r.Post("/logout", MakeHandler(app, HandleLogout))
		r.Get("/me", MakeHandler(app, HandleMe))
	})

	// Public reads
	mux.Get("/forum", MakeHandler(app, HandleForumIndex))
	mux.Get("/subforums", MakeHandler(app, HandleListSubforums))
	mux.Get("/subforums/{id}", MakeHandler(app, HandleGetSubforum))
	mux.Get("/subforums/{id}/threads", MakeHandler(app, HandleSubforumThreads))
	mux.Get("/threads/{id}", MakeHandler(app, HandleGetThread))
	mux.Get("/threads/{id}/posts", MakeHandler(app, HandleGetThreadPosts))
	mux.Get("/users/{username}", MakeHandler(app, HandleGetUser))
	mux.Get("/settings/theme", MakeHandler(app, HandleGetTheme))

	// Authenticated writes
	mux.Group(func(r chi.Router) {
		r.Use(RequireAuth(app))
		r.With(RateLimit(app)).Post("/threads", MakeHandler(app, HandleCreateThread))
		r.With(RateLimit(app)).Post("/posts", MakeHandler(app, HandleCreatePost))
		r.Patch("/posts/{id}", MakeHandler(app, HandleEditPost))
		r.With(RateLimit(app)).Post("/reports", MakeHandler(app, HandleCreateReport))
		r.Post("/posts/{id}/reactions", MakeHandler(app, HandleToggleReaction))
		r.Patch("/profile", MakeHandler(app, HandleUpdateProfile))
		r.Post("/profile/avatar", MakeHandler(app, HandleUploadAvatar))
	})

	// Moderation and administration
	mux.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireStaff(app))
			r.Patch("/threads/{id}", MakeHandler(app, HandleUpdateThread))
			r.Delete("/threads/{id}", MakeHandler(app, HandleDeleteThread))
			r.Patch("/posts/{id}", MakeHandler(app, HandleEditPost))
			r.Delete("/posts/{id}", MakeHandler(app, HandleDeletePost))
			r.Get("/reports", MakeHandler(app, HandleListReports))
			r.Patch("/reports/{id}", MakeHandler(app, HandleReviewReport))
			r.Get("/modlog", MakeHandler(app, HandleModerationLog))
			r.Get("/stats", MakeHandler(app, HandleAdminStats))
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(app))
			r.Get("/users", MakeHandler(app, HandleListUsers))
			r.Patch("/users/{id}", MakeHandler(app, HandleUpdateUser))
			r.Post("/categories", MakeHandler(app, HandleCreateCategory))
			r.Patch("/categories/{id}", MakeHandler(app, HandleUpdateCategory))
			r.Delete("/categories/{id}", MakeHandler(app, HandleDeleteCategory))
			r.Post("/subforums", MakeHandler(app, HandleCreateSubforum))
			r.Patch("/subforums/{id}", MakeHandler(app, HandleUpdateSubforum))
			r.Delete("/subforums/{id}", MakeHandler(app, HandleDeleteSubforum))
			r.Get("/settings", MakeHandler(app, HandleGetSettings))
			r.Put("/settings", MakeHandler(app, HandleUpdateSettings))
			r.Post("/settings/reset", MakeHandler(app, HandleResetSettings))
		})
	})

	return mux
}
