// solforum/handlers/middleware.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"solforum/models"
	"solforum/utils"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const sessionUserKey contextKey = "sessionUser"

// currentUser returns the authenticated user attached to the request, if any.
func currentUser(r *http.Request) (models.SessionUser, bool) {
	su, ok := r.Context().Value(sessionUserKey).(models.SessionUser)
	return su, ok
}

// SessionMiddleware resolves the session cookie to a user and attaches it to
// the request context. Banned users are treated as logged out.
func SessionMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := app.Sessions().CurrentUserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			su, banned, err := app.DB().GetSessionUser(userID)
			if err != nil || banned {
				next.ServeHTTP(w, r)
				return
			}
			app.DB().TouchLastSeen(userID)
			ctx := context.WithValue(r.Context(), sessionUserKey, *su)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests.
func RequireAuth(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := currentUser(r); !ok {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff allows moderators and admins only.
func RequireStaff(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			su, ok := currentUser(r)
			if !ok {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"}, app)
				return
			}
			if !su.IsStaff() {
				respondJSON(w, http.StatusForbidden, map[string]string{"error": "Moderator access required"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows admins only.
func RequireAdmin(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			su, ok := currentUser(r)
			if !ok {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"}, app)
				return
			}
			if su.Role != models.RoleAdmin {
				respondJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles write endpoints per client IP.
func RateLimit(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.GetIPAddress(r)
			if !app.RateLimiter().GetLimiter(ip).Allow() {
				respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded, slow down"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one structured log line per request.
func RequestLogger(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			app.Logger().Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", utils.GetIPAddress(r),
			)
		})
	}
}
