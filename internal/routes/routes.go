package routes

import (
	"net/http"

	"github.com/AnshRaj112/solace-backend/internal/handlers"
	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/middleware"
	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles everything mounted under /api.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Profiles     *handlers.ProfileHandler
	Applications *handlers.ApplicationHandler
	Uploads      *handlers.UploadHandler
	Counseling   *handlers.CounselingHandler
	Rooms        *handlers.RoomHandler
	Forum        *handlers.ForumHandler
	CheckIns     *handlers.CheckInHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
}

// Options carries the middleware that depends on configuration.
type Options struct {
	Authorizer *middleware.Authorizer
	TrustProxy bool
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	auth := opts.Authorizer.Require()
	admin := opts.Authorizer.Require(models.RoleAdmin)
	login := middleware.LoginRateLimit(opts.TrustProxy)

	// Health checks (no auth)
	r.Get("/health", h.Health.Live)
	r.Get("/health/ready", h.Health.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(login).Post("/signup", h.Auth.Signup)
			r.With(login).Post("/signin", h.Auth.Signin)
			r.Post("/signout", h.Auth.Signout)
			r.With(auth).Get("/me", h.Auth.Me)
		})

		// Public counselor directory
		r.Get("/counselors", h.Profiles.Counselors)
		r.Get("/counselors/{id}", h.Profiles.Counselor)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/profile", h.Profiles.Get)
			r.Put("/profile", h.Profiles.Update)

			r.Post("/counselor-applications", h.Applications.Submit)
			r.Get("/counselor-applications/mine", h.Applications.Mine)
			r.Post("/uploads", h.Uploads.Upload)

			r.Route("/counseling/sessions", func(r chi.Router) {
				r.Post("/", h.Counseling.Book)
				r.Get("/", h.Counseling.List)
				r.Get("/{id}", h.Counseling.Get)
				r.Patch("/{id}", h.Counseling.Update)
				r.Delete("/{id}", h.Counseling.Delete)
				r.Get("/{id}/room", h.Rooms.Join)
				r.With(middleware.RoomHistoryRateLimit(opts.TrustProxy)).Get("/{id}/messages", h.Rooms.Messages)
			})

			r.Route("/forum", func(r chi.Router) {
				r.Get("/posts", h.Forum.ListPosts)
				r.Post("/posts", h.Forum.CreatePost)
				r.Get("/posts/{id}", h.Forum.GetPost)
				r.Put("/posts/{id}", h.Forum.UpdatePost)
				r.Delete("/posts/{id}", h.Forum.DeletePost)
				r.Post("/posts/{id}/comments", h.Forum.CreateComment)
				r.Post("/posts/{id}/report", h.Forum.ReportPost)
				r.Post("/comments/{id}/report", h.Forum.ReportComment)
				r.Get("/search", h.Forum.Search)
			})

			r.Route("/checkins", func(r chi.Router) {
				r.Post("/", h.CheckIns.Create)
				r.Get("/", h.CheckIns.List)
				r.Get("/streak", h.CheckIns.Streak)
				r.Get("/summary", h.CheckIns.Summary)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin)

			r.Get("/insights", h.Admin.Insights)
			r.Get("/audit", h.Admin.Audit)
			r.Get("/blocked-ips", h.Admin.BlockedIPs)
			r.Delete("/blocked-ips/{ip}", h.Admin.UnblockIP)

			r.Get("/users", h.Profiles.ListUsers)
			r.Put("/users/{id}/role", h.Profiles.ChangeRole)

			r.Get("/counselor-applications", h.Applications.List)
			r.Get("/counselor-applications/{id}", h.Applications.Get)
			r.Post("/counselor-applications/{id}", h.Applications.Review)

			r.Get("/forum/posts", h.Forum.PostQueue)
			r.Post("/forum/posts/{id}/moderate", h.Forum.ModeratePost)
			r.Get("/forum/comments", h.Forum.CommentQueue)
			r.Post("/forum/comments/{id}/moderate", h.Forum.ModerateComment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
}
