package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/clients"
	"github.com/sigmatax/console/internal/config"
	"github.com/sigmatax/console/internal/fetchguard"
	httpmiddleware "github.com/sigmatax/console/internal/http/middleware"
	"github.com/sigmatax/console/internal/jobs"
	"github.com/sigmatax/console/internal/monitor"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/session"
	"github.com/sigmatax/console/internal/staff"
)

// Pinger is implemented by session stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Upstream reports the latest probe of the remote API.
type Upstream interface {
	Last() (monitor.Snapshot, bool)
}

type Handler struct {
	cfg            *config.Config
	sessions       *session.Manager
	store          session.Store
	guard          *access.Guard
	hub            *notify.Hub
	upstream       Upstream
	fetches        *fetchguard.Tracker
	views          *renderer
	logger         zerolog.Logger
	publicLimiter  *httpmiddleware.RateLimiter
	loginLimiter   *httpmiddleware.RateLimiter
	sessionLimiter *httpmiddleware.RateLimiter
	now            func() time.Time
}

// NewRouter returns the console's routes. upstream may be nil.
func NewRouter(cfg *config.Config, sessions *session.Manager, store session.Store, guard *access.Guard, hub *notify.Hub, upstream Upstream, logger zerolog.Logger) (http.Handler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		cfg:            cfg,
		sessions:       sessions,
		store:          store,
		guard:          guard,
		hub:            hub,
		upstream:       upstream,
		fetches:        fetchguard.New(),
		views:          views,
		logger:         logger.With().Str("component", "http").Logger(),
		publicLimiter:  httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		loginLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitLogin.RequestsPerSecond, cfg.RateLimitLogin.Burst),
		sessionLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		now:            time.Now,
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.SecureHeaders)
	r.Use(httpmiddleware.SameOrigin)
	r.Use(httpmiddleware.Session(sessions, guard, cfg.SessionCookieName))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Get("/", h.Root)
		public.Get("/login", h.LoginPage)
		public.With(httpmiddleware.LoginRateLimit(h.loginLimiter)).Post("/login", h.Login)
		public.Post("/logout", h.Logout)
	})

	r.Group(func(private chi.Router) {
		private.Use(guard.Require())
		private.Use(httpmiddleware.UserRateLimit(h.sessionLimiter))

		private.Get("/notifications/current", h.CurrentNotification)
		private.Post("/notifications/{id}/dismiss", h.DismissNotification)

		private.Route("/dashboard", func(d chi.Router) {
			d.Get("/", h.Dashboard)
			d.With(guard.Require(access.HomeAdmin)).Get("/admin-home", h.AdminHome)
			d.With(guard.Require(access.HomeUser)).Get("/user-home", h.UserHome)

			d.Route("/clients", func(c chi.Router) {
				c.Use(guard.Require(access.ClientsManage))
				c.Get("/", h.ListClients)
				c.Get("/new", h.NewClient)
				c.Post("/", h.CreateClient)
				c.Get("/{id}", h.ClientDetail)
				c.Get("/{id}/edit", h.EditClient)
				c.Post("/{id}/edit", h.UpdateClient)
				c.Get("/{id}/delete", h.ConfirmDeleteClient)
				c.Post("/{id}/delete", h.DeleteClient)
			})

			d.Route("/staffs", func(s chi.Router) {
				s.Use(guard.Require(access.StaffsManage))
				s.Get("/", h.ListStaff)
				s.Get("/new", h.NewStaff)
				s.Post("/", h.CreateStaff)
				s.Get("/{id}/edit", h.EditStaff)
				s.Post("/{id}/edit", h.UpdateStaff)
				s.Get("/{id}/password", h.StaffPasswordPage)
				s.Post("/{id}/password", h.ChangeStaffPassword)
				s.Get("/{id}/delete", h.ConfirmDeleteStaff)
				s.Post("/{id}/delete", h.DeleteStaff)
			})

			d.Group(func(manage chi.Router) {
				manage.Use(guard.Require(access.JobsManage))
				manage.With(httpmiddleware.FamilyScope).Get("/create-job/{family}", h.NewJob)
				manage.With(httpmiddleware.FamilyScope).Post("/create-job/{family}", h.CreateJob)
				manage.With(httpmiddleware.FamilyScope).Get("/create-correction/{family}/{id}", h.NewCorrection)
				manage.With(httpmiddleware.FamilyScope).Post("/create-correction/{family}/{id}", h.CreateCorrection)
			})

			d.Route("/jobs/{family}", func(j chi.Router) {
				j.Use(httpmiddleware.FamilyScope)

				j.Group(func(view chi.Router) {
					view.Use(guard.Require(access.JobsView))
					view.Get("/{id}", h.JobDetail)
					view.Get("/{id}/files", h.JobFiles)
				})

				j.Group(func(manage chi.Router) {
					manage.Use(guard.Require(access.JobsManage))
					manage.Get("/", h.ListJobs)
					manage.Get("/rows", h.JobRows)
					manage.Get("/{id}/edit", h.EditJob)
					manage.Post("/{id}/edit", h.UpdateJob)
					manage.Get("/{id}/status", h.StatusModal)
					manage.Post("/{id}/status", h.UpdateJobStatus)
					manage.Get("/{id}/delete", h.ConfirmDeleteJob)
					manage.Post("/{id}/delete", h.DeleteJob)
				})
			})
		})
	})

	return r, nil
}

// Health answers a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready checks the session store and the last probe of the remote API.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var storeErr error
	if p, ok := h.store.(Pinger); ok {
		storeErr = p.Ping(ctx)
	}

	var upstreamErr string
	if h.upstream != nil {
		if snap, ok := h.upstream.Last(); ok && !snap.Up {
			upstreamErr = snap.Error
		}
	}

	if storeErr != nil || upstreamErr != "" {
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, "dependencies unavailable", map[string]any{
			"session_store": errorString(storeErr),
			"api":           upstreamErr,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Root sends visitors to their landing page.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if perms, ok := access.FromContext(r.Context()); ok {
		http.Redirect(w, r, perms.LandingPath(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
}

// Dashboard resolves /dashboard to the role's home.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.Root(w, r)
}

// session-bound services

func (h *Handler) apiClient(r *http.Request) *api.Client {
	return h.sessions.Client(httpmiddleware.GetSession(r.Context()))
}

func (h *Handler) clientService(r *http.Request) *clients.Service {
	return clients.NewService(clients.NewRepository(h.apiClient(r)))
}

func (h *Handler) staffService(r *http.Request) *staff.Service {
	return staff.NewService(staff.NewRepository(h.apiClient(r)))
}

func (h *Handler) jobService(r *http.Request) *jobs.Service {
	return jobs.NewService(jobs.NewRepository(h.apiClient(r)), h.logger)
}

func familyFrom(r *http.Request) jobs.Family {
	fam, _ := httpmiddleware.GetFamily(r.Context())
	return fam
}

// notify shows msg on the session's notification channel.
func (h *Handler) notify(r *http.Request, msg string, kind notify.Kind) {
	sess := httpmiddleware.GetSession(r.Context())
	if sess == nil {
		return
	}
	h.hub.For(sess.ID).Show(msg, kind, 0)
}

// sessionRejected ends the session when the API refused its token. It reports
// whether the response was written.
func (h *Handler) sessionRejected(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	sess := httpmiddleware.GetSession(r.Context())
	if sess != nil {
		h.logger.Warn().Str("staff_id", sess.SubjectID.String()).Msg("api rejected session token, logging out")
		h.sessions.End(r.Context(), sess)
		h.forget(sess.ID)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, access.LoginPath+"?error=Session+expired", http.StatusSeeOther)
	return true
}

// pageError handles a failed page load.
func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if h.sessionRejected(w, r, err) {
		return
	}
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("page load failed")
	status := http.StatusBadGateway
	if errors.Is(err, api.ErrNotFound) {
		status = http.StatusNotFound
	}
	h.renderError(w, r, status, api.Message(err, fallback))
}

func (h *Handler) forget(sessionID string) {
	h.hub.Drop(sessionID)
	h.fetches.Forget(sessionID + ":")
}
