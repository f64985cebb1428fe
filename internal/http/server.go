package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devfolio-backend-go/internal/config"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	DB          *sqlx.DB
	Store       *store.Store
	Config      config.Config
	Tokens      services.TokenService
	Gate        services.Gate
	Media       *services.MediaStore
	Lists       *services.ListCache
	Limiter     services.RateLimiter
	Notifier    services.Notifier
	Revalidator services.Revalidator
	MetricsHub  *services.MetricsHub
}

type Option func(*Server)

func WithLimiter(limiter services.RateLimiter) Option {
	return func(s *Server) { s.Limiter = limiter }
}

func WithNotifier(notifier services.Notifier) Option {
	return func(s *Server) { s.Notifier = notifier }
}

func WithScanner(scanner services.Scanner) Option {
	return func(s *Server) { s.Media.Scanner = scanner }
}

func WithIdentityProvider(provider services.IdentityProvider) Option {
	return func(s *Server) { s.Gate.Provider = provider }
}

// NewServer wires the handlers. A nil hub gets a private one so the dashboard
// socket and stats never see a nil hub.
func NewServer(db *sqlx.DB, cfg config.Config, hub *services.MetricsHub, opts ...Option) *Server {
	if hub == nil {
		hub = services.NewMetricsHub()
	}
	st := store.New(db)
	tokens := services.TokenService{
		Secret: []byte(cfg.SessionSecret),
		Issuer: cfg.SessionIssuer,
		TTL:    cfg.SessionTTL(),
	}
	s := &Server{
		DB:     db,
		Store:  st,
		Config: cfg,
		Tokens: tokens,
		Gate: services.Gate{
			Provider:  tokens,
			Directory: services.StoreDirectory{Admins: st.Admins},
		},
		Media:       services.NewMediaStore(cfg.UploadsRoot, cfg.UploadMaxBytes),
		Lists:       services.NewListCache(cfg.CacheTTL()),
		Limiter:     services.NewMemoryLimiter(cfg.ContactRateLimit, cfg.ContactRateWindow()),
		Notifier:    services.NopNotifier{},
		Revalidator: services.Revalidator{URL: cfg.RevalidationURL, Secret: cfg.RevalidationSecret},
		MetricsHub:  hub,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Instrument)
	r.Use(SecurityHeaders(s.Config.CSPConnectSources()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(api chi.Router) {
		if origins := s.Config.CorsOrigins(); len(origins) > 0 {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins:   origins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		api.Use(Timeout(s.Config.RequestTimeout()))

		api.Route("/projects", func(projects chi.Router) {
			projects.Get("/", s.ListProjects)
			projects.Get("/{id}", s.GetProject)
			projects.With(s.RequireAdmin).Post("/", s.CreateProject)
			projects.With(s.RequireAdmin).Put("/{id}", s.UpdateProject)
			projects.With(s.RequireAdmin).Delete("/{id}", s.DeleteProject)
		})

		api.Route("/experiences", func(experiences chi.Router) {
			experiences.Get("/", s.ListExperiences)
			experiences.Get("/{id}", s.GetExperience)
			experiences.With(s.RequireAdmin).Post("/", s.CreateExperience)
			experiences.With(s.RequireAdmin).Put("/{id}", s.UpdateExperience)
			experiences.With(s.RequireAdmin).Delete("/{id}", s.DeleteExperience)
		})

		api.Route("/contact", func(contact chi.Router) {
			contact.Post("/", s.SubmitContact)
			contact.With(s.RequireAdmin).Get("/", s.ListMessages)
			contact.With(s.RequireAdmin).Put("/{id}", s.UpdateMessage)
			contact.With(s.RequireAdmin).Delete("/{id}", s.DeleteMessage)
		})

		api.With(s.RequireAdmin).Post("/upload", s.Upload)

		api.Post("/auth/login", s.Login)
		api.Post("/auth/logout", s.Logout)
		api.With(s.RequireAdmin).Get("/auth/me", s.Me)

		api.Post("/webhooks/identity", s.IdentityWebhook)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(s.RequireAdmin)
			admin.Get("/stats", s.Stats)
			admin.Get("/admins", s.ListAdmins)
			admin.Post("/uploads/prune", s.PruneUploads)
			admin.Get("/metrics/history", s.MetricsHistory)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.Health)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadsHandler(s.Config.UploadsRoot)))
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		s.WriteServiceError(w, r, services.ErrStorage("Database unavailable", err))
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadsHandler serves stored files read-only and never lists directories.
func uploadsHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}

// contentChanged drops cached lists and asks the front end to rebuild.
func (s *Server) contentChanged(paths ...string) {
	s.Lists.Invalidate()
	if !s.Revalidator.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Revalidator.Revalidate(ctx, paths...); err != nil {
			slog.Warn("revalidation failed", "paths", paths, "error", err)
		}
	}()
}

// removeFile deletes an upload released by a row write or delete, unless another
// row still references it. Call it after the row change. Failure is logged, never returned.
func (s *Server) removeFile(ctx context.Context, url string) {
	if strings.TrimSpace(url) == "" || !s.Media.Owns(url) {
		return
	}
	referenced, err := s.Store.UploadReferenced(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "stored file kept, reference check failed", "url", url, "error", err)
		return
	}
	if referenced {
		slog.DebugContext(ctx, "stored file still referenced", "url", url)
		return
	}
	if !s.Media.DeleteStoredFile(url) {
		slog.WarnContext(ctx, "stored file not removed", "url", url)
	}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrValidation("Invalid id", map[string]string{"id": "Invalid id"})
	}
	return id, nil
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
