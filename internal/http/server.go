// Package http serves the fintrack web UI and JSON API.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Options tunes a Server; zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	Location           *time.Location
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	ledger    *services.Ledger
	templates map[string]*template.Template
	logger    *log.Logger
	changes   *log.StructuredLogger
	loc       *time.Location
	now       func() time.Time
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// pages are rendered inside base.html.
var pages = []string{
	"home.html",
	"dashboard.html",
	"transactions.html",
	"transaction_form.html",
	"categories.html",
	"category_form.html",
	"budgets.html",
	"budget_form.html",
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ledger *services.Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{
		ledger:           ledger,
		logger:           opts.Logger.WithComponent(log.ComponentHTTP),
		changes:          log.NewStructuredLogger(opts.Logger),
		loc:              opts.Location,
		now:              time.Now,
		started:          time.Now(),
		securityDetector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           []string{http.MethodPost},
		}),
	}
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	tmpls, err := parseTemplates(s.loc)
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = tmpls

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func parseTemplates(loc *time.Location) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(templateFuncs(loc)).
			ParseFS(appweb.TemplatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(s.traceMiddleware.Middleware)
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	}))
	r.Use(s.securityDetector.Middleware(s.logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleHome)
	r.Get("/dashboard", s.handleDashboard)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Get("/new", s.handleNewTransaction)
		r.Post("/", s.handleCreateTransaction)
		r.Get("/{id}/edit", s.handleEditTransaction)
		r.Post("/{id}", s.handleUpdateTransaction)
		r.Post("/{id}/delete", s.handleDeleteTransaction)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.handleListCategories)
		r.Get("/new", s.handleNewCategory)
		r.Post("/", s.handleCreateCategory)
		r.Get("/{id}/edit", s.handleEditCategory)
		r.Post("/{id}", s.handleUpdateCategory)
		r.Post("/{id}/delete", s.handleDeleteCategory)
	})
	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", s.handleListBudgets)
		r.Get("/new", s.handleNewBudget)
		r.Post("/", s.handleCreateBudget)
		r.Get("/{id}/edit", s.handleEditBudget)
		r.Post("/{id}", s.handleUpdateBudget)
		r.Post("/{id}/delete", s.handleDeleteBudget)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleAPICategories)
		r.Get("/dashboard", s.handleAPIDashboard)
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// currentTime is "now" in the configured zone; month boundaries follow it.
func (s *Server) currentTime() time.Time {
	return s.now().In(s.loc)
}

// dashboard recomputes every view from fresh snapshots.
func (s *Server) dashboard(ctx context.Context) (services.Dashboard, error) {
	now := s.currentTime()
	ctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	d, err := s.ledger.Dashboard(ctx, now)
	if err != nil {
		return services.Dashboard{}, fmt.Errorf("build dashboard (%s): %w", now.Format("2006-01"), err)
	}
	return d, nil
}

func (s *Server) changed(ctx context.Context, op, entity, id string) {
	s.changes.LogLedgerChange(ctx, op, entity, id)
}
