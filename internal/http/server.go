package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finboard/internal/auth"
	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
	"finboard/internal/settings"
)

// Services bundles everything the handlers call into.
type Services struct {
	Auth         *services.AuthService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Habits       *services.HabitService
	Profiles     *services.ProfileService
	Reports      *services.ReportService
	Dashboard    *services.DashboardService
	Settings     *settings.Store
}

// Pinger reports whether a dependency is reachable; used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Server is the API server. It embeds http.Server so callers use
// ListenAndServe directly.
type Server struct {
	http.Server

	svc      Services
	tokens   *auth.Tokens
	ready    Pinger
	logger   *applog.Logger
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, tokens *auth.Tokens, ready Pinger, opts Options, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:      svc,
		tokens:   tokens,
		ready:    ready,
		logger:   logger,
		detector: detector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})
	r.MethodNotAllowedHandler = methodNotAllowed

	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// Nested subrouters do not report a method mismatch to their parent, so
	// each one answers 405 itself.
	api := r.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = methodNotAllowed
	api.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.handleSignin).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.MethodNotAllowedHandler = methodNotAllowed
	private.Use(auth.Middleware(s.tokens))

	private.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	private.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	private.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	private.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPatch)
	private.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	private.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	private.HandleFunc("/goals", s.handleCreateGoal).Methods(http.MethodPost)
	private.HandleFunc("/goals/{id}", s.handleGetGoal).Methods(http.MethodGet)
	private.HandleFunc("/goals/{id}", s.handleUpdateGoal).Methods(http.MethodPatch)
	private.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)
	private.HandleFunc("/goals/{id}/deposit", s.handleDepositGoal).Methods(http.MethodPost)

	private.HandleFunc("/habits", s.handleListHabits).Methods(http.MethodGet)
	private.HandleFunc("/habits", s.handleCreateHabit).Methods(http.MethodPost)
	private.HandleFunc("/habits/{id}", s.handleUpdateHabit).Methods(http.MethodPatch)
	private.HandleFunc("/habits/{id}", s.handleDeleteHabit).Methods(http.MethodDelete)
	private.HandleFunc("/habits/{id}/toggle", s.handleToggleHabit).Methods(http.MethodPost)

	private.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	private.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPatch)

	private.HandleFunc("/reports", s.handleReport).Methods(http.MethodGet)
	private.HandleFunc("/reports/expenses-by-category", s.handleExpensesByCategory).Methods(http.MethodGet)
	private.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	private.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	private.HandleFunc("/settings", s.handleSaveSettings).Methods(http.MethodPut)

	return r
}

// Shutdown stops the limiter cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes the middleware counters for diagnostics.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics, security.DetectionMetrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics(), s.detector.GetMetrics()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	ok(w, map[string]string{"status": "ready"})
}
