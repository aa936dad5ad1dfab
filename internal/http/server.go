package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wealth/internal/advisor"
	"wealth/internal/auth"
	"wealth/internal/cache"
	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/middleware/ratelimit"
	"wealth/internal/middleware/security"
	"wealth/internal/middleware/trace"
	"wealth/internal/services"
)

const welcomeMessage = "Welcome to Wealth Management API"

// Deps are the collaborators of the server. Records and Users may be nil
// for read-only backends, in which case their routes answer 501.
type Deps struct {
	Pipeline           *advisor.Pipeline
	Records            *services.RecordService
	Users              *services.UserService
	Issuer             *auth.Issuer
	Ready              func(context.Context) error
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager
	ready    func(context.Context) error
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector: security.NewDetector(logger),
		caches:   cache.NewManager(logger),
		ready:    deps.Ready,
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	if deps.Users != nil {
		s.caches.Register(deps.Users.Cache())
		s.caches.StartCleanup(10 * time.Minute)
	}

	mux := http.NewServeMux()
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)

	mux.HandleFunc("GET /{$}", handleWelcome)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	if deps.Pipeline != nil {
		rh := recommendationHandlers{pipeline: deps.Pipeline}
		mux.Handle("GET /api/recommendations", limited(http.HandlerFunc(rh.recommendations)))
		mux.Handle("GET /api/recommendations/test", limited(http.HandlerFunc(rh.probe)))
		mux.HandleFunc("GET /api/recommendations/health", rh.health)
	}

	protect := func(h http.HandlerFunc) http.Handler { return notImplemented() }
	if deps.Issuer != nil {
		authMW := deps.Issuer.Middleware(writeUnauthorized)
		protect = func(h http.HandlerFunc) http.Handler { return authMW(h) }
	}

	for _, kind := range core.Kinds() {
		base := "/api/" + kind.Plural()
		if deps.Records == nil {
			mux.Handle(base, notImplemented())
			mux.Handle(base+"/", notImplemented())
			continue
		}
		h := recordHandlers{kind: kind, records: deps.Records}
		mux.Handle("GET "+base, protect(h.list))
		mux.Handle("POST "+base, protect(h.create))
		mux.Handle("GET "+base+"/{id}", protect(h.get))
		mux.Handle("PUT "+base+"/{id}", protect(h.update))
		mux.Handle("DELETE "+base+"/{id}", protect(h.remove))
	}

	if deps.Users == nil {
		mux.Handle("/api/users/", notImplemented())
	} else {
		uh := userHandlers{users: deps.Users}
		mux.Handle("POST /api/users/register", limited(http.HandlerFunc(uh.register)))
		mux.Handle("POST /api/users/login", limited(http.HandlerFunc(uh.login)))
		mux.Handle("GET /api/users/profile", protect(uh.profile))
		mux.Handle("PUT /api/users/profile", protect(uh.updateProfile))
		mux.Handle("DELETE /api/users/profile", protect(uh.deleteProfile))
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Inference may take up to its own timeout.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, please try again later", nil).Write(w)
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected unauthenticated request",
		log.FieldPath, r.URL.Path, log.FieldError, err.Error())
	UnauthorizedError("Not authorized, token failed").Write(w)
}

func notImplemented() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotImplemented, "Not available with the configured data backend", nil).Write(w)
	})
}
