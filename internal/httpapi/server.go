// Package httpapi is the REST boundary of the board service.
//
// Routes:
//
//	POST   /users/register                     → register an applicant or company
//	GET    /users/verify-email?token=          → activate an account
//	POST   /users/login                        → issue an access/refresh pair
//	POST   /users/token/refresh                → rotate a refresh token
//	POST   /jobs                               → create a job (company)
//	GET    /jobs                               → browse jobs
//	GET    /jobs/my-jobs                       → the caller's jobs with counts
//	GET    /jobs/{id}                          → job details
//	PATCH  /jobs/{id}                          → edit or move a job (owner)
//	DELETE /jobs/{id}                          → delete a job (owner)
//	GET    /jobs/{id}/applications             → applications for a job (owner)
//	POST   /jobs/{id}/apply                    → apply with a resume (applicant)
//	GET    /applications/my-applications       → the caller's applications
//	PATCH  /applications/{id}/update-status    → set an application status (owner)
//	GET    /health
package httpapi

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/identity"
	"jobmate/board-service/internal/jobs"
	"jobmate/board-service/internal/ratelimit"
)

const version = "1.0.0"

// Deps are the collaborators of Server.
type Deps struct {
	Identity     *identity.Service
	Jobs         *jobs.Service
	Applications *applications.Service
	Limiter      ratelimit.Limiter
	Logger       *zap.Logger

	// Ping reports whether the store is reachable; nil means always healthy.
	Ping func(ctx context.Context) error

	AuthRateLimit  int
	AuthRateWindow time.Duration
	MaxResumeBytes int64

	// TrustedProxies are the peers whose X-Forwarded-For header is believed.
	// Empty means the header is ignored.
	TrustedProxies []netip.Prefix
}

// Server holds the HTTP handlers.
type Server struct {
	identity   *identity.Service
	auth       Authenticator
	jobs       *jobs.Service
	apps       *applications.Service
	limiter    ratelimit.Limiter
	logger     *zap.Logger
	ping       func(ctx context.Context) error
	authLimit  int
	authWindow time.Duration
	maxResume  int64
	proxies    []netip.Prefix
}

func NewServer(d Deps) *Server {
	return &Server{
		identity:   d.Identity,
		auth:       d.Identity,
		jobs:       d.Jobs,
		apps:       d.Applications,
		limiter:    d.Limiter,
		logger:     d.Logger,
		ping:       d.Ping,
		authLimit:  d.AuthRateLimit,
		authWindow: d.AuthRateWindow,
		maxResume:  d.MaxResumeBytes,
		proxies:    d.TrustedProxies,
	}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("POST /users/register", s.rateLimit("register", s.register))
	mux.HandleFunc("GET /users/verify-email", s.verifyEmail)
	mux.HandleFunc("POST /users/login", s.rateLimit("login", s.login))
	mux.HandleFunc("POST /users/token/refresh", s.refresh)

	mux.HandleFunc("POST /jobs", s.requireCaller(s.createJob))
	mux.HandleFunc("GET /jobs", s.listJobs)
	mux.HandleFunc("GET /jobs/my-jobs", s.requireCaller(s.listMyJobs))
	mux.HandleFunc("GET /jobs/{id}", s.getJob)
	mux.HandleFunc("PATCH /jobs/{id}", s.requireCaller(s.updateJob))
	mux.HandleFunc("DELETE /jobs/{id}", s.requireCaller(s.deleteJob))
	mux.HandleFunc("GET /jobs/{id}/applications", s.requireCaller(s.listJobApplications))
	mux.HandleFunc("POST /jobs/{id}/apply", s.requireCaller(s.apply))

	mux.HandleFunc("GET /applications/my-applications", s.requireCaller(s.listMyApplications))
	mux.HandleFunc("PATCH /applications/{id}/update-status", s.requireCaller(s.updateApplicationStatus))

	return s.logRequests(s.authenticate(mux))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "service": "board-service", "version": version}
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			status["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "Store unavailable.", Object: status, Errors: []string{"store: unreachable"}})
			return
		}
	}
	jsonOK(w, http.StatusOK, "Service healthy.", status)
}
