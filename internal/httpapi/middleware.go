package httpapi

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
)

type contextKey string

const callerKey contextKey = "caller"

// Authenticator resolves a bearer access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// authenticate attaches the caller to the request context when a bearer
// token is present. Requests without one continue anonymously; a bad token
// is rejected outright.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			jsonError(w, s.logger, apperr.Unauthenticated("Authorization header must contain two space-delimited values.", nil))
			return
		}
		caller, err := s.auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			jsonError(w, s.logger, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom returns the authenticated user, or nil for anonymous requests.
func callerFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(callerKey).(*domain.User)
	return u
}

// requireCaller wraps handlers that need an authenticated user.
func (s *Server) requireCaller(next func(http.ResponseWriter, *http.Request, *domain.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFrom(r.Context())
		if caller == nil {
			jsonError(w, s.logger, apperr.Unauthenticated("Authentication credentials were not provided.", nil))
			return
		}
		next(w, r, caller)
	}
}

// rateLimit caps requests per client IP for the given scope.
func (s *Server) rateLimit(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(r.Context(), scope+":"+s.clientIP(r), s.authLimit, s.authWindow) {
			writeJSON(w, http.StatusTooManyRequests, envelope{
				Message: "Request was throttled.",
				Errors:  []string{"Too many requests. Try again later."},
			})
			return
		}
		next(w, r)
	}
}

// clientIP is the peer address, unless the peer is a trusted proxy. Then
// X-Forwarded-For is walked right to left and the first hop that is not a
// trusted proxy wins.
func (s *Server) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !s.trustedProxy(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !s.trustedProxy(hop) {
			return hop
		}
		host = hop
	}
	return host
}

func (s *Server) trustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request and turns panics into a 500.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("panic in handler", zap.Any("panic", p), zap.String("path", r.URL.Path), zap.Stack("stack"))
				jsonError(rec, s.logger, apperr.Internal("panic", nil))
			}
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		}()

		next.ServeHTTP(rec, r)
	})
}
