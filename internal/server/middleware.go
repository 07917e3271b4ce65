package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rewrapped/internal/shared"
	"golang.org/x/time/rate"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and duration of every request.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).Round(time.Microsecond),
			)
		})
	}
}

// RecoverMiddleware turns a panicking handler into a 500 response.
func RecoverMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panicked", "path", r.URL.Path, "panic", v)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the remote address of r without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.cleanup()
	return actual.(*rate.Limiter)
}

// cleanup drops idle buckets at most once every 5 minutes.
func (l *ipLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}
	l.lastCleanup = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware allows perMinute requests per client IP, all of them available as a burst.
//
// Only paths listed in paths are limited; with no paths every request is. A non-positive perMinute disables limiting.
func RateLimitMiddleware(perMinute int, logger *log.Logger, paths ...string) Middleware {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	l := &ipLimiter{
		rate:        rate.Limit(float64(perMinute) / 60),
		burst:       perMinute,
		lastCleanup: time.Now(),
	}

	limited := func(path string) bool {
		if len(paths) == 0 {
			return true
		}
		for _, p := range paths {
			if p == path {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limited(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			limiter := l.get(ClientIP(r))
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				logger.Warn("rate limit exceeded", "ip", ClientIP(r), "path", r.URL.Path, "retry_after", retryAfter)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type sessionKey struct{}

// SessionOpts configures [SessionMiddleware].
type SessionOpts struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// DefaultCookieName is the cookie carrying the session id.
const DefaultCookieName = "rewrapped_session"

// SessionMiddleware makes sure every request carries a session id.
//
// The id lives in an HttpOnly cookie; a missing or malformed cookie gets a new random id.
// Handlers read it with [SessionID].
func SessionMiddleware(opts SessionOpts) Middleware {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.CookieName); err == nil && shared.ValidID(c.Value) {
				id = c.Value
			} else {
				id = shared.GenerateID()
				cookie := &http.Cookie{
					Name:     opts.CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				}
				if opts.MaxAge > 0 {
					cookie.MaxAge = int(opts.MaxAge.Seconds())
				}
				http.SetCookie(w, cookie)
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// WithSessionID stores a session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session id set by [SessionMiddleware], or "" outside of it.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
