package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/trustscope/trustscope/internal/disclosure"
)

type ctxKey int

const viewerKey ctxKey = iota

// ViewerFrom returns the viewer attached by the auth middleware, anonymous if none
func ViewerFrom(ctx context.Context) disclosure.Viewer {
	v, _ := ctx.Value(viewerKey).(disclosure.Viewer)
	return v
}

// viewer resolves the bearer token into a disclosure.Viewer. A missing or
// invalid token yields an anonymous viewer; the request is never rejected.
func (a *API) viewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := a.authenticate(r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), viewerKey, v)))
	})
}

func (a *API) authenticate(header string) disclosure.Viewer {
	if len(a.jwtSecret) == 0 || !strings.HasPrefix(header, "Bearer ") {
		return disclosure.Viewer{}
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		a.logger.Debug("ignoring invalid bearer token", "error", err)
		return disclosure.Viewer{}
	}

	subject, _ := token.Claims.GetSubject()
	return disclosure.Viewer{Authenticated: true, Subject: subject}
}

// requestLogger logs one line per request
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			a.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects clients exceeding the configured requests per minute
func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter != nil && !a.limiter.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterIdleTTL is how long a client's bucket is kept after its last request.
// An idle bucket refills within a minute, so dropping it later loses nothing.
const limiterIdleTTL = 10 * time.Minute

// clientLimiter keeps one token bucket per client address. Buckets of clients
// that stay idle for the TTL are evicted.
type clientLimiter struct {
	buckets *gocache.Cache
	limit   rate.Limit
	burst   int
}

func newClientLimiter(perMinute int, idle time.Duration) *clientLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &clientLimiter{
		buckets: gocache.New(idle, idle),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}
}

func (l *clientLimiter) allow(key string) bool {
	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
		if err := l.buckets.Add(key, limiter, gocache.DefaultExpiration); err != nil {
			// another request created it first
			if v, ok := l.buckets.Get(key); ok {
				limiter = v.(*rate.Limiter)
			}
		}
	}

	// every request pushes the idle deadline back
	l.buckets.SetDefault(key, limiter)
	return limiter.Allow()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
