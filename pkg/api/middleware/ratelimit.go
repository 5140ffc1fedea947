package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/0xReLogic/Cognio/config"
	"github.com/0xReLogic/Cognio/pkg/api/response"
	"golang.org/x/time/rate"
)

// clientTTL is how long an idle client keeps its token bucket.
const clientTTL = 3 * time.Minute

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a middleware enforcing per-client token bucket rate
// limits. Clients are keyed by originating IP; idle buckets are pruned so
// the map does not grow without bound.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg == nil || !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	var mu sync.Mutex
	clients := make(map[string]*rateClient)
	lastPrune := time.Now()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			mu.Lock()
			c, ok := clients[key]
			if !ok {
				c = &rateClient{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
				clients[key] = c
			}
			c.lastSeen = time.Now()
			if time.Since(lastPrune) > clientTTL {
				for k, v := range clients {
					if time.Since(v.lastSeen) > clientTTL {
						delete(clients, k)
					}
				}
				lastPrune = time.Now()
			}
			mu.Unlock()

			if !c.limiter.Allow() {
				response.Error(w, http.StatusTooManyRequests, response.ErrCodeTooManyRequests,
					"Rate limit exceeded", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller, preferring the first X-Forwarded-For hop.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
