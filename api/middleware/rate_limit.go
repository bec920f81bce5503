package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tubeshop-backend/pkg/redis"
)

// RateLimit applies a fixed window per client IP. A nil limiter or a
// non-positive limit disables it.
func RateLimit(limiter pkgredis.RateLimiter, limit int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			allowed, count, err := limiter.FixedWindowAllow(ctx, "ip:"+ip, int64(limit), window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(window.Seconds()),
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
