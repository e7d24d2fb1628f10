package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/larder-backend/api/responses"
	"github.com/angelmondragon/larder-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/larder-backend/pkg/redis"
)

// ShareRateLimitPolicy bounds how many invitations one grantor may send per window.
type ShareRateLimitPolicy struct {
	window time.Duration
	limit  int
}

func NewShareRateLimitPolicy(cfg config.ShareRateLimitConfig) ShareRateLimitPolicy {
	return ShareRateLimitPolicy{window: cfg.Window, limit: cfg.Limit}
}

func (p ShareRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// ShareRateLimit counts share invitations per authenticated grantor, falling
// back to the client address when no user is attached.
func ShareRateLimit(policy ShareRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := "share:user:" + UserIDFromContext(ctx)
			if UserIDFromContext(ctx) == "" {
				scope = "share:ip:" + clientIP(r)
			}

			decision, err := limiter.Allow(ctx, scope, int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !decision.Allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       decision.Count,
						"limit":          policy.limit,
						"reset_in_ms":    decision.ResetIn.Milliseconds(),
					}), "share.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", retryAfterSeconds(decision.ResetIn))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many share invitations, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(resetIn time.Duration) string {
	secs := int((resetIn + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
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
