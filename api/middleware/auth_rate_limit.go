package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/ecommerce-backend/api/responses"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy throttles one auth endpoint with two fixed windows: one
// per client IP and one per identity, where the identity is the string value
// of a JSON body field such as "username" or "email". A zero limit disables
// that window.
type AuthRateLimitPolicy struct {
	name          string
	field         string
	window        time.Duration
	ipLimit       int
	identityLimit int
}

func NewAuthRateLimitPolicy(name, field string, window time.Duration, ipLimit, identityLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:          name,
		field:         strings.TrimSpace(field),
		window:        window,
		ipLimit:       ipLimit,
		identityLimit: identityLimit,
	}
}

func (p AuthRateLimitPolicy) countsIP() bool       { return p.ipLimit > 0 }
func (p AuthRateLimitPolicy) countsIdentity() bool { return p.identityLimit > 0 && p.field != "" }

// limitCheck is one counter consulted for a request.
type limitCheck struct {
	dimension string
	scope     string
	limit     int
	logField  string
	logValue  string
}

// AuthRateLimit answers 429 with Retry-After once either window is exhausted.
// Counter failures are reported as dependency errors rather than let through.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.window <= 0 || !(policy.countsIP() || policy.countsIdentity()) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, c := range checks {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(c.scope), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					policy.reject(ctx, logg, w, c, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checksFor reads and restores the body when an identity window is configured.
func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]limitCheck, error) {
	var checks []limitCheck
	if ip := clientIP(r); p.countsIP() && ip != "" {
		checks = append(checks, limitCheck{
			dimension: "ip",
			scope:     "ip:" + p.name + ":" + ip,
			limit:     p.ipLimit,
			logField:  "ip",
			logValue:  ip,
		})
	}
	if !p.countsIdentity() {
		return checks, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var fields map[string]any
	if json.Unmarshal(body, &fields) != nil {
		return checks, nil
	}
	identity, _ := fields[p.field].(string)
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return checks, nil
	}
	sum := sha256.Sum256([]byte(identity))
	digest := hex.EncodeToString(sum[:])
	return append(checks, limitCheck{
		dimension: p.field,
		scope:     p.field + ":" + p.name + ":" + digest,
		limit:     p.identityLimit,
		logField:  "identity_hash",
		logValue:  digest,
	}), nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, c limitCheck, count int64) {
	retryAfter := int(p.window.Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         p.name,
			"scope":          c.dimension,
			c.logField:       c.logValue,
			"attempts":       count,
			"limit":          c.limit,
			"window_seconds": retryAfter,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, hop := range strings.Split(xff, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
