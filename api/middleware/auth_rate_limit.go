package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/farmconnect-backend/api/responses"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthSurface names the auth endpoint a policy guards; it prefixes every
// counter key.
type AuthSurface string

const (
	AuthSurfaceLogin    AuthSurface = "login"
	AuthSurfaceRegister AuthSurface = "register"
)

// AuthRateLimitPolicy holds the fixed-window limits of one auth surface.
// Zero limits are off.
type AuthRateLimitPolicy struct {
	surface    AuthSurface
	window     time.Duration
	ipLimit    int
	emailLimit int
	// roleIPLimits caps sign-ups of one account type from a single address.
	roleIPLimits map[enums.UserRole]int
}

// LoginRateLimitPolicy throttles sign-in attempts per address and per account email.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		surface:    AuthSurfaceLogin,
		window:     cfg.LoginWindow,
		ipLimit:    cfg.LoginIPLimit,
		emailLimit: cfg.LoginEmailLimit,
	}
}

// RegisterRateLimitPolicy throttles sign-ups. Farmer accounts get their own
// tighter per-address budget since each one can publish listings.
func RegisterRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		surface:    AuthSurfaceRegister,
		window:     cfg.RegisterWindow,
		ipLimit:    cfg.RegisterIPLimit,
		emailLimit: cfg.RegisterEmailLimit,
		roleIPLimits: map[enums.UserRole]int{
			enums.UserRoleFarmer: cfg.RegisterFarmerIPLimit,
		},
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	if p.window <= 0 {
		return false
	}
	if p.ipLimit > 0 || p.emailLimit > 0 {
		return true
	}
	for _, limit := range p.roleIPLimits {
		if limit > 0 {
			return true
		}
	}
	return false
}

func (p AuthRateLimitPolicy) readsBody() bool {
	return p.emailLimit > 0 || len(p.roleIPLimits) > 0
}

// authAttempt is the part of a login or register body the limiter keys on.
type authAttempt struct {
	Email string         `json:"email"`
	Role  enums.UserRole `json:"type"`
}

type rateCounter struct {
	kind  string
	scope string
	limit int
}

// counters lists the buckets one request is charged against, cheapest first.
func (p AuthRateLimitPolicy) counters(ip string, attempt authAttempt) []rateCounter {
	var out []rateCounter
	if ip != "" && p.ipLimit > 0 {
		out = append(out, rateCounter{kind: "ip", scope: fmt.Sprintf("%s:ip:%s", p.surface, ip), limit: p.ipLimit})
	}
	if limit := p.roleIPLimits[attempt.Role]; ip != "" && limit > 0 {
		out = append(out, rateCounter{kind: "role_ip", scope: fmt.Sprintf("%s:%s:ip:%s", p.surface, attempt.Role, ip), limit: limit})
	}
	if email := users.NormalizeEmail(attempt.Email); email != "" && p.emailLimit > 0 {
		out = append(out, rateCounter{kind: "email", scope: fmt.Sprintf("%s:email:%s", p.surface, hashValue(email)), limit: p.emailLimit})
	}
	return out
}

// AuthRateLimit charges each login or register request against the policy's
// counters and answers 429 once any of them passes its limit. Emails are
// hashed before they reach Redis.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var attempt authAttempt
			if policy.readsBody() {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				// Malformed bodies are left for the handler to reject.
				_ = json.Unmarshal(body, &attempt)
			}

			for _, counter := range policy.counters(clientIP(r), attempt) {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(counter.scope), policy.window)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(counter.limit) {
					respondRateLimited(ctx, logg, w, policy, counter, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, counter rateCounter, count int64) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"surface":        string(policy.surface),
			"counter":        counter.kind,
			"attempts":       count,
			"limit":          counter.limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
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

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
