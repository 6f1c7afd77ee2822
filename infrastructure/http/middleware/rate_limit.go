package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/portinscan/portinscan/domain/apperror"
	"github.com/portinscan/portinscan/infrastructure/http/response"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/ratelimit"
)

type RateLimitPolicy struct {
	Attempts      int
	Window        time.Duration
	BlockDuration time.Duration
	// forwarding headers are read only from these peers
	TrustedProxies []*net.IPNet
}

// RateLimitMiddleware limits login attempts per client IP. Every POST /login
// counts, whatever its outcome. Limiter failures are logged and let through.
type RateLimitMiddleware struct {
	rateLimitService ratelimit.RateLimitService
	policy           RateLimitPolicy
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService ratelimit.RateLimitService, policy RateLimitPolicy, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		policy:           policy,
		logger:           log,
	}
}

func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil || r.Method != http.MethodPost || r.URL.Path != LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := getClientIP(r, m.policy.TrustedProxies)
		key := fmt.Sprintf("login:ip:%s", clientIP)

		blocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{
				"ip":  clientIP,
				"key": key,
			})
		}
		if blocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", map[string]interface{}{
				"ip":        clientIP,
				"key":       key,
				"userAgent": r.UserAgent(),
			})
			m.reject(w, r)
			return
		}

		count, err := m.rateLimitService.Increment(ctx, key, m.policy.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to count login attempt", err, map[string]interface{}{
				"ip":  clientIP,
				"key": key,
			})
			next.ServeHTTP(w, r)
			return
		}

		if count > m.policy.Attempts {
			if err := m.rateLimitService.Block(ctx, key, m.policy.BlockDuration, "Rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block IP", err, map[string]interface{}{
					"ip":  clientIP,
					"key": key,
				})
			}
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", map[string]interface{}{
				"ip":        clientIP,
				"key":       key,
				"attempts":  count,
				"userAgent": r.UserAgent(),
			})
			m.reject(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(int(m.policy.BlockDuration.Seconds())))
	response.AppError(w, apperror.ErrRateLimitExceeded(m.policy.Attempts, m.policy.Window.String()), logger.CorrelationID(r.Context()))
}

// getClientIP returns the socket peer unless it is a trusted proxy. Behind a
// trusted proxy X-Forwarded-For is walked from the right, skipping trusted
// hops, so a client cannot choose its own key by prepending entries.
func getClientIP(r *http.Request, trusted []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !isTrusted(net.ParseIP(host), trusted) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		client := host
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			client = ip.String()
			if !isTrusted(ip, trusted) {
				break
			}
		}
		return client
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return host
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
