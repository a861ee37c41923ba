package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mockdata-subscription/internal/infra/logging"
)

const idleClientTTL = 15 * time.Minute

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter is an in-process token bucket per client IP. It guards the
// unauthenticated routes, where there is no user id to key on.
type IPLimiter struct {
	mu        sync.Mutex
	clients   map[string]*ipClient
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	trusted   []*net.IPNet // proxies whose forwarding headers are honoured
	now       func() time.Time
	log       *zerolog.Logger
}

func NewIPLimiter(rps float64, burst int, logger *zerolog.Logger) *IPLimiter {
	return &IPLimiter{
		clients: map[string]*ipClient{},
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		log:     logger,
	}
}

// TrustProxies sets the proxies allowed to report the client address through
// X-Forwarded-For or X-Real-IP. Entries are CIDRs or bare IPs.
func (l *IPLimiter) TrustProxies(entries []string) error {
	nets, err := ParseProxies(entries)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.trusted = nets
	l.mu.Unlock()
	return nil
}

// ParseProxies turns CIDRs or bare IPs into networks.
func ParseProxies(entries []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid address", e)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	now := l.now()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	}
	if now.Sub(l.lastSweep) > idleClientTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > idleClientTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &ipClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	lim := c.limiter
	l.mu.Unlock()

	return lim.AllowN(now, 1)
}

func (l *IPLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l.mu.Lock()
			trusted := l.trusted
			l.mu.Unlock()
			ip := ClientIP(r, trusted)
			if !l.Allow(ip) {
				logging.With(r.Context(), l.log).Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","detail":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the peer address unless the peer is a trusted proxy. Behind
// a trusted proxy it takes the right-most X-Forwarded-For hop that is not itself
// trusted, falling back to X-Real-IP.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !inNets(peer, trusted) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !inNets(hop, trusted) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return peer
}

func inNets(addr string, nets []*net.IPNet) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
