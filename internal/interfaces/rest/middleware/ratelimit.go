package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
)

// window counts requests in the current and previous fixed windows of one client.
type window struct {
	prevCount float64
	currCount float64
	currStart time.Time
}

// RateLimiter is a per-client sliding window limiter. The count for the previous
// window is weighted by how much of it still overlaps the sliding window.
type RateLimiter struct {
	max     int
	size    time.Duration
	proxies TrustedProxies
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) (*RateLimiter, error) {
	proxies, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		max:     cfg.Max,
		size:    cfg.Window,
		proxies: proxies,
		clients: make(map[string]*window),
		now:     time.Now,
	}, nil
}

// Allow records a request from key and reports whether it is within the limit,
// along with the remaining budget and when the current window ends.
func (l *RateLimiter) Allow(key string) (remaining int, resetAt time.Time, ok bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.clients[key]
	if !found {
		w = &window{currStart: now.Truncate(l.size)}
		l.clients[key] = w
	}

	if elapsed := now.Sub(w.currStart); elapsed >= l.size {
		if elapsed >= 2*l.size {
			w.prevCount = 0
		} else {
			w.prevCount = w.currCount
		}
		w.currCount = 0
		w.currStart = now.Truncate(l.size)
	}

	overlap := max(1-now.Sub(w.currStart).Seconds()/l.size.Seconds(), 0)
	effective := w.prevCount*overlap + w.currCount
	resetAt = w.currStart.Add(l.size)

	if effective >= float64(l.max) {
		return 0, resetAt, false
	}

	w.currCount++
	return max(int(float64(l.max)-effective-1), 0), resetAt, true
}

// Sweep drops clients idle for two windows.
func (l *RateLimiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.clients {
		if now.Sub(w.currStart) >= 2*l.size {
			delete(l.clients, key)
		}
	}
}

// RunSweeper calls Sweep every two windows until ctx is done.
func (l *RateLimiter) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(2 * l.size)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// RateLimit limits requests per client IP.
func RateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.Allow(l.proxies.ClientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := max(resetAt.Sub(l.now()), 0)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				rest.WriteJSON(w, http.StatusTooManyRequests, rest.APIResponse{
					Error: &rest.ErrorDetail{Code: "RATE_LIMITED", Message: "Too many requests, slow down"},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies lists the peers whose forwarding headers are believed.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies accepts IP addresses and CIDR ranges.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var t TrustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return TrustedProxies{}, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			t.prefixes = append(t.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return TrustedProxies{}, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return t, nil
}

func (t TrustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP is the peer address unless the peer is a trusted proxy. Behind trusted
// proxies it is the nearest X-Forwarded-For hop that is not itself trusted, falling
// back to X-Real-IP.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	peer := PeerIP(r)
	if !t.contains(peer) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !t.contains(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}

// PeerIP is the address of the TCP peer.
func PeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
