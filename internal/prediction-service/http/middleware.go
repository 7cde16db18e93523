package httpapi

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// corsHandler libera as origens configuradas; "*" libera todas.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         86400,
	})
}

// RateLimiter aplica token bucket por IP: Limit requisições por Window,
// com rajada de até Limit.
type RateLimiter struct {
	Limit  int
	Window time.Duration

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		Limit:   limit,
		Window:  window,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (l *RateLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.clients[ip]
	if !ok {
		every := l.Window / time.Duration(l.Limit)
		c = &client{lim: rate.NewLimiter(rate.Every(every), l.Limit)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.lim
}

// Middleware responde 429 com Retry-After quando o cliente estoura o limite
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		lim := l.limiter(clientIP(r), now)

		res := lim.ReserveN(now, 1)
		delay := res.DelayFrom(now)
		if delay > 0 {
			res.CancelAt(now)
			retry := int(math.Ceil(delay.Seconds()))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeFailure(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		remaining := int(math.Floor(lim.TokensAt(now)))
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// Cleanup remove clientes sem requisições há mais de uma janela.
// Bloqueia até o contexto ser cancelado.
func (l *RateLimiter) Cleanup(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evictIdle(l.now())
		}
	}
}

func (l *RateLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.Window {
			delete(l.clients, ip)
		}
	}
}

// clientIP usa o RemoteAddr já ajustado por middleware.RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
