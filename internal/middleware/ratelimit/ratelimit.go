// Package ratelimit limits requests per client with a fixed window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"patrimonio/internal/cache"
)

// Limiter allows RequestsPerWindow requests per client and window. Client
// state lives in an LRU so memory stays bounded; expired windows are
// dropped by the cache manager through Cleaner.
type Limiter struct {
	mu      sync.Mutex
	clients *cache.LRUCache[*window]
	limit   int
	window  time.Duration
	now     func() time.Time

	rejected atomic.Int64
}

type window struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	MaxClients        int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		MaxClients:        10000,
	}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = def.RequestsPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	return &Limiter{
		clients: cache.NewLRUCache[*window](config.MaxClients, config.Window),
		limit:   config.RequestsPerWindow,
		window:  config.Window,
		now:     time.Now,
	}
}

// Allow counts a request from client and reports whether it is within the
// limit.
func (rl *Limiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients.Get(client)
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients.Set(client, &window{start: now, requests: 1})
		return true
	}
	w.requests++
	if w.requests > rl.limit {
		rl.rejected.Add(1)
		return false
	}
	return true
}

// Cleaner exposes the client table for periodic expiry.
func (rl *Limiter) Cleaner() cache.Cleaner {
	return rl.clients
}

func (rl *Limiter) ActiveClients() int {
	return rl.clients.Size()
}

// Rejected is the number of requests refused so far.
func (rl *Limiter) Rejected() int64 {
	return rl.rejected.Load()
}

// Middleware rejects requests over the limit. onLimit writes the
// rejection; nil sends a plain 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
