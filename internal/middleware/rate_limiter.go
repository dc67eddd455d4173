package middleware

import (
	"net/http"
	"sync"
	"time"

	"erppsi/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// rateEntry tracks request counts per key within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// limiter is a per-key fixed-window counter. Each middleware instance owns
// its own map so the API-wide and signing limits do not share budgets.
type limiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*rateEntry
	lastPurge time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{limit: limit, window: window, now: time.Now, entries: make(map[string]*rateEntry)}
}

// allow counts one hit for key and reports whether it is within the limit,
// plus the end of the current window.
func (l *limiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > purgeInterval {
		l.purge(now)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops expired windows so IPs that never return do not accumulate.
func (l *limiter) purge(now time.Time) {
	purged := 0
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			purged++
		}
	}
	l.lastPurge = now
	if purged > 0 {
		log.Debug().Int("purged", purged).Msg("rate_limiter: expired entries purged")
	}
}

func (l *limiter) middleware(key func(*gin.Context) string, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(key(c))
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// RateLimiter limits every route to limit requests per window per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newLimiter(limit, window).middleware(func(c *gin.Context) string {
		return c.ClientIP()
	}, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// SignRateLimiter limits signing attempts per IP and contract, so a client
// cannot hammer the PDF pipeline of a single contract.
func SignRateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newLimiter(limit, window).middleware(func(c *gin.Context) string {
		return c.ClientIP() + "|" + c.Param("id")
	}, "Demasiados intentos de firma. Intente en 1 minuto.")
}
