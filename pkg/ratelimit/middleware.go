package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	pkgerrors "rulebook/pkg/errors"
	"rulebook/pkg/metrics"
)

// Config controls the per-client token buckets. CleanupInterval and MaxAge
// bound how long an idle client's bucket is kept around.
type Config struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	cfg     Config
}

func (p *limiterPool) allow(ip string) bool {
	p.mu.Lock()
	cl, ok := p.clients[ip]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)}
		p.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	p.mu.Unlock()

	return cl.bucket.Allow()
}

// sweep drops buckets for clients not seen within MaxAge.
func (p *limiterPool) sweep() {
	ticker := time.NewTicker(p.cfg.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-p.cfg.MaxAge)
		p.mu.Lock()
		for ip, cl := range p.clients {
			if cl.lastSeen.Before(cutoff) {
				delete(p.clients, ip)
			}
		}
		p.mu.Unlock()
	}
}

// Middleware rate limits requests per client IP. Rejected requests get a 429
// in the service's standard error envelope.
func Middleware(cfg Config) gin.HandlerFunc {
	pool := &limiterPool{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
	}
	go pool.sweep()

	limit := strconv.Itoa(int(cfg.RPS))

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = c.RemoteIP()
		}

		c.Header("X-RateLimit-Limit", limit)

		if !pool.allow(ip) {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, pkgerrors.ErrorResponse{
				Error:     "rate limit exceeded",
				ErrorCode: "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
