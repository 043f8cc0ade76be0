// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kucukkal/dealer-backend/internal/utils"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per key and evicts buckets
// idle for more than three minutes.
type limiterPool struct {
	buckets map[string]*bucket
	mtx     sync.Mutex
	rate    rate.Limit
	burst   int
}

func newLimiterPool(r rate.Limit, b int) *limiterPool {
	p := &limiterPool{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   b,
	}

	go p.evictIdle()

	return p
}

func (p *limiterPool) evictIdle() {
	for {
		time.Sleep(time.Minute)
		p.mtx.Lock()
		for k, b := range p.buckets {
			if time.Since(b.lastSeen) > 3*time.Minute {
				delete(p.buckets, k)
			}
		}
		p.mtx.Unlock()
	}
}

func (p *limiterPool) take(key string) *rate.Limiter {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	b, ok := p.buckets[key]
	if !ok {
		limiter := rate.NewLimiter(p.rate, p.burst)
		p.buckets[key] = &bucket{limiter, time.Now()}
		return limiter
	}

	b.lastSeen = time.Now()
	return b.limiter
}

func (p *limiterPool) middleware(key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.take(key(c)).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func byClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// byAccount keys on the authenticated user id, falling back to the
// client IP when none is set.
func byAccount(c *gin.Context) string {
	if id := c.GetUint("user_id"); id != 0 {
		return "u:" + strconv.FormatUint(uint64(id), 10)
	}
	return c.ClientIP()
}

var (
	generalPool = newLimiterPool(rate.Every(time.Second), 10) // burst 10, refills 1/s
	authPool    = newLimiterPool(rate.Every(time.Minute), 5)  // burst 5, refills 1/min
	importPool  = newLimiterPool(rate.Every(time.Minute), 10) // burst 10, refills 1/min
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalPool.middleware(byClientIP)
}

func AuthRateLimit() gin.HandlerFunc {
	return authPool.middleware(byClientIP)
}

// ImportRateLimit meters CSV uploads per account rather than per
// address.
func ImportRateLimit() gin.HandlerFunc {
	return importPool.middleware(byAccount)
}
