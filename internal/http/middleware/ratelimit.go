package middleware

import (
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-IP token bucket to the wrapped handler. Each
// call builds an independent limiter set, so different route groups can
// carry different budgets. Stale buckets are pruned by a goroutine that
// lives for the rest of the process; construct limiters once at startup,
// not per request or per short-lived route.
func RateLimit(limit rate.Limit, burst int, message string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 30*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ip := ctx.RemoteIP().String()

			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &client{limiter: rate.NewLimiter(limit, burst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			mu.Unlock()

			if !c.limiter.Allow() {
				jsonError(ctx, fasthttp.StatusTooManyRequests, message)
				return
			}
			next(ctx)
		}
	}
}
