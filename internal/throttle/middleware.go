package throttle

import (
	"context"
	"net/http"
	"time"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/httpapi"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

const releaseTimeout = 2 * time.Second

// CallerKey identifies the caller: the token subject when there is one,
// otherwise role and client IP.
func CallerKey(c *gin.Context) string {
	claims, _ := auth.ClaimsFrom(c.Request.Context())
	if claims.HasSubject() {
		return "sub:" + claims.Subject
	}
	role := claims.Role
	if role == "" {
		role = "anon"
	}
	return role + ":" + c.ClientIP()
}

// Middleware rejects a caller with 429 once it has too many requests in
// flight. Limiter errors are logged and the request is let through.
// Runs after auth.Authenticate so CallerKey can see the claims.
func Middleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		release, ok, err := l.Acquire(ctx, CallerKey(c))
		if err != nil {
			logger.FromGin(c).Warn("throttle unavailable, allowing request", "err", err)
			c.Next()
			return
		}
		if !ok {
			httpapi.GatewayError("Too many concurrent requests", http.StatusTooManyRequests).Write(c)
			return
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := release(rctx); err != nil {
				logger.FromGin(c).Warn("throttle release failed", "err", err)
			}
		}()
		c.Next()
	}
}
