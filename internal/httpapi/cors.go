package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// SetCORSHeaders merges the edge CORS headers into h.
func SetCORSHeaders(h http.Header) {
	for k, v := range corsHeaders {
		h.Set(k, v)
	}
}

// Preflight answers OPTIONS requests before any authentication happens.
func Preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		SetCORSHeaders(c.Writer.Header())
		c.String(http.StatusOK, "ok")
		c.Abort()
	}
}

// RequirePOST rejects every method other than POST with 405.
func RequirePOST() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			Error("Only POST method is allowed", http.StatusMethodNotAllowed).Write(c)
			return
		}
		c.Next()
	}
}
