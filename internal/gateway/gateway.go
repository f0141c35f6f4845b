// Package gateway is the front router: it maps the first path segment to an
// edge function and answers routing failures in the gateway dialect.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/function"
	"edge-gateway/internal/httpapi"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PathPrefix is the hosted-platform prefix accepted in front of function names.
const PathPrefix = "/functions/v1"

const healthTimeout = 2 * time.Second

// HealthFunc reports whether a backing service is reachable.
type HealthFunc func(ctx context.Context) error

// Gateway serves a fixed set of functions.
type Gateway struct {
	verifier  *auth.Verifier
	functions map[string]*function.Function
	health    HealthFunc
}

// New builds a gateway. Duplicate or empty function names panic.
func New(v *auth.Verifier, fns ...*function.Function) *Gateway {
	g := &Gateway{verifier: v, functions: make(map[string]*function.Function, len(fns))}
	for _, f := range fns {
		if f == nil || f.Name == "" {
			panic("gateway: function without a name")
		}
		if _, dup := g.functions[f.Name]; dup {
			panic(fmt.Sprintf("gateway: duplicate function %q", f.Name))
		}
		g.functions[f.Name] = f
	}
	return g
}

// WithHealth makes /healthz report 503 when h fails.
func (g *Gateway) WithHealth(h HealthFunc) *Gateway {
	g.health = h
	return g
}

// Names returns the served function names, sorted.
func (g *Gateway) Names() []string {
	out := make([]string, 0, len(g.functions))
	for n := range g.functions {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Register installs the health endpoint, one route pair per function and the
// NoRoute fallback on r.
func (g *Gateway) Register(r *gin.Engine) {
	r.GET("/healthz", g.healthz)

	for _, name := range g.Names() {
		hs := append([]gin.HandlerFunc{tag(name)}, g.functions[name].Handlers(g.verifier)...)
		r.Any("/"+name, hs...)
		r.Any(PathPrefix+"/"+name, hs...)
	}
	r.NoRoute(g.notFound)
}

func tag(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.SetFunction(c, name)
		c.Next()
	}
}

// FunctionName extracts the function segment from a request path.
func FunctionName(path string) string {
	p := strings.TrimPrefix(path, PathPrefix)
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

func (g *Gateway) notFound(c *gin.Context) {
	name := FunctionName(c.Request.URL.Path)
	if name == "" {
		httpapi.GatewayError("missing function name in request", http.StatusBadRequest).Write(c)
		return
	}
	logger.FromGin(c).Warn("unknown function", "name", name)
	httpapi.GatewayError("function not found: "+name, http.StatusInternalServerError).Write(c)
}

func (g *Gateway) healthz(c *gin.Context) {
	if g.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := g.health(ctx); err != nil {
			logger.FromGin(c).Error("health check failed", "err", err)
			httpapi.GatewayError("unhealthy", http.StatusServiceUnavailable).Write(c)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
