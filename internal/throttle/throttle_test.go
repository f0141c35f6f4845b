package throttle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"edge-gateway/internal/auth"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fakeScripter evaluates the two counter scripts in memory.
type fakeScripter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeScripter() *fakeScripter { return &fakeScripter{counts: map[string]int64{}} }

func (f *fakeScripter) run(ctx context.Context, sha string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	k := keys[0]
	switch sha {
	case acquireScript.Hash():
		limit := int64(args[0].(int))
		f.counts[k]++
		if f.counts[k] > limit {
			f.counts[k]--
			cmd.SetVal(int64(0))
			return cmd
		}
		cmd.SetVal(int64(1))
	case releaseScript.Hash():
		f.counts[k]--
		if f.counts[k] <= 0 {
			delete(f.counts, k)
		}
		cmd.SetVal(int64(1))
	default:
		cmd.SetErr(errors.New("NOSCRIPT unknown script"))
	}
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, "", keys, args...)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, sha1, keys, args...)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, "", keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, sha1, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func TestRedisLimiter_AcquireRelease(t *testing.T) {
	rdb := newFakeScripter()
	l, err := NewRedisLimiter(rdb, 2, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	ctx := context.Background()

	r1, ok, err := l.Acquire(ctx, "sub:a")
	if err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	_, ok, _ = l.Acquire(ctx, "sub:a")
	if !ok {
		t.Fatalf("second acquire should succeed")
	}
	if _, ok, _ := l.Acquire(ctx, "sub:a"); ok {
		t.Fatalf("third acquire should be rejected")
	}
	// Other callers are independent.
	if _, ok, _ := l.Acquire(ctx, "sub:b"); !ok {
		t.Fatalf("other key should acquire")
	}

	if err := r1(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := l.Acquire(ctx, "sub:a"); !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

func TestRedisLimiter_Validation(t *testing.T) {
	if _, err := NewRedisLimiter(nil, 1, time.Second); err == nil {
		t.Fatalf("expected nil client error")
	}
	if _, err := NewRedisLimiter(newFakeScripter(), 0, time.Second); err == nil {
		t.Fatalf("expected limit error")
	}
	if _, err := NewRedisLimiter(newFakeScripter(), 1, 0); err == nil {
		t.Fatalf("expected ttl error")
	}
	l, _ := NewRedisLimiter(newFakeScripter(), 1, time.Second)
	if _, _, err := l.Acquire(context.Background(), ""); err == nil {
		t.Fatalf("expected empty key error")
	}
}

// gate is a Limiter whose answers are scripted by the test.
type gate struct {
	mu         sync.Mutex
	ok         bool
	err        error
	releaseErr error
	keys       []string
	released   int
}

func (g *gate) Acquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, key)
	if g.err != nil || !g.ok {
		return nil, false, g.err
	}
	return func(context.Context) error {
		g.mu.Lock()
		g.released++
		g.mu.Unlock()
		return g.releaseErr
	}, true, nil
}

func engine(l Limiter, claims *auth.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/fn", func(c *gin.Context) {
		if claims != nil {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "t", *claims))
		}
		c.Next()
	}, Middleware(l), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func post(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fn", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_Rejects(t *testing.T) {
	g := &gate{ok: false}
	w := post(engine(g, nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["msg"] == "" || body["error"] != "" {
		t.Fatalf("expected gateway dialect, got %s", w.Body.String())
	}
	if g.keys[0] != "anon:203.0.113.7" {
		t.Fatalf("unexpected key %q", g.keys[0])
	}
}

func TestMiddleware_AllowsAndReleases(t *testing.T) {
	g := &gate{ok: true}
	claims := auth.Claims{Role: "authenticated", Subject: "u-1"}
	w := post(engine(g, &claims))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if g.released != 1 {
		t.Fatalf("expected one release, got %d", g.released)
	}
	if g.keys[0] != "sub:u-1" {
		t.Fatalf("unexpected key %q", g.keys[0])
	}
}

func TestMiddleware_FailsOpen(t *testing.T) {
	g := &gate{err: errors.New("redis down")}
	if w := post(engine(g, nil)); w.Code != 200 {
		t.Fatalf("expected fail-open 200, got %d", w.Code)
	}
	if w := post(engine(nil, nil)); w.Code != 200 {
		t.Fatalf("nil limiter must be a no-op, got %d", w.Code)
	}
}

func TestRedisLimiter_ReleaseReportsError(t *testing.T) {
	rdb := newFakeScripter()
	l, _ := NewRedisLimiter(rdb, 1, time.Minute)
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "sub:a")
	if err != nil || !ok {
		t.Fatalf("acquire: %v %v", ok, err)
	}
	rdb.mu.Lock()
	rdb.err = errors.New("connection reset")
	rdb.mu.Unlock()
	if err := release(ctx); err == nil {
		t.Fatalf("expected release error")
	}
}

func TestMiddleware_LogsFailedRelease(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	g := &gate{ok: true, releaseErr: errors.New("connection reset")}

	r := gin.New()
	r.POST("/fn", logger.Middleware(logger.NewWithWriter("development", &buf)), Middleware(g), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	if w := post(r); w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if g.released != 1 {
		t.Fatalf("expected one release, got %d", g.released)
	}
	if !strings.Contains(buf.String(), "throttle release failed") || !strings.Contains(buf.String(), "connection reset") {
		t.Fatalf("expected release failure in log, got %s", buf.String())
	}
}
