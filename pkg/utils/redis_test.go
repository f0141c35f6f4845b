package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRedisDefaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379", MinIdleConns: -1}.withDefaults()
	if c.MinIdleConns != 0 || c.PoolSize != 20 || c.ReadTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); !errors.Is(err, ErrRedisAddrRequired) {
		t.Fatalf("expected ErrRedisAddrRequired, got %v", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	rdb, err := NewRedisClient(RedisConfig{Addr: "127.0.0.1:6390", DB: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()
	if rdb.Options().DB != 2 || rdb.Options().Addr != "127.0.0.1:6390" {
		t.Fatalf("unexpected options %+v", rdb.Options())
	}
}
