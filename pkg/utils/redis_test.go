package utils

import (
	"testing"
	"time"
)

func TestRedisConfigDefaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.DialTimeout != 3*time.Second {
		t.Fatalf("dial timeout = %v", c.DialTimeout)
	}
	if c.PoolSize != 20 {
		t.Fatalf("pool size = %d", c.PoolSize)
	}
	if c.PingTimeout != 2*time.Second {
		t.Fatalf("ping timeout = %v", c.PingTimeout)
	}
}
