package db

import (
	"context"
	"testing"
	"time"
)

func TestPoolOptionsDefaults(t *testing.T) {
	got := PoolOptions{MinConns: 20, MaxConns: 5}.withDefaults()
	if got.MaxConns != 5 || got.MinConns != 5 {
		t.Fatalf("expected min clamped to max, got %+v", got)
	}
	got = PoolOptions{}.withDefaults()
	if got.MaxConns != 10 || got.MinConns != 1 || got.MaxConnLifetime != 30*time.Minute || got.MaxConnIdleTime != 5*time.Minute {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "://not-a-url", PoolOptions{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadyCheckWithoutPool(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
