package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/settings"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/storage"
)

func TestOpenStoreMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opened, err := openStore(context.Background(), settings.Settings{StoreDriver: storage.DriverMemory}, logger)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer opened.close()
	if _, ok := opened.store.(*storage.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", opened.store)
	}
	if opened.pool != nil || len(opened.ready) != 0 {
		t.Fatal("memory store needs no pool or ready checks")
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := openStore(context.Background(), settings.Settings{StoreDriver: "cassandra"}, logger); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
