package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestFirestoreStoreContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	store, err := OpenFirestore(ctx, FirestoreOptions{
		ProjectID:  "scheduling-test",
		Collection: fmt.Sprintf("events_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("OpenFirestore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	runStoreContract(t, store)
}

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := OpenMongo(ctx, MongoOptions{
		URI:        uri,
		Database:   "scheduling_test",
		Collection: fmt.Sprintf("events_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("OpenMongo failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.coll.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	runStoreContract(t, store)
}
