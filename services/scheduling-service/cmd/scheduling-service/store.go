package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/db"
	"github.com/Satyamdhote/appointment-scheduling-backend/libs/runtime"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/outbox"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/settings"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/storage"
)

// openedStore is an event store plus what main needs to run and stop it.
type openedStore struct {
	store storage.EventStore
	ready []runtime.ReadyCheck
	// pool is set for postgres; the outbox publisher drains from it.
	pool  *db.Pool
	close func()
}

func openStore(ctx context.Context, cfg settings.Settings, logger *slog.Logger) (openedStore, error) {
	switch cfg.StoreDriver {
	case storage.DriverMemory:
		logger.Warn("using in-memory event store; bookings are lost on restart")
		return openedStore{store: storage.NewMemoryStore(), close: func() {}}, nil

	case storage.DriverPostgres:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			return openedStore{}, fmt.Errorf("postgres: %w", err)
		}
		return openedStore{
			store: storage.NewPostgresStore(pool, outbox.NewRepository()),
			ready: []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
			pool:  pool,
			close: pool.Close,
		}, nil

	case storage.DriverFirestore:
		fs, err := storage.OpenFirestore(ctx, storage.FirestoreOptions{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentials,
			Collection:      cfg.Collection,
		})
		if err != nil {
			return openedStore{}, fmt.Errorf("firestore: %w", err)
		}
		return openedStore{
			store: fs,
			ready: []runtime.ReadyCheck{{Name: "firestore", Check: fs.Ping}},
			close: func() { _ = fs.Close() },
		}, nil

	case storage.DriverMongo:
		ms, err := storage.OpenMongo(ctx, storage.MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.Collection,
		})
		if err != nil {
			return openedStore{}, fmt.Errorf("mongo: %w", err)
		}
		return openedStore{
			store: ms,
			ready: []runtime.ReadyCheck{{Name: "mongo", Check: ms.Ping}},
			close: func() { _ = ms.Close(context.Background()) },
		}, nil
	}
	return openedStore{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
