package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/voyago/trip-planner/internal/store"
	"github.com/voyago/trip-planner/internal/store/storetest"
)

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("TRIP_PLANNER_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRIP_PLANNER_POSTGRES_DSN not set; skipping postgres store integration test")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	if err := Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("postgres bootstrap: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
