package postgres

import (
	"context"
	"os"
	"testing"

	"finboard/internal/store/storetest"
)

// Runs against a disposable database named by FINBOARD_TEST_DATABASE_URL.
func TestPostgresStoreContract(t *testing.T) {
	url := os.Getenv("FINBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINBOARD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"financial_habits", "financial_goals", "transactions", "profiles", "users"} {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	storetest.Run(t, s)
}
