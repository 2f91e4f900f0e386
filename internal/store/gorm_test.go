package store

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/database"
)

func TestGormStore(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_DB")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DB not set")
	}

	db, err := database.Connect(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	runStoreSuite(t, NewGormStore(db), "alice+"+uuid.NewString()+"@example.com")
}
