package database

import (
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

func TestMaintenanceDSN(t *testing.T) {
	cases := []struct {
		dsn    string
		master string
		name   string
		ok     bool
	}{
		{
			dsn:    "postgres://u:p@localhost:5432/storefront?sslmode=disable",
			master: "postgres://u:p@localhost:5432/postgres?sslmode=disable",
			name:   "storefront",
			ok:     true,
		},
		{
			dsn:    "postgresql://localhost/shop",
			master: "postgresql://localhost/postgres",
			name:   "shop",
			ok:     true,
		},
		{dsn: "host=localhost dbname=shop", ok: false},
		{dsn: "postgres://localhost:5432", ok: false},
		{dsn: "postgres://localhost:5432/postgres", ok: false},
	}

	for _, tc := range cases {
		master, name, ok := maintenanceDSN(tc.dsn)
		if ok != tc.ok || master != tc.master || name != tc.name {
			t.Fatalf("%s: got (%q, %q, %v), want (%q, %q, %v)", tc.dsn, master, name, ok, tc.master, tc.name, tc.ok)
		}
	}
}

func TestGormLogLevel(t *testing.T) {
	if got := gormLogLevel(zerolog.DebugLevel); got != logger.Info {
		t.Fatalf("debug should map to info, got %v", got)
	}
	if got := gormLogLevel(zerolog.InfoLevel); got != logger.Warn {
		t.Fatalf("info should map to warn, got %v", got)
	}
	if got := gormLogLevel(zerolog.ErrorLevel); got != logger.Error {
		t.Fatalf("error should map to error, got %v", got)
	}
}
