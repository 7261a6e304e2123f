package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/kajiwara-mfg/tetsuba/internal/db"
	"github.com/kajiwara-mfg/tetsuba/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(database)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			// 6 part types + 5 materials + 5 opening price records.
			if stats.Inserts != 16 {
				t.Fatalf("expected 16 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM part_types`, nil, 6)
	assertCount(t, database, `SELECT COUNT(*) FROM materials`, nil, 5)
	assertCount(t, database, `SELECT COUNT(*) FROM price_records`, nil, 5)
	assertCount(t, database, `SELECT COUNT(*) FROM part_types WHERE name = ?`, "round-bar", 1)

	var formula string
	if err := database.QueryRow(`SELECT volume_formula FROM part_types WHERE name = ?`, "plate").Scan(&formula); err != nil {
		t.Fatalf("query plate formula: %v", err)
	}
	if formula != "length*width*height" {
		t.Fatalf("plate formula = %q", formula)
	}

	var open int
	if err := database.QueryRow(`SELECT COUNT(*) FROM price_records WHERE effective_end IS NULL`).Scan(&open); err != nil {
		t.Fatalf("query open price records: %v", err)
	}
	if open != 5 {
		t.Fatalf("expected every opening price to be open-ended, got %d", open)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
