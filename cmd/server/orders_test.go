package main

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/kajiwara-mfg/tetsuba/internal/db"
	"github.com/kajiwara-mfg/tetsuba/internal/migrations"
	"github.com/kajiwara-mfg/tetsuba/internal/seed"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	return &server{db: database}
}

func materialID(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	var id int64
	if err := database.QueryRow(`SELECT id FROM materials WHERE name = ?`, name).Scan(&id); err != nil {
		t.Fatalf("lookup material %q: %v", name, err)
	}
	return id
}

func costNearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeRow_SteelPlateAgainstSeededCatalog(t *testing.T) {
	srv := newTestServer(t)
	s45c := materialID(t, srv.db, "S45C")

	cost, err := srv.computeRow("plate", "100*50*10", s45c, 4, time.Now())
	if err != nil {
		t.Fatalf("computeRow returned error: %v", err)
	}

	costNearlyEqual(t, "unitVolume", cost.UnitVolume, 50000)
	costNearlyEqual(t, "totalWeight", cost.TotalWeight, 1.57)
	costNearlyEqual(t, "unitPrice", cost.UnitPrice, 185) // seeded opening price
	costNearlyEqual(t, "totalPrice", cost.TotalPrice, 290.45)
}

func TestComputeRow_RoundBarUsesDerivedRadius(t *testing.T) {
	srv := newTestServer(t)
	s45c := materialID(t, srv.db, "S45C")

	cost, err := srv.computeRow("round-bar", "φ20*30", s45c, 1, time.Now())
	if err != nil {
		t.Fatalf("computeRow returned error: %v", err)
	}

	wantVolume := 3.141592653589793 * 10 * 10 * 30
	costNearlyEqual(t, "unitVolume", cost.UnitVolume, wantVolume)
}

func TestComputeRow_HalfTypedSpecIsZeroNotError(t *testing.T) {
	srv := newTestServer(t)
	s45c := materialID(t, srv.db, "S45C")

	for _, spec := range []string{"", "100*", "100*50", "φ", "abc"} {
		cost, err := srv.computeRow("plate", spec, s45c, 4, time.Now())
		if err != nil {
			t.Fatalf("computeRow(%q) returned error: %v", spec, err)
		}
		if cost.TotalPrice != 0 || cost.TotalWeight != 0 {
			t.Fatalf("computeRow(%q) = %+v, want zero cost", spec, cost)
		}
	}
}

func TestComputeRow_UnknownPartTypeIsZero(t *testing.T) {
	srv := newTestServer(t)
	s45c := materialID(t, srv.db, "S45C")

	cost, err := srv.computeRow("hexagon", "100*50*10", s45c, 4, time.Now())
	if err != nil {
		t.Fatalf("computeRow returned error: %v", err)
	}
	if cost.UnitVolume != 0 || cost.TotalPrice != 0 {
		t.Fatalf("unknown part type should price to zero, got %+v", cost)
	}
}

func TestComputeRow_UnknownMaterialFallsBackToSteel(t *testing.T) {
	srv := newTestServer(t)

	cost, err := srv.computeRow("plate", "100*50*10", 9999, 4, time.Now())
	if err != nil {
		t.Fatalf("computeRow returned error: %v", err)
	}
	// Steel fallback density keeps the weight estimate alive...
	costNearlyEqual(t, "totalWeight", cost.TotalWeight, 1.57)
	// ...but there is no price history for an unknown material.
	costNearlyEqual(t, "totalPrice", cost.TotalPrice, 0)
}

func TestListOrders_FilterAndOrder(t *testing.T) {
	srv := newTestServer(t)
	s45c := materialID(t, srv.db, "S45C")

	seedOrder(t, srv.db, "2024-01-01 10:00:00", "Bracket", "rush job", s45c)
	seedOrder(t, srv.db, "2024-01-03 12:00:00", "Bushing", "for the crane", s45c)
	seedOrder(t, srv.db, "2024-01-02 11:00:00", "Spacer", "bracket spares", s45c)

	orders, err := srv.listOrders("")
	if err != nil {
		t.Fatalf("listOrders returned error: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].Title != "Bushing" || orders[1].Title != "Spacer" || orders[2].Title != "Bracket" {
		t.Fatalf("orders are not sorted desc by created_at: %+v", orders)
	}
	if orders[0].Material != "S45C" {
		t.Fatalf("material name not joined: %+v", orders[0])
	}

	filtered, err := srv.listOrders("racket")
	if err != nil {
		t.Fatalf("listOrders filter returned error: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 orders matching title or notes, got %+v", filtered)
	}
}

func seedOrder(t *testing.T, database *sql.DB, createdAt, title, notes string, materialID int64) {
	t.Helper()

	_, err := database.Exec(`
		INSERT INTO cutting_orders (title, material_id, part_type, spec_text, quantity, notes, created_at)
		VALUES (?, ?, 'plate', '100*50*10', 1, ?, ?)
	`, title, materialID, notes, createdAt)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
}
