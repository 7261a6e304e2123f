package seed

import (
	"database/sql"
	"fmt"
)

// partType is one seeded catalog entry: the worker-facing name, the volume
// formula over the canonical variable vocabulary, and the input hint shown
// next to the measurement cell.
type partType struct {
	name    string
	formula string
	hint    string
}

var defaultPartTypes = []partType{
	{"plate", "length*width*height", "100*50*10"},
	{"sawn-square", "length*width*height", "35*35*120"},
	{"round-bar", "pi*radius*radius*height", "φ20*30"},
	{"disc-from-plate", "diameter*diameter*thickness", "φ160*12"},
	{"ring", "pi*(outerRadius*outerRadius-innerRadius*innerRadius)*height", "φ60-40*15"},
	{"tube", "pi*(outerRadius*outerRadius-innerRadius*innerRadius)*length", "φ48.6-41.2*500"},
}

type material struct {
	name      string
	density   float64 // g/cm^3
	unitPrice float64 // opening price per kg
}

var defaultMaterials = []material{
	{"S45C", 7.85, 185},
	{"SS400", 7.85, 160},
	{"SUS304", 7.93, 520},
	{"A5052", 2.68, 640},
	{"C3604", 8.50, 980},
}

// seedEpoch is the effective start used for opening price records.
const seedEpoch = "2024-01-01"

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way: catalog part types
// with their volume formulas, a small material catalog with densities, and
// one open-ended opening price record per material.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensurePartTypes(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMaterials(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensurePartTypes(tx *sql.Tx, stats *Stats) error {
	for _, pt := range defaultPartTypes {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM part_types WHERE name = ? LIMIT 1)`, pt.name).Scan(&exists); err != nil {
			return fmt.Errorf("check part type %q: %w", pt.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO part_types (name, volume_formula, input_hint, active)
			VALUES (?, ?, ?, TRUE)
		`, pt.name, pt.formula, pt.hint); err != nil {
			return fmt.Errorf("insert part type %q: %w", pt.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureMaterials(tx *sql.Tx, stats *Stats) error {
	for _, m := range defaultMaterials {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM materials WHERE name = ? LIMIT 1)`, m.name).Scan(&exists); err != nil {
			return fmt.Errorf("check material %q: %w", m.name, err)
		}
		if exists {
			continue
		}

		res, err := tx.Exec(`
			INSERT INTO materials (name, density, active)
			VALUES (?, ?, TRUE)
		`, m.name, m.density)
		if err != nil {
			return fmt.Errorf("insert material %q: %w", m.name, err)
		}
		stats.Inserts++

		materialID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("material %q insert id: %w", m.name, err)
		}

		if _, err := tx.Exec(`
			INSERT INTO price_records (material_id, unit_price, effective_start, effective_end)
			VALUES (?, ?, ?, NULL)
		`, materialID, m.unitPrice, seedEpoch); err != nil {
			return fmt.Errorf("insert opening price for %q: %w", m.name, err)
		}
		stats.Inserts++
	}
	return nil
}
