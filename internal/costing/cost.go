package costing

import (
	"log/slog"
	"math"

	"github.com/kajiwara-mfg/tetsuba/internal/formula"
)

// Material is one entry of the material catalog handed to the engine.
// Density is g/cm³.
type Material struct {
	ID      int64
	Name    string
	Density float64
}

// FallbackDensity is standard carbon steel in g/cm³, used when a material
// cannot be resolved so an estimate is still produced instead of blocking
// the row.
const FallbackDensity = 7.85

// kgPerMM3Density converts volume in mm³ times density in g/cm³ to
// kilograms: 1 cm³ = 1000 mm³ and 1 kg = 1000 g. This is the single place
// the unit convention is applied.
const kgPerMM3Density = 1.0 / (1000 * 1000)

// ResolveDensity returns the density for id from the catalog. Unknown ids
// fall back to FallbackDensity; the substitution is logged so estimates made
// on the fallback can be told apart from correctly-resolved ones.
func ResolveDensity(catalog []Material, id int64) float64 {
	for _, m := range catalog {
		if m.ID == id {
			return m.Density
		}
	}
	slog.Warn("material not in catalog, using steel fallback density",
		"material_id", id, "density", FallbackDensity)
	return FallbackDensity
}

// UnitWeight converts one part's volume (mm³) and material density (g/cm³)
// to kilograms.
func UnitWeight(volumeMM3, density float64) float64 {
	return volumeMM3 * density * kgPerMM3Density
}

// TotalWeight is unit weight times quantity; a non-positive quantity means
// the row is not yet filled in and weighs nothing.
func TotalWeight(unitWeight, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return unitWeight * quantity
}

// ComputeCost is the aggregation boundary: total weight times unit price,
// rounded to 2 decimals exactly once. Zero on either side stays zero.
func ComputeCost(totalWeight, unitPrice float64) float64 {
	if totalWeight == 0 || unitPrice == 0 {
		return 0
	}
	return round2(totalWeight * unitPrice)
}

// Input carries everything one row needs to be priced.
type Input struct {
	Formula      string
	Measurements formula.Measurements
	Quantity     float64
	Density      float64 // g/cm³
	UnitPrice    float64 // per kg
}

// Cost is the denormalized result kept in sync on the owning row. Weights
// are rounded to 3 decimals and the price to 2, here and nowhere earlier.
type Cost struct {
	UnitVolume  float64 `json:"unit_volume"` // mm³
	UnitWeight  float64 `json:"unit_weight"` // kg
	Quantity    float64 `json:"quantity"`
	TotalWeight float64 `json:"total_weight"` // kg
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Compute evaluates the volume formula and composes weight and price into a
// Cost. Every degenerate input collapses to zeros; Compute never fails.
func Compute(in Input) Cost {
	volume := formula.Evaluate(in.Formula, in.Measurements)
	unitWeight := UnitWeight(volume, in.Density)
	totalWeight := TotalWeight(unitWeight, in.Quantity)

	return Cost{
		UnitVolume:  volume,
		UnitWeight:  round3(unitWeight),
		Quantity:    in.Quantity,
		TotalWeight: round3(totalWeight),
		UnitPrice:   in.UnitPrice,
		TotalPrice:  ComputeCost(totalWeight, in.UnitPrice),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
