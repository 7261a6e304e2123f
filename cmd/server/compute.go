package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kajiwara-mfg/tetsuba/internal/costing"
	"github.com/kajiwara-mfg/tetsuba/internal/metrics"
	"github.com/kajiwara-mfg/tetsuba/internal/shorthand"
)

// computeRow prices one order row: part type → formula, spec text →
// measurements, material → density and price history, then the pure engine.
// Lookup misses degrade to zeros inside the engine; only storage errors
// come back as errors.
func (s *server) computeRow(partType, specText string, materialID int64, quantity float64, asOf time.Time) (costing.Cost, error) {
	volumeFormula, found, err := s.getPartTypeFormula(partType)
	if err != nil {
		return costing.Cost{}, err
	}
	if !found {
		// Unknown part type: no formula, volume stays 0.
		slog.Debug("part type not in catalog", "part_type", partType)
	}

	catalog, err := s.materialCatalog()
	if err != nil {
		return costing.Cost{}, err
	}

	history, err := s.loadPriceHistory(materialID)
	if err != nil {
		return costing.Cost{}, err
	}

	unitPrice := costing.ResolvePrice(history, asOf)
	if unitPrice == 0 {
		metrics.PriceGaps.Inc()
	}

	return costing.Compute(costing.Input{
		Formula:      volumeFormula,
		Measurements: shorthand.Decode(specText, partType),
		Quantity:     quantity,
		Density:      costing.ResolveDensity(catalog, materialID),
		UnitPrice:    unitPrice,
	}), nil
}

type computeRequest struct {
	PartType   string  `json:"part_type"`
	Spec       string  `json:"spec"`
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	AsOf       string  `json:"as_of"` // optional, any common date shape
}

// handleAPICompute is the per-keystroke composition point: edit handlers
// POST the row's current state and get the recomputed cost triple back.
// Malformed measurement text is not an error, it is a zero cost.
func (s *server) handleAPICompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	asOf, err := parseDateField(req.AsOf)
	if err != nil {
		http.Error(w, "as_of must be a date", http.StatusBadRequest)
		return
	}

	cost, err := s.computeRow(req.PartType, req.Spec, req.MaterialID, req.Quantity, asOf)
	if err != nil {
		http.Error(w, "failed to compute cost", http.StatusInternalServerError)
		return
	}
	metrics.ComputeCalls.WithLabelValues("api").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cost); err != nil {
		slog.Debug("encode compute response", "err", err)
	}
}
