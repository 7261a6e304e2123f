package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/kajiwara-mfg/tetsuba/internal/costing"
)

type materialRow struct {
	ID      int64
	Name    string
	Density float64
	Notes   string
	Active  bool
}

type materialsViewData struct {
	baseViewData
	Materials []materialRow
}

type priceRow struct {
	UnitPrice      float64
	EffectiveStart string
	EffectiveEnd   string // empty means open-ended
}

type pricesViewData struct {
	baseViewData
	Material materialRow
	Prices   []priceRow
	Current  float64 // resolved for today
}

func (s *server) handleAdminMaterialsForm(w http.ResponseWriter, r *http.Request) {
	materials, err := s.listMaterials()
	if err != nil {
		http.Error(w, "failed to load materials", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_materials.html", materialsViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Materials: materials,
	})
}

func (s *server) handleAdminMaterialsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	notes := strings.TrimSpace(r.FormValue("notes"))
	if name == "" {
		http.Redirect(w, r, "/admin/materials?error=name+is+required", http.StatusSeeOther)
		return
	}

	density, err := parsePositiveFloat(r.FormValue("density"), "density")
	if err != nil {
		http.Redirect(w, r, "/admin/materials?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO materials (name, density, notes, active)
		VALUES (?, ?, ?, TRUE)
	`, name, density, notes)
	if err != nil {
		http.Error(w, "failed to create material", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/materials?success=Material+created", http.StatusSeeOther)
}

func (s *server) handleAdminMaterialsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid material id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	notes := strings.TrimSpace(r.FormValue("notes"))
	if name == "" {
		http.Redirect(w, r, "/admin/materials?error=name+is+required", http.StatusSeeOther)
		return
	}

	density, err := parsePositiveFloat(r.FormValue("density"), "density")
	if err != nil {
		http.Redirect(w, r, "/admin/materials?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	active := r.FormValue("active") == "1"

	result, err := s.db.Exec(`
		UPDATE materials
		SET
			name = ?,
			density = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, density, notes, active, id)
	if err != nil {
		http.Error(w, "failed to update material", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		http.Error(w, "failed to update material", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/admin/materials?success=Material+updated", http.StatusSeeOther)
}

func (s *server) handleMaterialPricesForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid material id", http.StatusBadRequest)
		return
	}

	material, err := s.getMaterial(id)
	if err != nil {
		http.Error(w, "failed to load material", http.StatusInternalServerError)
		return
	}
	if material == nil {
		http.NotFound(w, r)
		return
	}

	prices, err := s.listPriceRows(id)
	if err != nil {
		http.Error(w, "failed to load price history", http.StatusInternalServerError)
		return
	}

	history, err := s.loadPriceHistory(id)
	if err != nil {
		http.Error(w, "failed to load price history", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_prices.html", pricesViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Material: *material,
		Prices:   prices,
		Current:  costing.ResolvePrice(history, time.Now()),
	})
}

// handleMaterialPricesCreate appends a price record. The history is
// append-only: nothing is updated or deleted, overlap is resolved at read
// time by ResolvePrice.
func (s *server) handleMaterialPricesCreate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid material id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	redirect := fmt.Sprintf("/admin/materials/%d/prices", id)

	unitPrice, err := parseNonNegativeFloat(r.FormValue("unit_price"), "unit_price")
	if err != nil {
		http.Redirect(w, r, redirect+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	start, err := parseDateField(r.FormValue("effective_start"))
	if err != nil || start.IsZero() {
		http.Redirect(w, r, redirect+"?error=effective_start+must+be+a+date", http.StatusSeeOther)
		return
	}

	var end any
	if raw := strings.TrimSpace(r.FormValue("effective_end")); raw != "" {
		endDate, err := parseDateField(raw)
		if err != nil {
			http.Redirect(w, r, redirect+"?error=effective_end+must+be+a+date", http.StatusSeeOther)
			return
		}
		end = endDate.Format("2006-01-02")
	}

	_, err = s.db.Exec(`
		INSERT INTO price_records (material_id, unit_price, effective_start, effective_end)
		VALUES (?, ?, ?, ?)
	`, id, unitPrice, start.Format("2006-01-02"), end)
	if err != nil {
		http.Error(w, "failed to create price record", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirect+"?success=Price+recorded", http.StatusSeeOther)
}

// parseDateField accepts whatever date shape the office side pastes in
// (2025-06-07, 07.06.2025, Jun 7 2025, ...) and normalizes it.
func parseDateField(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return dateparse.ParseAny(raw)
}

func (s *server) listMaterials() ([]materialRow, error) {
	rows, err := s.db.Query(`
		SELECT id, name, density, COALESCE(notes, ''), active
		FROM materials
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]materialRow, 0)
	for rows.Next() {
		var m materialRow
		if err := rows.Scan(&m.ID, &m.Name, &m.Density, &m.Notes, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

func (s *server) getMaterial(id int64) (*materialRow, error) {
	var m materialRow
	err := s.db.QueryRow(`
		SELECT id, name, density, COALESCE(notes, ''), active
		FROM materials
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Density, &m.Notes, &m.Active)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query material: %w", err)
	}
	return &m, nil
}

// materialCatalog loads the catalog in the shape the costing engine takes.
func (s *server) materialCatalog() ([]costing.Material, error) {
	rows, err := s.db.Query(`SELECT id, name, density FROM materials WHERE active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("query material catalog: %w", err)
	}
	defer rows.Close()

	var catalog []costing.Material
	for rows.Next() {
		var m costing.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Density); err != nil {
			return nil, fmt.Errorf("scan material catalog: %w", err)
		}
		catalog = append(catalog, m)
	}
	return catalog, rows.Err()
}

func (s *server) listPriceRows(materialID int64) ([]priceRow, error) {
	rows, err := s.db.Query(`
		SELECT unit_price, effective_start, COALESCE(effective_end, '')
		FROM price_records
		WHERE material_id = ?
		ORDER BY effective_start DESC, id DESC
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("query price rows: %w", err)
	}
	defer rows.Close()

	prices := make([]priceRow, 0)
	for rows.Next() {
		var p priceRow
		if err := rows.Scan(&p.UnitPrice, &p.EffectiveStart, &p.EffectiveEnd); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// loadPriceHistory reads one material's full history in the shape
// ResolvePrice takes. Rows with unparseable dates are skipped rather than
// failing the whole lookup.
func (s *server) loadPriceHistory(materialID int64) ([]costing.PriceRecord, error) {
	rows, err := s.db.Query(`
		SELECT unit_price, effective_start, effective_end
		FROM price_records
		WHERE material_id = ?
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var history []costing.PriceRecord
	for rows.Next() {
		var (
			unitPrice float64
			startRaw  string
			endRaw    sql.NullString
		)
		if err := rows.Scan(&unitPrice, &startRaw, &endRaw); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}

		start, err := time.Parse("2006-01-02", startRaw)
		if err != nil {
			continue
		}

		record := costing.PriceRecord{
			MaterialID:     materialID,
			UnitPrice:      unitPrice,
			EffectiveStart: start,
		}
		if endRaw.Valid && endRaw.String != "" {
			if end, err := time.Parse("2006-01-02", endRaw.String); err == nil {
				record.EffectiveEnd = &end
			}
		}
		history = append(history, record)
	}

	return history, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
