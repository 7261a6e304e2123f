package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kajiwara-mfg/tetsuba/internal/formula"
)

type partTypeRow struct {
	ID            int64
	Name          string
	VolumeFormula string
	InputHint     string
	Active        bool
	Variables     []string // extracted from the formula, for the admin page
}

type partTypesViewData struct {
	baseViewData
	PartTypes []partTypeRow
}

func (s *server) handleAdminPartTypesForm(w http.ResponseWriter, r *http.Request) {
	partTypes, err := s.listPartTypes()
	if err != nil {
		http.Error(w, "failed to load part types", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin_parttypes.html", partTypesViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		PartTypes: partTypes,
	})
}

func (s *server) handleAdminPartTypesCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name, volumeFormula, inputHint, err := parsePartTypeForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/parttypes?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO part_types (name, volume_formula, input_hint, active)
		VALUES (?, ?, ?, TRUE)
	`, name, volumeFormula, inputHint)
	if err != nil {
		http.Error(w, "failed to create part type", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/parttypes?success=Part+type+created", http.StatusSeeOther)
}

func (s *server) handleAdminPartTypesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid part type id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name, volumeFormula, inputHint, err := parsePartTypeForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/parttypes?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	active := r.FormValue("active") == "1"

	result, err := s.db.Exec(`
		UPDATE part_types
		SET
			name = ?,
			volume_formula = ?,
			input_hint = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, volumeFormula, inputHint, active, id)
	if err != nil {
		http.Error(w, "failed to update part type", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		http.Error(w, "failed to update part type", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/admin/parttypes?success=Part+type+updated", http.StatusSeeOther)
}

func parsePartTypeForm(r *http.Request) (name, volumeFormula, inputHint string, err error) {
	name = strings.TrimSpace(r.FormValue("name"))
	volumeFormula = strings.TrimSpace(r.FormValue("volume_formula"))
	inputHint = strings.TrimSpace(r.FormValue("input_hint"))

	if name == "" {
		return "", "", "", fmt.Errorf("name is required")
	}
	if volumeFormula == "" {
		return "", "", "", fmt.Errorf("volume_formula is required")
	}
	return name, volumeFormula, inputHint, nil
}

func (s *server) listPartTypes() ([]partTypeRow, error) {
	rows, err := s.db.Query(`
		SELECT id, name, volume_formula, COALESCE(input_hint, ''), active
		FROM part_types
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query part types: %w", err)
	}
	defer rows.Close()

	partTypes := make([]partTypeRow, 0)
	for rows.Next() {
		var pt partTypeRow
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.VolumeFormula, &pt.InputHint, &pt.Active); err != nil {
			return nil, fmt.Errorf("scan part type: %w", err)
		}
		pt.Variables = formula.ExtractVariableNames(pt.VolumeFormula)
		partTypes = append(partTypes, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate part types: %w", err)
	}

	return partTypes, nil
}

// getPartTypeFormula resolves the volume formula for an active part type.
// A missing part type returns ok=false and the caller degrades to volume 0.
func (s *server) getPartTypeFormula(name string) (string, bool, error) {
	var volumeFormula string
	err := s.db.QueryRow(`
		SELECT volume_formula FROM part_types WHERE name = ? AND active = TRUE
	`, name).Scan(&volumeFormula)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query part type formula: %w", err)
	}
	return volumeFormula, true, nil
}
