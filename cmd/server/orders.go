package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kajiwara-mfg/tetsuba/internal/metrics"
	"github.com/kajiwara-mfg/tetsuba/internal/report"
)

type orderRow struct {
	ID          int64
	Title       string
	MaterialID  int64
	Material    string
	PartType    string
	SpecText    string
	Quantity    float64
	TotalWeight float64
	UnitPrice   float64
	TotalPrice  float64
	Notes       string
	CreatedAt   string
}

type ordersViewData struct {
	baseViewData
	Query     string
	Orders    []orderRow
	Materials []materialRow
	PartTypes []partTypeRow
}

type orderForm struct {
	Title      string
	MaterialID int64
	PartType   string
	SpecText   string
	Quantity   float64
	Notes      string
}

func (s *server) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	orders, err := s.listOrders(query)
	if err != nil {
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}

	materials, err := s.listMaterials()
	if err != nil {
		http.Error(w, "failed to load materials", http.StatusInternalServerError)
		return
	}

	partTypes, err := s.listPartTypes()
	if err != nil {
		http.Error(w, "failed to load part types", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "orders.html", ordersViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Query:     query,
		Orders:    orders,
		Materials: materials,
		PartTypes: partTypes,
	})
}

func (s *server) handleOrdersCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form, err := parseOrderForm(r)
	if err != nil {
		http.Redirect(w, r, "/orders?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	cost, err := s.computeRow(form.PartType, form.SpecText, form.MaterialID, form.Quantity, time.Now())
	if err != nil {
		http.Error(w, "failed to compute order cost", http.StatusInternalServerError)
		return
	}
	metrics.ComputeCalls.WithLabelValues("order").Inc()

	_, err = s.db.Exec(`
		INSERT INTO cutting_orders (title, material_id, part_type, spec_text, quantity, total_weight, unit_price, total_price, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, form.Title, form.MaterialID, form.PartType, form.SpecText, form.Quantity,
		cost.TotalWeight, cost.UnitPrice, cost.TotalPrice, form.Notes)
	if err != nil {
		http.Error(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/orders?success=Order+created", http.StatusSeeOther)
}

// handleOrdersUpdate rewrites a row and its denormalized cost triple. Any
// change to material, part type, spec text or quantity reprices the row.
func (s *server) handleOrdersUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form, err := parseOrderForm(r)
	if err != nil {
		http.Redirect(w, r, "/orders?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	cost, err := s.computeRow(form.PartType, form.SpecText, form.MaterialID, form.Quantity, time.Now())
	if err != nil {
		http.Error(w, "failed to compute order cost", http.StatusInternalServerError)
		return
	}
	metrics.ComputeCalls.WithLabelValues("order").Inc()

	result, err := s.db.Exec(`
		UPDATE cutting_orders
		SET
			title = ?,
			material_id = ?,
			part_type = ?,
			spec_text = ?,
			quantity = ?,
			total_weight = ?,
			unit_price = ?,
			total_price = ?,
			notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, form.Title, form.MaterialID, form.PartType, form.SpecText, form.Quantity,
		cost.TotalWeight, cost.UnitPrice, cost.TotalPrice, form.Notes, id)
	if err != nil {
		http.Error(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		http.Error(w, "failed to update order", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/orders?success=Order+updated", http.StatusSeeOther)
}

func (s *server) handleOrdersReport(w http.ResponseWriter, r *http.Request) {
	orders, err := s.listOrders("")
	if err != nil {
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}

	rows := make([]report.Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, report.Row{
			Title:       o.Title,
			Material:    o.Material,
			PartType:    o.PartType,
			SpecText:    o.SpecText,
			Quantity:    o.Quantity,
			TotalWeight: o.TotalWeight,
			UnitPrice:   o.UnitPrice,
			TotalPrice:  o.TotalPrice,
		})
	}

	f, err := report.Workbook(rows)
	if err != nil {
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	metrics.ComputeCalls.WithLabelValues("report").Inc()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	if err := f.Write(w); err != nil {
		// Headers are out; nothing sensible left to send.
		return
	}
}

func parseOrderForm(r *http.Request) (orderForm, error) {
	form := orderForm{
		Title:    strings.TrimSpace(r.FormValue("title")),
		PartType: strings.TrimSpace(r.FormValue("part_type")),
		SpecText: strings.TrimSpace(r.FormValue("spec_text")),
		Notes:    strings.TrimSpace(r.FormValue("notes")),
	}

	if form.Title == "" {
		return form, fmt.Errorf("title is required")
	}

	materialID, err := parseNonNegativeFloat(r.FormValue("material_id"), "material_id")
	if err != nil {
		return form, err
	}
	form.MaterialID = int64(materialID)

	// Quantity may legitimately be 0 while the row is being filled in.
	quantity, err := parseNonNegativeFloat(r.FormValue("quantity"), "quantity")
	if err != nil {
		return form, err
	}
	form.Quantity = quantity

	return form, nil
}

func (s *server) listOrders(query string) ([]orderRow, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT
			o.id,
			o.title,
			COALESCE(o.material_id, 0),
			COALESCE(m.name, ''),
			o.part_type,
			o.spec_text,
			o.quantity,
			o.total_weight,
			o.unit_price,
			o.total_price,
			COALESCE(o.notes, ''),
			o.created_at
		FROM cutting_orders o
		LEFT JOIN materials m ON m.id = o.material_id
		WHERE (? = '' OR o.title LIKE ? OR COALESCE(o.notes, '') LIKE ?)
		ORDER BY datetime(o.created_at) DESC, o.id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]orderRow, 0)
	for rows.Next() {
		var o orderRow
		if err := rows.Scan(
			&o.ID, &o.Title, &o.MaterialID, &o.Material, &o.PartType, &o.SpecText,
			&o.Quantity, &o.TotalWeight, &o.UnitPrice, &o.TotalPrice, &o.Notes, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}
