// Package report renders cutting orders with their computed weights and
// prices into an xlsx workbook for the office side.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Orders"

// Row is one cutting order as it appears on the report sheet.
type Row struct {
	Title       string
	Material    string
	PartType    string
	SpecText    string
	Quantity    float64
	TotalWeight float64 // kg
	UnitPrice   float64
	TotalPrice  float64
}

var header = []string{
	"Title", "Material", "Part type", "Spec", "Qty",
	"Total weight (kg)", "Unit price", "Total price",
}

// Workbook builds an xlsx file with one row per cutting order plus a grand
// total line. The caller owns the returned file and should Close it.
func Workbook(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename report sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	var grandWeight, grandPrice float64
	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{
			r.Title, r.Material, r.PartType, r.SpecText, r.Quantity,
			r.TotalWeight, r.UnitPrice, r.TotalPrice,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write report row %d: %w", i+1, err)
		}
		grandWeight += r.TotalWeight
		grandPrice += r.TotalPrice
	}

	totalCell := fmt.Sprintf("A%d", len(rows)+2)
	totals := []any{"Total", "", "", "", "", grandWeight, "", grandPrice}
	if err := f.SetSheetRow(sheetName, totalCell, &totals); err != nil {
		return nil, fmt.Errorf("write report total row: %w", err)
	}

	return f, nil
}
