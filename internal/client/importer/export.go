package importer

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet = "Passengers"
	tourSheet   = "Tour"
)

var exportHeader = []any{"#", "Name", "Passport", "Phone", "Checked", "Visa", "List"}

// WriteXLSX writes the passenger list to the first sheet, in a layout
// ParseXLSX reads back, and the tour metadata to a second sheet.
func WriteXLSX(w io.Writer, meta models.TourMeta, passengers []models.Passenger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range passengers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{i + 1, p.Label(), p.Passport, p.Phone, yesNo(p.Checked), yesNo(p.VisaFlag), p.List}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size column: %w", err)
	}

	if _, err := f.NewSheet(tourSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	info := [][]any{
		{"Code", meta.Code},
		{"Agency", meta.Agency},
		{"Group", meta.Group},
		{"Date", meta.DateKey},
	}
	for i, row := range info {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(tourSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write tour info: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
