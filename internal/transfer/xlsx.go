package transfer

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/assetdesk/internal/models"
)

const sheetName = "Equipment"

// WriteXLSX encodes the inventory as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, items []models.Equipment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.WithStack(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	header := make([]any, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.WithStack(err)
	}
	last, _ := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return errors.WithStack(err)
	}

	for i, row := range toExportRows(items) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{row.ID, row.AssetNumber, row.Name, row.Type, row.Location, row.Status}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(f.Write(w))
}
