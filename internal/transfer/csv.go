// Package transfer encodes and decodes equipment inventories for bulk import and export.
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/example/assetdesk/internal/models"
)

// ImportRow is one CSV line of an equipment import. Unknown columns (such as id from an export)
// are ignored.
type ImportRow struct {
	AssetNumber string `csv:"assetNumber"`
	Name        string `csv:"name"`
	Type        string `csv:"type"`
	Location    string `csv:"location"`
	Status      string `csv:"status"`
}

// Normalize trims every field.
func (r *ImportRow) Normalize() {
	r.AssetNumber = strings.TrimSpace(r.AssetNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.Location = strings.TrimSpace(r.Location)
	r.Status = strings.TrimSpace(r.Status)
}

// ExportRow is one CSV line of an equipment export.
type ExportRow struct {
	ID          uint   `csv:"id"`
	AssetNumber string `csv:"assetNumber"`
	Name        string `csv:"name"`
	Type        string `csv:"type"`
	Location    string `csv:"location"`
	Status      string `csv:"status"`
}

// ExportHeader is the column order shared by the CSV and XLSX exports.
var ExportHeader = []string{"id", "assetNumber", "name", "type", "location", "status"}

func toExportRows(items []models.Equipment) []ExportRow {
	rows := make([]ExportRow, 0, len(items))
	for _, eq := range items {
		rows = append(rows, ExportRow{
			ID:          eq.ID,
			AssetNumber: eq.AssetNumber,
			Name:        eq.Name,
			Type:        eq.Type,
			Location:    eq.Location,
			Status:      string(eq.Status),
		})
	}
	return rows
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV decodes an import file with a header row. An empty file yields no rows.
func ReadCSV(r io.Reader) ([]ImportRow, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	rows := []ImportRow{}
	if err := gocsv.Unmarshal(br, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []ImportRow{}, nil
		}
		return nil, errors.Wrap(err, "parse csv")
	}
	for i := range rows {
		rows[i].Normalize()
	}
	return rows, nil
}

// WriteCSV encodes the inventory with a header row.
func WriteCSV(w io.Writer, items []models.Equipment) error {
	rows := toExportRows(items)
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(ExportHeader, ",")+"\n")
		return errors.WithStack(err)
	}
	return errors.Wrap(gocsv.Marshal(rows, w), "write csv")
}
