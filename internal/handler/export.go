package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"github.com/xuri/excelize/v2"

	"github.com/pkordes/family-trip/internal/domain"
)

// Export formats accepted by ?format=.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportHeaders are the column names of the CSV and XLSX exports.
var exportHeaders = []string{"family_id", "family_name", "kind", "date", "time", "title", "details"}

// exportRowJSON is the wire form of domain.ExportRow.
type exportRowJSON struct {
	FamilyID   string `json:"familyId"`
	FamilyName string `json:"familyName,omitempty"`
	Kind       string `json:"kind"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	Title      string `json:"title,omitempty"`
	Details    string `json:"details,omitempty"`
}

// GetExport handles GET /api/export.
// It returns one flat row per flight, stay, activity, transfer and day event.
// ?format=csv or ?format=xlsx select a download; the default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	// Optional query parameters bind into a pointer.
	var param *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &param); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter format: "+err.Error())
		return
	}
	format := formatJSON
	if param != nil {
		format = *param
	}
	switch format {
	case formatJSON, formatCSV, formatXLSX:
	default:
		writeError(w, http.StatusBadRequest, "format must be json, csv or xlsx")
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeInternal(w, r, "export", err)
		return
	}

	switch format {
	case formatCSV:
		writeDownload(w, "text/csv; charset=utf-8", "trip.csv", buildCSV(rows))
	case formatXLSX:
		b, err := buildXLSX(rows)
		if err != nil {
			s.writeInternal(w, r, "export.xlsx", err)
			return
		}
		writeDownload(w, xlsxContentType, "trip.xlsx", b)
	default:
		out := make([]exportRowJSON, 0, len(rows))
		for _, row := range rows {
			out = append(out, exportRowJSON(row))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeDownload(w http.ResponseWriter, contentType, name string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// buildCSV encodes rows with a header line.
func buildCSV(rows []domain.ExportRow) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer writes never fail.
	_ = cw.Write(exportHeaders)
	for _, r := range rows {
		_ = cw.Write(exportRecord(r))
	}
	cw.Flush()
	return buf.Bytes()
}

// buildXLSX writes rows to a single "Trip" sheet with a header row.
func buildXLSX(rows []domain.ExportRow) ([]byte, error) {
	const sheet = "Trip"

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for ri, r := range rows {
		for ci, v := range exportRecord(r) {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 14)
	_ = f.SetColWidth(sheet, "D", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 32)
	_ = f.SetColWidth(sheet, "G", "G", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRecord(r domain.ExportRow) []string {
	return []string{r.FamilyID, r.FamilyName, r.Kind, r.Date, r.Time, r.Title, r.Details}
}
