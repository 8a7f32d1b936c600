package ingest

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first sheet of a workbook. Row 1 holds the headers;
// blank rows are skipped. Cells stored as numbers come back as float64,
// everything else as the cell text.
func decodeXLSX(payload []byte) ([]map[string]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, malformed(err, "invalid spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, empty()
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, malformed(err, "invalid spreadsheet: %v", err)
	}
	if len(rows) < 2 {
		return nil, empty()
	}

	header := make([]string, len(rows[0]))
	for c, h := range rows[0] {
		header[c] = normalizeHeader(h)
	}
	var out []map[string]any
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		obj := make(map[string]any, len(header))
		for c, h := range header {
			if h == "" {
				continue
			}
			// columnas repetidas: gana la primera con valor
			if prev, ok := obj[h]; ok && prev != nil {
				continue
			}
			if c >= len(row) {
				obj[h] = nil
				continue
			}
			obj[h] = cellValue(f, sheet, c+1, i+2, row[c])
		}
		out = append(out, obj)
	}
	return out, nil
}

func cellValue(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// celdas numéricas no traen tipo explícito
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
