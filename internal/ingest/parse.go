package ingest

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/AngelCh415/mediaplan-go/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// Detect picks the decoder from the file name, the declared content type,
// and finally the first bytes of the payload.
func Detect(payload []byte, contentType, filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".json":
		return FormatJSON
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "spreadsheetml") || strings.Contains(ct, "ms-excel") {
		return FormatXLSX
	}
	if bytes.HasPrefix(payload, zipMagic) {
		return FormatXLSX
	}
	return FormatJSON
}

// Parse turns an uploaded file into records. Either the whole payload is
// accepted or a *ValidationError is returned.
func Parse(payload []byte, contentType, filename string) ([]models.Record, error) {
	var (
		rows []map[string]any
		err  error
	)
	switch Detect(payload, contentType, filename) {
	case FormatXLSX:
		rows, err = decodeXLSX(payload)
	default:
		rows, err = decodeJSON(payload)
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows validates already-decoded rows and builds records.
func FromRows(rows []map[string]any) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, empty()
	}
	normed := make([]map[string]any, len(rows))
	for i, r := range rows {
		normed[i] = normalizeKeys(r)
	}
	// solo se valida el primer registro
	var absent []string
	for _, f := range models.RequiredFields {
		if _, ok := normed[0][f]; !ok {
			absent = append(absent, f)
		}
	}
	if len(absent) > 0 {
		return nil, missing(absent)
	}
	out := make([]models.Record, len(normed))
	for i, r := range normed {
		out[i] = toRecord(r)
	}
	return out, nil
}

func decodeJSON(payload []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return nil, malformed(nil, "invalid JSON format: empty file")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(err, "invalid JSON format: %v", err)
	}
	// More() no ve un ']' o '}' sobrante; Token sí
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(err, "invalid JSON format: trailing data after document")
	}
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, nil
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for i, el := range t {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, malformed(nil, "invalid JSON format: element %d is not an object", i)
			}
			rows = append(rows, obj)
		}
		return rows, nil
	default:
		return nil, malformed(nil, "invalid JSON format: expected an object or an array of objects")
	}
}
