package format

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/godto/internal/coerce"
)

// CSVOptions configures CSV decoding and encoding.
type CSVOptions struct {
	Delimiter rune   // ',' when zero
	NoHeader  bool   // encode: omit the header row
	Wrap      string // encode: prefix every header with "<wrap>."
}

// DecodeCSV decodes CSV text with a header row into one map per data row.
// Dotted headers ("address.city") build nested maps. Malformed text yields an
// empty list.
func DecodeCSV(data []byte, opt CSVOptions) []map[string]any {
	v, err := decodeCSV(data, opt)
	if err != nil {
		return []map[string]any{}
	}
	return asList(v)
}

func decodeCSV(data []byte, opt CSVOptions) (any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("format: empty CSV")
	}
	header := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := map[string]any{}
		for i, h := range header {
			if i >= len(rec) {
				break
			}
			setPath(row, strings.Split(strings.TrimSpace(h), "."), rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func setPath(m map[string]any, path []string, v any) {
	for i, p := range path {
		if i == len(path)-1 {
			m[p] = v
			return
		}
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
}

// EncodeCSV renders rows (a list of maps, or a single map) as CSV. Nested maps
// are flattened into dotted columns; lists are rendered as JSON text. The
// header is the union of all columns in first-seen order.
func EncodeCSV(rows any, opt CSVOptions) (string, error) {
	var list []any
	switch t := rows.(type) {
	case []any:
		list = t
	default:
		if _, _, ok := keysOf(rows); !ok {
			return "", fmt.Errorf("format: cannot encode %T as CSV", rows)
		}
		list = []any{rows}
	}

	var columns []string
	seen := map[string]bool{}
	flat := make([]map[string]string, 0, len(list))
	for _, row := range list {
		cells := map[string]string{}
		prefix := ""
		if opt.Wrap != "" {
			prefix = opt.Wrap + "."
		}
		if err := flatten(prefix, row, cells, func(col string) {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}); err != nil {
			return "", err
		}
		flat = append(flat, cells)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	if !opt.NoHeader {
		if err := w.Write(columns); err != nil {
			return "", err
		}
	}
	for _, cells := range flat {
		rec := make([]string, len(columns))
		for i, c := range columns {
			rec[i] = cells[c]
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

func flatten(prefix string, v any, out map[string]string, column func(string)) error {
	if keys, get, ok := keysOf(v); ok {
		for _, k := range keys {
			if err := flatten(prefix+k+".", get(k), out, column); err != nil {
				return err
			}
		}
		return nil
	}
	col := strings.TrimSuffix(prefix, ".")
	column(col)
	switch t := v.(type) {
	case nil:
		out[col] = ""
	case []any:
		s, err := EncodeJSON(t, JSONOptions{})
		if err != nil {
			return err
		}
		out[col] = s
	default:
		s, err := coerce.ToString(t)
		if err != nil {
			s = fmt.Sprint(t)
		}
		out[col] = s
	}
	return nil
}
