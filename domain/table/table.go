package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedTable is returned when decoded input is not an array of objects
var ErrMalformedTable = errors.New("table must be an array of objects")

// Row maps column name to cell value. A column absent from the map reads as missing.
type Row map[string]Value

// Get returns the cell for col, or a missing value
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return NewMissingValue()
}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows plus the column order they were first seen in
type Table struct {
	Columns []string
	Rows    []Row
}

// New builds a table whose column list covers every key used by rows.
// Keys not already in columns are appended in sorted order per row.
func New(columns []string, rows []Row) Table {
	seen := make(map[string]bool, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, row := range rows {
		var extra []string
		for k := range row {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		cols = append(cols, extra...)
	}
	return Table{Columns: cols, Rows: rows}
}

// Len returns the number of rows
func (t Table) Len() int { return len(t.Rows) }

// Column returns the values of col in row order
func (t Table) Column(col string) []Value {
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(col)
	}
	return out
}

// MarshalJSON writes rows as objects with keys in column order
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRow(&buf, t.Columns, row); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, columns []string, row Row) error {
	buf.WriteByte('{')
	first := true
	for _, col := range columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(col)
		if err != nil {
			return err
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes an array of flat objects, keeping key order of first appearance
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return ErrMalformedTable
	}

	var columns []string
	seen := make(map[string]bool)
	rows := []Row{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("%w: row %d is not an object", ErrMalformedTable, len(rows))
		}

		row := make(Row)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedTable, err)
			}
			key, _ := keyTok.(string)

			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("%w: row %d field %q: %v", ErrMalformedTable, len(rows), key, err)
			}
			var v Value
			if err := v.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("%w: row %d field %q: %v", ErrMalformedTable, len(rows), key, err)
			}
			row[key] = v
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	t.Columns = columns
	t.Rows = rows
	return nil
}
