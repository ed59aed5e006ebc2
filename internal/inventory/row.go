// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Row is one CSV record with its column order preserved. JSON marshaling
// emits fields in file order, so a table round-trips through the tool
// layer without reordering or dropping columns the code does not know.
type Row struct {
	columns []string
	fields  map[string]string
}

// newRow pairs a header with one record. Records shorter than the header
// fill the missing columns with empty strings; extra fields past the
// header are dropped.
func newRow(columns []string, record []string) Row {
	fields := make(map[string]string, len(columns))
	for i, column := range columns {
		if i < len(record) {
			fields[column] = record[i]
		} else {
			fields[column] = ""
		}
	}
	return Row{columns: columns, fields: fields}
}

// Get returns the value of the named column, or "" when the column does
// not exist.
func (r Row) Get(column string) string {
	return r.fields[column]
}

// Has reports whether the row carries the named column.
func (r Row) Has(column string) bool {
	_, ok := r.fields[column]
	return ok
}

// Columns returns the column names in file order.
func (r Row) Columns() []string {
	return slices.Clone(r.columns)
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.fields[column])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
