// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"fmt"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

// DataSet is a columnar, in-memory table value: an ordered set of named,
// typed columns and zero or more rows. Column order, names and types are
// fixed at construction; only rows are mutable afterward.
type DataSet struct {
	columns []string
	types   []DataType
	index   map[string]int
	rows    [][]Value
}

// Column describes one DataSet column at construction time.
type Column struct {
	Name string
	Type DataType
}

// NewDataSet builds an empty DataSet from an ordered column list. An empty
// column list is a SchemaError: a DataSet with no columns cannot carry rows.
func NewDataSet(columns []Column) (*DataSet, error) {
	if len(columns) == 0 {
		return nil, &SchemaError{Reason: "DataSet must declare at least one column"}
	}
	ds := &DataSet{
		columns: make([]string, len(columns)),
		types:   make([]DataType, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, &SchemaError{Reason: "DataSet column name must not be empty"}
		}
		if _, dup := ds.index[c.Name]; dup {
			return nil, &SchemaError{Reason: fmt.Sprintf("duplicate DataSet column name %q", c.Name)}
		}
		ds.columns[i] = c.Name
		ds.types[i] = c.Type
		ds.index[c.Name] = i
	}
	return ds, nil
}

// Columns returns the ordered column names.
func (ds *DataSet) Columns() []string {
	out := make([]string, len(ds.columns))
	copy(out, ds.columns)
	return out
}

// NumRows reports the current row count.
func (ds *DataSet) NumRows() int { return len(ds.rows) }

func (ds *DataSet) rowFromKeyed(values map[string]Value) ([]Value, error) {
	row := make([]Value, len(ds.columns))
	for name, v := range values {
		i, ok := ds.index[name]
		if !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("unknown DataSet column %q", name)}
		}
		row[i] = v
	}
	return row, nil
}

func (ds *DataSet) rowFromColumns(values []Value) ([]Value, error) {
	if len(values) != len(ds.columns) {
		return nil, &SchemaError{Reason: fmt.Sprintf("expected %d values, got %d", len(ds.columns), len(values))}
	}
	row := make([]Value, len(values))
	copy(row, values)
	return row, nil
}

// AddRowKeyed appends a row described as a column-name -> Value map. Columns
// omitted from values are left as the Value zero value (null).
func (ds *DataSet) AddRowKeyed(values map[string]Value) error {
	row, err := ds.rowFromKeyed(values)
	if err != nil {
		return err
	}
	ds.rows = append(ds.rows, row)
	return nil
}

// AddRow appends a row given as positional values, one per column in
// declared order.
func (ds *DataSet) AddRow(values []Value) error {
	row, err := ds.rowFromColumns(values)
	if err != nil {
		return err
	}
	ds.rows = append(ds.rows, row)
	return nil
}

// AddRowsInColumns appends rows given column-major: one []Value per column,
// in declared column order, every column slice the same length. This is the
// positional counterpart of AddRowsKeyedInColumns.
func (ds *DataSet) AddRowsInColumns(columns [][]Value) error {
	if len(columns) != len(ds.columns) {
		return &SchemaError{Reason: fmt.Sprintf("expected %d columns, got %d", len(ds.columns), len(columns))}
	}
	numRows, err := equalColumnLengths(columns)
	if err != nil {
		return err
	}
	for r := 0; r < numRows; r++ {
		row := make([]Value, len(ds.columns))
		for c := range ds.columns {
			row[c] = columns[c][r]
		}
		ds.rows = append(ds.rows, row)
	}
	return nil
}

// AddRowsKeyedInColumns appends rows given column-major and keyed by column
// name: every named []Value the same length. Columns omitted from the map
// are left as the Value zero value (null) in every added row.
func (ds *DataSet) AddRowsKeyedInColumns(columns map[string][]Value) error {
	asColumns := make([][]Value, len(ds.columns))
	for name, vals := range columns {
		i, ok := ds.index[name]
		if !ok {
			return &SchemaError{Reason: fmt.Sprintf("unknown DataSet column %q", name)}
		}
		asColumns[i] = vals
	}
	numRows, err := equalColumnLengths(asColumns)
	if err != nil {
		return err
	}
	for r := 0; r < numRows; r++ {
		row := make([]Value, len(ds.columns))
		for c, vals := range asColumns {
			if vals != nil {
				row[c] = vals[r]
			}
		}
		ds.rows = append(ds.rows, row)
	}
	return nil
}

// equalColumnLengths returns the common length of every non-nil column
// slice, erroring if they disagree. A fully-nil/empty columns set is zero
// rows, not an error.
func equalColumnLengths(columns [][]Value) (int, error) {
	n := -1
	for _, col := range columns {
		if col == nil {
			continue
		}
		if n == -1 {
			n = len(col)
			continue
		}
		if len(col) != n {
			return 0, &SchemaError{Reason: fmt.Sprintf("DataSet columns do not all have %d rows", n)}
		}
	}
	if n == -1 {
		return 0, nil
	}
	return n, nil
}

// InsertRowKeyed inserts a keyed row at the given index, shifting
// subsequent rows down. An out-of-range index appends at the end.
func (ds *DataSet) InsertRowKeyed(index int, values map[string]Value) error {
	row, err := ds.rowFromKeyed(values)
	if err != nil {
		return err
	}
	ds.insert(index, row)
	return nil
}

// InsertRow inserts a positional row at the given index, shifting
// subsequent rows down. An out-of-range index appends at the end.
func (ds *DataSet) InsertRow(index int, values []Value) error {
	row, err := ds.rowFromColumns(values)
	if err != nil {
		return err
	}
	ds.insert(index, row)
	return nil
}

func (ds *DataSet) insert(index int, row []Value) {
	if index < 0 || index >= len(ds.rows) {
		ds.rows = append(ds.rows, row)
		return
	}
	ds.rows = append(ds.rows, nil)
	copy(ds.rows[index+1:], ds.rows[index:])
	ds.rows[index] = row
}

// RemoveRows removes the rows in [start, end), saturating both bounds to
// the current row count. start >= end is a no-op.
func (ds *DataSet) RemoveRows(start, end int) {
	n := len(ds.rows)
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return
	}
	ds.rows = append(ds.rows[:start], ds.rows[end:]...)
}

// RemoveLastRows removes up to numRows rows from the end, saturating at the
// current row count.
func (ds *DataSet) RemoveLastRows(numRows int) {
	if numRows <= 0 {
		return
	}
	n := len(ds.rows)
	if numRows > n {
		numRows = n
	}
	ds.rows = ds.rows[:n-numRows]
}

// Row returns the positional values of the row at index.
func (ds *DataSet) Row(index int) ([]Value, error) {
	if index < 0 || index >= len(ds.rows) {
		return nil, fmt.Errorf("sparkplug: DataSet row index %d out of range [0,%d)", index, len(ds.rows))
	}
	row := make([]Value, len(ds.columns))
	copy(row, ds.rows[index])
	return row, nil
}

// RowKeyed returns the row at index as a column-name -> Value map.
func (ds *DataSet) RowKeyed(index int) (map[string]Value, error) {
	row, err := ds.Row(index)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Value, len(ds.columns))
	for i, name := range ds.columns {
		out[name] = row[i]
	}
	return out, nil
}

// clampRowRange saturates [start, end) to the current row count, mirroring
// RemoveRows's bounds handling. start >= end (after saturation) yields an
// empty, not erroring, range.
func (ds *DataSet) clampRowRange(start, end int) (int, int) {
	n := len(ds.rows)
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// Rows returns a copy of the row-major values in [start, end).
func (ds *DataSet) Rows(start, end int) [][]Value {
	start, end = ds.clampRowRange(start, end)
	out := make([][]Value, 0, end-start)
	for r := start; r < end; r++ {
		row := make([]Value, len(ds.columns))
		copy(row, ds.rows[r])
		out = append(out, row)
	}
	return out
}

// RowsKeyed returns [start, end) as a slice of column-name -> Value maps.
func (ds *DataSet) RowsKeyed(start, end int) []map[string]Value {
	rows := ds.Rows(start, end)
	out := make([]map[string]Value, len(rows))
	for r, row := range rows {
		m := make(map[string]Value, len(ds.columns))
		for i, name := range ds.columns {
			m[name] = row[i]
		}
		out[r] = m
	}
	return out
}

// RowsInColumns returns [start, end) transposed to column-major: one
// []Value per column, in declared column order.
func (ds *DataSet) RowsInColumns(start, end int) [][]Value {
	start, end = ds.clampRowRange(start, end)
	out := make([][]Value, len(ds.columns))
	for c := range ds.columns {
		col := make([]Value, 0, end-start)
		for r := start; r < end; r++ {
			col = append(col, ds.rows[r][c])
		}
		out[c] = col
	}
	return out
}

// RowsKeyedInColumns returns [start, end) transposed to column-major, keyed
// by column name.
func (ds *DataSet) RowsKeyedInColumns(start, end int) map[string][]Value {
	cols := ds.RowsInColumns(start, end)
	out := make(map[string][]Value, len(ds.columns))
	for i, name := range ds.columns {
		out[name] = cols[i]
	}
	return out
}

func (ds *DataSet) toWire(u32InLong bool) (*wire.DataSet, error) {
	w := &wire.DataSet{
		NumOfColumns: uint64(len(ds.columns)),
		Columns:      append([]string(nil), ds.columns...),
		Types:        make([]uint32, len(ds.types)),
	}
	for i, t := range ds.types {
		w.Types[i] = uint32(t)
	}
	for _, row := range ds.rows {
		wrow := &wire.Row{Elements: make([]*wire.DataSetValue, len(row))}
		for i, v := range row {
			slot, err := valueToSlot(v, ds.types[i], u32InLong)
			if err != nil {
				return nil, err
			}
			cell := &wire.DataSetValue{}
			applyDataSetValueSlot(cell, slot)
			wrow.Elements[i] = cell
		}
		w.Rows = append(w.Rows, wrow)
	}
	return w, nil
}

func dataSetFromWire(w *wire.DataSet) (*DataSet, error) {
	if len(w.Columns) != len(w.Types) {
		return nil, &DecodeError{Reason: "DataSet column/type count mismatch"}
	}
	cols := make([]Column, len(w.Columns))
	for i, name := range w.Columns {
		cols[i] = Column{Name: name, Type: DataType(w.Types[i])}
	}
	ds, err := NewDataSet(cols)
	if err != nil {
		return nil, err
	}
	for _, wrow := range w.Rows {
		if len(wrow.Elements) != len(ds.columns) {
			return nil, &DecodeError{Reason: "DataSet row width mismatch"}
		}
		row := make([]Value, len(ds.columns))
		for i, cell := range wrow.Elements {
			v, err := slotToValue(dataSetValueSlot(cell), ds.types[i])
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}
