// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDataSet(t *testing.T) *DataSet {
	t.Helper()
	ds, err := NewDataSet([]Column{
		{Name: "id", Type: Int32},
		{Name: "label", Type: String},
	})
	require.NoError(t, err)
	return ds
}

func TestNewDataSetRejectsEmptyOrDuplicateColumns(t *testing.T) {
	_, err := NewDataSet(nil)
	assert.Error(t, err)

	_, err = NewDataSet([]Column{{Name: "a", Type: Int32}, {Name: "a", Type: String}})
	assert.Error(t, err)

	_, err = NewDataSet([]Column{{Name: "", Type: Int32}})
	assert.Error(t, err)
}

func TestDataSetAddRowPositionalAndKeyed(t *testing.T) {
	ds := newTestDataSet(t)
	require.NoError(t, ds.AddRow([]Value{IntValue(1), StringValue("first")}))
	require.NoError(t, ds.AddRowKeyed(map[string]Value{"id": IntValue(2), "label": StringValue("second")}))
	assert.Equal(t, 2, ds.NumRows())

	row0, err := ds.Row(0)
	require.NoError(t, err)
	id, _ := row0[0].Int64()
	assert.Equal(t, int64(1), id)

	keyed, err := ds.RowKeyed(1)
	require.NoError(t, err)
	id2, _ := keyed["id"].Int64()
	assert.Equal(t, int64(2), id2)
}

func TestDataSetAddRowRejectsWrongArity(t *testing.T) {
	ds := newTestDataSet(t)
	assert.Error(t, ds.AddRow([]Value{IntValue(1)}))
}

func TestDataSetInsertAndRemoveRows(t *testing.T) {
	ds := newTestDataSet(t)
	require.NoError(t, ds.AddRow([]Value{IntValue(1), StringValue("a")}))
	require.NoError(t, ds.AddRow([]Value{IntValue(3), StringValue("c")}))
	require.NoError(t, ds.InsertRow(1, []Value{IntValue(2), StringValue("b")}))

	require.Equal(t, 3, ds.NumRows())
	row1, _ := ds.Row(1)
	id, _ := row1[0].Int64()
	assert.Equal(t, int64(2), id)

	ds.RemoveRows(0, 1)
	assert.Equal(t, 2, ds.NumRows())

	ds.RemoveLastRows(10) // saturates, does not panic
	assert.Equal(t, 0, ds.NumRows())
}

func TestDataSetAddRowsInColumnsPositionalAndKeyed(t *testing.T) {
	ds := newTestDataSet(t)
	require.NoError(t, ds.AddRowsInColumns([][]Value{
		{IntValue(1), IntValue(4), IntValue(7)},
		{StringValue("a"), StringValue("b"), StringValue("c")},
	}))
	require.Equal(t, 3, ds.NumRows())

	row1, err := ds.Row(1)
	require.NoError(t, err)
	id, _ := row1[0].Int64()
	assert.Equal(t, int64(4), id)
	label, _ := row1[1].String()
	assert.Equal(t, "b", label)

	ds2 := newTestDataSet(t)
	require.NoError(t, ds2.AddRowsKeyedInColumns(map[string][]Value{
		"id":    {IntValue(10), IntValue(20)},
		"label": {StringValue("x"), StringValue("y")},
	}))
	require.Equal(t, 2, ds2.NumRows())
	keyed, err := ds2.RowKeyed(1)
	require.NoError(t, err)
	id2, _ := keyed["id"].Int64()
	assert.Equal(t, int64(20), id2)
}

func TestDataSetAddRowsInColumnsRejectsMismatchedLengths(t *testing.T) {
	ds := newTestDataSet(t)
	err := ds.AddRowsInColumns([][]Value{
		{IntValue(1), IntValue(2)},
		{StringValue("a")},
	})
	assert.Error(t, err)
}

func TestDataSetAddRowsKeyedInColumnsRejectsUnknownColumn(t *testing.T) {
	ds := newTestDataSet(t)
	err := ds.AddRowsKeyedInColumns(map[string][]Value{
		"ghost": {IntValue(1)},
	})
	assert.Error(t, err)
}

func TestDataSetRangedRowQueries(t *testing.T) {
	ds := newTestDataSet(t)
	require.NoError(t, ds.AddRow([]Value{IntValue(1), StringValue("a")}))
	require.NoError(t, ds.AddRow([]Value{IntValue(2), StringValue("b")}))
	require.NoError(t, ds.AddRow([]Value{IntValue(3), StringValue("c")}))

	rows := ds.Rows(1, 3)
	require.Len(t, rows, 2)
	id, _ := rows[0][0].Int64()
	assert.Equal(t, int64(2), id)

	keyed := ds.RowsKeyed(0, 2)
	require.Len(t, keyed, 2)
	label, _ := keyed[1]["label"].String()
	assert.Equal(t, "b", label)

	cols := ds.RowsInColumns(0, 3)
	require.Len(t, cols, 2)
	require.Len(t, cols[0], 3)
	v0, _ := cols[0][2].Int64()
	assert.Equal(t, int64(3), v0)

	keyedCols := ds.RowsKeyedInColumns(1, 3)
	require.Len(t, keyedCols["id"], 2)
	v1, _ := keyedCols["id"][1].Int64()
	assert.Equal(t, int64(3), v1)

	// Out-of-range bounds saturate rather than error.
	assert.Empty(t, ds.Rows(5, 10))
	assert.Len(t, ds.Rows(-5, 100), 3)
}

func TestDataSetWireRoundTrip(t *testing.T) {
	ds := newTestDataSet(t)
	require.NoError(t, ds.AddRow([]Value{IntValue(1), StringValue("first")}))
	require.NoError(t, ds.AddRow([]Value{IntValue(-7), StringValue("second")}))

	w, err := ds.toWire(false)
	require.NoError(t, err)

	back, err := dataSetFromWire(w)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns(), back.Columns())
	require.Equal(t, ds.NumRows(), back.NumRows())

	for i := 0; i < ds.NumRows(); i++ {
		want, err := ds.Row(i)
		require.NoError(t, err)
		got, err := back.Row(i)
		require.NoError(t, err)
		for c := range want {
			assert.True(t, valuesEqual(want[c], got[c], ds.types[c]), "row %d col %d", i, c)
		}
	}
}
