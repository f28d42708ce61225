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

func TestPropertyChangedSinceLastSent(t *testing.T) {
	p := NewProperty("engLow", Double, DoubleValue(0), false)
	assert.True(t, p.changedSinceLastSent(), "never sent is always dirty")

	p.markSent()
	assert.False(t, p.changedSinceLastSent())

	p.SetValue(DoubleValue(1))
	assert.True(t, p.changedSinceLastSent())
}

func TestIgnitionQualityHelpers(t *testing.T) {
	good := ignitionGoodQualityProperty()
	assert.Equal(t, "Quality", good.Name())
	v, ok := good.Value().Int64()
	require.True(t, ok)
	assert.Equal(t, int64(192), v)

	assert.Equal(t, int64(500), mustInt64(t, ignitionBadQualityProperty().Value()))
	assert.Equal(t, int64(508), mustInt64(t, ignitionStaleQualityProperty().Value()))
}

func TestBulkPropertiesBuildsParallelArrays(t *testing.T) {
	props := []*Property{
		NewProperty("a", Int32, IntValue(1), false),
		NewProperty("b", String, StringValue("x"), false),
	}
	ps, err := bulkProperties(props, false)
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.Equal(t, []string{"a", "b"}, ps.Keys)
	require.Len(t, ps.Values, 2)
	assert.True(t, ps.Values[0].HasInt)
	assert.True(t, ps.Values[1].HasString)
}

func TestBulkPropertiesEmptyIsNil(t *testing.T) {
	ps, err := bulkProperties(nil, false)
	require.NoError(t, err)
	assert.Nil(t, ps)
}

func mustInt64(t *testing.T, v Value) int64 {
	t.Helper()
	x, ok := v.Int64()
	require.True(t, ok)
	return x
}
