// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"testing"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNodeDeathPayloadAddressesBdSeqByNameOnly(t *testing.T) {
	raw := buildNodeDeathPayload(12345)
	p, err := wire.DecodePayload(raw)
	require.NoError(t, err)

	assert.False(t, p.HasTimestamp, "NDEATH carries no timestamp")
	require.Len(t, p.Metrics, 1)
	m := p.Metrics[0]
	assert.True(t, m.HasName)
	assert.Equal(t, bdSeqName, m.Name)
	assert.False(t, m.HasAlias, "NDEATH addresses bdSeq by name, never alias")
	assert.True(t, m.HasLong)
	assert.Equal(t, uint64(12345), m.LongValue)
}

func TestBuildBirthPayloadMarksEveryMetricSent(t *testing.T) {
	m1 := NewMetric("m1", Int32, IntValue(1))
	m1.alias = 0
	m2 := NewMetric("m2", String, StringValue("x"))
	m2.alias = 1

	raw, err := buildBirthPayload([]*Metric{m1, m2}, 0, false)
	require.NoError(t, err)

	p, err := wire.DecodePayload(raw)
	require.NoError(t, err)
	assert.True(t, p.HasTimestamp)
	require.Len(t, p.Metrics, 2)
	assert.True(t, p.Metrics[0].HasName)
	assert.True(t, p.Metrics[1].HasName)

	// Both metrics must now be considered unchanged.
	w, err := m1.toWireData(false)
	require.NoError(t, err)
	assert.Nil(t, w)
	w, err = m2.toWireData(false)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestBuildDataPayloadSkipsAllUnchanged(t *testing.T) {
	m1 := NewMetric("m1", Int32, IntValue(1))
	m1.alias = 0
	m1.markSent()

	raw, count, err := buildDataPayload([]*Metric{m1}, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	p, err := wire.DecodePayload(raw)
	require.NoError(t, err)
	assert.Empty(t, p.Metrics)
}

func TestBuildDataPayloadIncludesOnlyDirtyMetrics(t *testing.T) {
	m1 := NewMetric("m1", Int32, IntValue(1))
	m1.alias = 0
	m1.markSent()
	m2 := NewMetric("m2", Int32, IntValue(2))
	m2.alias = 1
	m2.markSent()
	m2.SetValue(IntValue(3))

	raw, count, err := buildDataPayload([]*Metric{m1, m2}, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	p, err := wire.DecodePayload(raw)
	require.NoError(t, err)
	require.Len(t, p.Metrics, 1)
	assert.EqualValues(t, 1, p.Metrics[0].Alias)
	assert.False(t, p.Metrics[0].HasName)
}

func TestBuildDeviceDeathPayloadHasTimestampAndSeq(t *testing.T) {
	raw := buildDeviceDeathPayload(9)
	p, err := wire.DecodePayload(raw)
	require.NoError(t, err)
	assert.True(t, p.HasTimestamp)
	require.True(t, p.HasSeq)
	assert.Equal(t, uint64(9), p.Seq)
	assert.Empty(t, p.Metrics)
}
