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

func TestDeviceAddMetricDuplicateNameReplacesWhenStandalone(t *testing.T) {
	d := NewDevice("dev1")

	m1 := NewMetric("temp", Int32, IntValue(1))
	require.NoError(t, d.AddMetric(m1))
	alias := m1.Alias()

	m2 := NewMetric("temp", Int32, IntValue(2))
	require.NoError(t, d.AddMetric(m2), "a Device not yet attached to a Node is always permissive")
	assert.Equal(t, alias, m2.Alias())
	assert.Len(t, d.Metrics(), 1)
}

func TestDeviceAddMetricDuplicateNameReplacesByDefault(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() })
	require.NoError(t, err)

	d := NewDevice("dev1")
	require.NoError(t, node.AddDevice(d))

	m1 := NewMetric("temp", Int32, IntValue(1))
	require.NoError(t, d.AddMetric(m1))
	alias := m1.Alias()

	m2 := NewMetric("temp", Int32, IntValue(2))
	require.NoError(t, d.AddMetric(m2))
	assert.Equal(t, alias, m2.Alias())
	assert.Len(t, d.Metrics(), 1)
}

func TestDeviceAddMetricDuplicateNameRejectedWhenNodeStrict(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() }, WithStrictSchema())
	require.NoError(t, err)

	d := NewDevice("dev1")
	require.NoError(t, node.AddDevice(d))

	require.NoError(t, d.AddMetric(NewMetric("temp", Int32, IntValue(1))))
	err = d.AddMetric(NewMetric("temp", Int32, IntValue(2)))
	require.Error(t, err)
	assert.IsType(t, &SchemaError{}, err)
}
