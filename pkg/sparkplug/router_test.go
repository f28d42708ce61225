// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"testing"

	"github.com/edgesparkplug/edge-client/pkg/log"
	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetricsRegistry struct {
	commands []string
}

func (f *fakeMetricsRegistry) IncPublish(string)       {}
func (f *fakeMetricsRegistry) IncReconnect()            {}
func (f *fakeMetricsRegistry) IncSequenceReset()        {}
func (f *fakeMetricsRegistry) SetConnected(bool)        {}
func (f *fakeMetricsRegistry) IncCommand(result string) { f.commands = append(f.commands, result) }

func newTestNodeForRouting(t *testing.T) (*Node, *fakeMetricsRegistry) {
	t.Helper()
	reg := &fakeMetricsRegistry{}
	n := &Node{
		groupID:     "G1",
		edgeNodeID:  "E1",
		metricIndex: make(map[string]int),
		deviceIndex: make(map[string]int),
		log:         log.Component("test router"),
		metricsReg:  reg,
	}
	return n, reg
}

func TestDispatchMetricByAlias(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	var got Value
	m := NewMetric("m1", Int32, IntValue(0), WithCommandHandler(func(_ *Metric, v Value) error {
		got = v
		return nil
	}))
	require.NoError(t, n.attachMetric(m))

	n.dispatchMetric(nil, &wire.Metric{HasAlias: true, Alias: 0, HasDatatype: true, Datatype: uint32(Int32),
		Value: wire.Value{HasInt: true, IntValue: 7}})

	x, ok := got.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(7), x)
	assert.Equal(t, []string{"ok"}, reg.commands)
}

func TestDispatchMetricByNameWhenNoAlias(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	var called bool
	m := NewMetric("m1", Boolean, BoolValue(false), WithCommandHandler(func(_ *Metric, v Value) error {
		called = true
		return nil
	}))
	require.NoError(t, n.attachMetric(m))

	n.dispatchMetric(nil, &wire.Metric{HasName: true, Name: "m1", HasDatatype: true, Datatype: uint32(Boolean),
		Value: wire.Value{HasBool: true, BoolValue: true}})

	assert.True(t, called)
	assert.Equal(t, []string{"ok"}, reg.commands)
}

func TestDispatchMetricUnknownIsDroppedNotPanicked(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	assert.NotPanics(t, func() {
		n.dispatchMetric(nil, &wire.Metric{HasName: true, Name: "ghost", HasDatatype: true, Datatype: uint32(Int32)})
	})
	assert.Equal(t, []string{"unknown_metric"}, reg.commands)
}

func TestDispatchInboundUnknownDeviceIsDropped(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	raw := wire.EncodePayload(&wire.Payload{Metrics: []*wire.Metric{{HasName: true, Name: "x"}}})
	n.dispatchInbound("spBv1.0/G1/DCMD/E1/ghostdevice", raw)
	assert.Equal(t, []string{"unknown_device"}, reg.commands)
}

func TestDispatchInboundMalformedPayloadIsDropped(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	n.dispatchInbound("spBv1.0/G1/NCMD/E1", []byte{0xFF})
	assert.Equal(t, []string{"decode_error"}, reg.commands)
}

func TestDispatchMetricNullSkipsHandlerButCountsOK(t *testing.T) {
	n, reg := newTestNodeForRouting(t)
	called := false
	m := NewMetric("m1", Int32, IntValue(0), WithCommandHandler(func(_ *Metric, v Value) error {
		called = true
		return nil
	}))
	require.NoError(t, n.attachMetric(m))

	n.dispatchMetric(nil, &wire.Metric{HasAlias: true, Alias: 0, HasIsNull: true, IsNull: true})
	assert.False(t, called)
	assert.Equal(t, []string{"ok"}, reg.commands)
}
