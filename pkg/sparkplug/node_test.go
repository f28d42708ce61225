// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"context"
	"testing"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolCommandPayload(name string, v bool) []byte {
	p := &wire.Payload{
		Metrics: []*wire.Metric{{
			HasName:     true,
			Name:        name,
			HasDatatype: true,
			Datatype:    uint32(Boolean),
			Value:       wire.Value{HasBool: true, BoolValue: v},
		}},
	}
	return wire.EncodePayload(p)
}

// barrier blocks until every action enqueued on n's worker before this call
// has finished running, by enqueueing a no-op behind them.
func barrier(t *testing.T, n *Node) {
	t.Helper()
	require.NoError(t, n.withWorker(func() error { return nil }))
}

func TestNodeBirthOrdering(t *testing.T) {
	var transports []*fakeTransport
	newTransport := func() Transport {
		ft := newFakeTransport()
		transports = append(transports, ft)
		return ft
	}

	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, newTransport)
	require.NoError(t, err)

	m1 := NewMetric("m1", Int32, IntValue(42))
	require.NoError(t, node.AddMetric(m1))

	require.NoError(t, node.Online(context.Background()))
	defer node.Offline()

	require.Len(t, transports, 1)
	ft := transports[0]

	pub, ok := ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.nbirthTopic(), pub.topic)

	p, err := wire.DecodePayload(pub.payload)
	require.NoError(t, err)
	assert.True(t, p.HasSeq)
	assert.EqualValues(t, 0, p.Seq)

	require.Len(t, p.Metrics, 4)
	wantNames := []string{bdSeqMetricName, rebirthControlMetricName, nextServerControlMetric, "m1"}
	for i, wm := range p.Metrics {
		assert.Equal(t, wantNames[i], wm.Name, "metric %d", i)
		assert.EqualValues(t, i, wm.Alias, "metric %d alias", i)
	}

	// Unchanged node: SendData publishes nothing.
	require.NoError(t, node.SendData())
	assert.Equal(t, 1, ft.publishCount(), "no new metrics changed, nothing should publish")

	m1.SetValue(IntValue(43))
	require.NoError(t, node.SendData())
	pub, ok = ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.ndataTopic(), pub.topic)

	p, err = wire.DecodePayload(pub.payload)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.Seq)
	require.Len(t, p.Metrics, 1)
	assert.False(t, p.Metrics[0].HasName, "DATA addresses metrics by alias only")
	assert.EqualValues(t, 3, p.Metrics[0].Alias)
}

func TestNodeRebirthCommand(t *testing.T) {
	var transports []*fakeTransport
	newTransport := func() Transport {
		ft := newFakeTransport()
		transports = append(transports, ft)
		return ft
	}

	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, newTransport)
	require.NoError(t, err)
	require.NoError(t, node.Online(context.Background()))
	defer node.Offline()

	ft := transports[0]
	birthsBefore := ft.publishCount()

	node.handleMessage(node.ncmdSubscription(), boolCommandPayload(rebirthControlMetricName, true))
	barrier(t, node)

	require.NoError(t, node.withWorker(func() error { node.pollRebirth(); return nil }))

	pub, ok := ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.nbirthTopic(), pub.topic)
	assert.Greater(t, ft.publishCount(), birthsBefore)

	p, err := wire.DecodePayload(pub.payload)
	require.NoError(t, err)
	assert.EqualValues(t, 0, p.Seq, "rebirth resets seq")
}

func TestNodeNextServerSwitch(t *testing.T) {
	var transports []*fakeTransport
	newTransport := func() Transport {
		ft := newFakeTransport()
		transports = append(transports, ft)
		return ft
	}

	brokers := []TransportOptions{
		{BrokerURL: "tcp://broker1:1883"},
		{BrokerURL: "tcp://broker2:1883"},
	}
	node, err := NewNode("g1", "e1", brokers, newTransport)
	require.NoError(t, err)
	require.NoError(t, node.Online(context.Background()))
	defer node.Offline()

	require.Len(t, transports, 1)
	first := transports[0]
	assert.Equal(t, "tcp://broker1:1883", node.currentBroker().BrokerURL)

	require.NoError(t, node.withWorker(func() error { node.switchBroker(); return nil }))

	assert.False(t, first.IsConnected(), "old transport must be force-closed")
	assert.Equal(t, "tcp://broker2:1883", node.currentBroker().BrokerURL)
	require.Len(t, transports, 2)

	second := transports[1]
	pub, ok := second.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.nbirthTopic(), pub.topic)

	p, err := wire.DecodePayload(pub.payload)
	require.NoError(t, err)
	assert.EqualValues(t, 0, p.Seq)
}

func TestNodeSeqWrapAround(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() })
	require.NoError(t, err)

	for i := 0; i < 255; i++ {
		node.advanceSeq()
	}
	assert.EqualValues(t, 255, node.seq)
	node.advanceSeq()
	assert.EqualValues(t, 0, node.seq, "seq must wrap at 256 back to 0")
}

func TestNodeStateMachineOnlineOffline(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() })
	require.NoError(t, err)

	assert.Equal(t, StateOffline, node.State())
	require.NoError(t, node.Online(context.Background()))
	assert.Equal(t, StateRunning, node.State())
	require.NoError(t, node.Offline())
	assert.Equal(t, StateOffline, node.State())
}

func TestNodeAddMetricDuplicateNameReplacesByDefault(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() })
	require.NoError(t, err)

	m1 := NewMetric("temp", Int32, IntValue(1))
	require.NoError(t, node.AddMetric(m1))
	alias := m1.Alias()

	m2 := NewMetric("temp", Int32, IntValue(2))
	require.NoError(t, node.AddMetric(m2), "non-strict nodes replace a duplicate metric name instead of rejecting it")
	assert.Equal(t, alias, m2.Alias(), "the replacement keeps the original alias")
}

func TestNodeAddMetricDuplicateNameRejectedWhenStrict(t *testing.T) {
	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, func() Transport { return newFakeTransport() }, WithStrictSchema())
	require.NoError(t, err)

	require.NoError(t, node.AddMetric(NewMetric("temp", Int32, IntValue(1))))
	err = node.AddMetric(NewMetric("temp", Int32, IntValue(2)))
	require.Error(t, err)
	assert.IsType(t, &SchemaError{}, err)
}

func TestNodeAsyncDisconnectTriggersReconnect(t *testing.T) {
	var transports []*fakeTransport
	newTransport := func() Transport {
		ft := newFakeTransport()
		transports = append(transports, ft)
		return ft
	}

	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, newTransport)
	require.NoError(t, err)
	require.NoError(t, node.Online(context.Background()))
	defer node.Offline()

	require.Len(t, transports, 1)
	first := transports[0]
	assert.Equal(t, StateRunning, node.State())

	first.simulateBrokerDisconnect(assert.AnError)
	barrier(t, node)

	require.Len(t, transports, 2, "an async disconnect must reconnect with a fresh transport")
	second := transports[1]
	assert.True(t, second.IsConnected())
	assert.Equal(t, StateRunning, node.State())

	pub, ok := second.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.nbirthTopic(), pub.topic, "reconnect re-births")

	// A late notification from the now-superseded first transport must not
	// trigger a second, spurious reconnect cycle.
	first.simulateBrokerDisconnect(assert.AnError)
	barrier(t, node)
	assert.Len(t, transports, 2, "a stale disconnect notification must be ignored")
}

func TestNodeDeviceSchemaChangeTriggersDeathAndRebirth(t *testing.T) {
	var transports []*fakeTransport
	newTransport := func() Transport {
		ft := newFakeTransport()
		transports = append(transports, ft)
		return ft
	}

	node, err := NewNode("g1", "e1", []TransportOptions{{BrokerURL: "tcp://broker1:1883"}}, newTransport)
	require.NoError(t, err)
	require.NoError(t, node.Online(context.Background()))
	defer node.Offline()
	ft := transports[0]

	d := NewDevice("dev1")
	require.NoError(t, node.AddDevice(d))
	require.NoError(t, node.withWorker(func() error { node.pollRebirth(); return nil }))

	pub, ok := ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.dbirthTopic("dev1"), pub.topic)
	assert.False(t, d.NeedsBirth())

	// Attaching a new metric to an already-birthed, connected device must
	// unbirth it (DDEATH) and mark it for rebirth.
	m2 := NewMetric("m2", Int32, IntValue(1))
	require.NoError(t, d.AddMetric(m2))

	pub, ok = ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.ddeathTopic("dev1"), pub.topic)
	assert.True(t, d.NeedsBirth())

	require.NoError(t, node.withWorker(func() error { node.pollRebirth(); return nil }))
	pub, ok = ft.lastPublish()
	require.True(t, ok)
	assert.Equal(t, node.dbirthTopic("dev1"), pub.topic)

	p, err := wire.DecodePayload(pub.payload)
	require.NoError(t, err)
	require.Len(t, p.Metrics, 1)
	assert.Equal(t, "m2", p.Metrics[0].Name)
}
