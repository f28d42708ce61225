// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import "fmt"

// Device is a sub-device hung off a Node: its own metric list and its own
// DBIRTH/DDEATH/DDATA topics, but no broker connection, sequence counter or
// bdSeq of its own. A Device's lifecycle (birth/death/rebirth) is driven by
// its owning Node's worker.
type Device struct {
	node *Node
	name string

	metrics     []*Metric
	metricIndex map[string]int

	needsBirth bool
}

// NewDevice constructs a Device by name. It must be attached to a Node with
// Node.AddDevice before it can be birthed.
func NewDevice(name string) *Device {
	return &Device{name: name, metricIndex: make(map[string]int), needsBirth: true}
}

func (d *Device) Name() string { return d.name }

// NeedsBirth reports whether the device's schema has changed since its
// last DBIRTH (or it has never been birthed).
func (d *Device) NeedsBirth() bool { return d.needsBirth }

// Metrics returns the device's attached metrics in alias order.
func (d *Device) Metrics() []*Metric {
	out := make([]*Metric, len(d.metrics))
	copy(out, d.metrics)
	return out
}

func (d *Device) metric(name string) *Metric {
	if i, ok := d.metricIndex[name]; ok {
		return d.metrics[i]
	}
	return nil
}

// AddMetric attaches m to the device, assigning it the next alias in
// attachment order. If the device is already connected and birthed, per
// §4.6 this publishes a DDEATH to unbirth the stale schema and marks
// needs_birth so the node's next scheduler pass re-births the device with
// the new metric included.
func (d *Device) AddMetric(m *Metric) error {
	if d.node == nil {
		return d.attachMetric(m)
	}
	return d.node.withWorker(func() error {
		if err := d.attachMetric(m); err != nil {
			return err
		}
		if d.node.isConnected() && !d.needsBirth {
			d.node.publishDeviceDeath(d)
		}
		d.needsBirth = true
		return nil
	})
}

// attachMetric rejects a duplicate name only when the owning Node (if any)
// is in strict-schema mode; a standalone Device not yet attached to a Node
// is always permissive. The permissive path replaces the existing metric
// in place, keeping its alias, matching _attach_tag's no-check semantics in
// the original Sparkplug edge node reference.
func (d *Device) attachMetric(m *Metric) error {
	strict := d.node != nil && d.node.strictSchema
	if i, dup := d.metricIndex[m.name]; dup {
		if strict {
			return &SchemaError{Reason: fmt.Sprintf("device %q already has a metric named %q", d.name, m.name)}
		}
		m.alias = uint64(i)
		d.metrics[i] = m
		return nil
	}
	m.alias = uint64(len(d.metrics))
	d.metricIndex[m.name] = len(d.metrics)
	d.metrics = append(d.metrics, m)
	return nil
}

func (d *Device) markBirthed() { d.needsBirth = false }
