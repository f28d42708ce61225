// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"sync"
	"time"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

// CommandHandler is invoked on the node's worker goroutine when an NCMD/DCMD
// addresses this metric by name or alias. Returning an error only logs; it
// never tears down the session.
type CommandHandler func(m *Metric, v Value) error

// Metric is a single named, typed data point owned by a Node or Device. A
// Metric's name, alias and DataType are fixed for the life of the owning
// Node/Device session generation; only its value, timestamp and properties
// change afterward.
type Metric struct {
	// mu guards value/isNull/timestamp/dataSet/properties/last_sent/
	// last_received: application goroutines mutate through SetValue et al.
	// while the owning Node/Device's worker goroutine reads through
	// toWireBirth/toWireData concurrently.
	mu sync.Mutex

	name     string
	alias    uint64
	dataType DataType

	value     Value
	isNull    bool
	timestamp time.Time

	dataSet *DataSet

	properties []*Property
	propIndex  map[string]int

	cmdHandler CommandHandler

	everSent     bool
	lastSent     Value
	lastSentNull bool

	lastReceived     Value
	lastReceivedNull bool
	everReceived     bool
}

// MetricOption customizes a Metric at construction.
type MetricOption func(*Metric)

// WithCommandHandler attaches the handler invoked when an NCMD/DCMD targets
// this metric.
func WithCommandHandler(h CommandHandler) MetricOption {
	return func(m *Metric) { m.cmdHandler = h }
}

// WithProperty attaches a property to the metric's PropertySet in
// declaration order.
func WithProperty(p *Property) MetricOption {
	return func(m *Metric) { m.addProperty(p) }
}

// NewMetric declares a metric with an explicit datatype. The metric's alias
// is not chosen here: Node.AddMetric/Device.AddMetric assign it as the
// zero-based attach order within the owning Node/Device.
func NewMetric(name string, dataType DataType, value Value, opts ...MetricOption) *Metric {
	m := &Metric{
		name:      name,
		dataType:  dataType,
		value:     value,
		timestamp: time.Time{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMetricInferred declares a metric whose DataType is inferred from the
// Go type of value, per the dynamic-datatype-inference rule.
func NewMetricInferred(name string, value any, opts ...MetricOption) (*Metric, error) {
	v, err := NewValue(value)
	if err != nil {
		return nil, err
	}
	return NewMetric(name, v.Kind(), v, opts...), nil
}

// NewDataSetMetric declares a metric whose value is a DataSet.
func NewDataSetMetric(name string, ds *DataSet, opts ...MetricOption) *Metric {
	m := &Metric{name: name, dataType: DataSetType, dataSet: ds}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Metric) Name() string      { return m.name }
func (m *Metric) Alias() uint64     { return m.alias }
func (m *Metric) DataType() DataType { return m.dataType }
func (m *Metric) Value() Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *Metric) IsNull() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isNull
}

func (m *Metric) Timestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timestamp
}

func (m *Metric) DataSet() *DataSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataSet
}

func (m *Metric) addProperty(p *Property) {
	if m.propIndex == nil {
		m.propIndex = make(map[string]int)
	}
	if i, ok := m.propIndex[p.name]; ok {
		m.properties[i] = p
		return
	}
	m.propIndex[p.name] = len(m.properties)
	m.properties = append(m.properties, p)
}

// SetProperty attaches or replaces a property by name.
func (m *Metric) SetProperty(p *Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addProperty(p)
}

// Property returns the named property, or nil if none is attached.
func (m *Metric) Property(name string) *Property {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.propIndex[name]; ok {
		return m.properties[i]
	}
	return nil
}

// SetValue updates the metric's value and timestamp to now, clearing any
// null flag. Safe to call concurrently with the owning Node/Device's
// worker goroutine serializing the metric onto the wire.
func (m *Metric) SetValue(v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	m.isNull = false
	m.timestamp = time.Now()
}

// SetNull marks the metric null (value absent) as of now.
func (m *Metric) SetNull() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isNull = true
	m.timestamp = time.Now()
}

// SetDataSet replaces a DataSetType metric's table value.
func (m *Metric) SetDataSet(ds *DataSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataSet = ds
	m.isNull = false
	m.timestamp = time.Now()
}

// changedSinceLastSent reports whether value/null-state differs from what
// was last serialized onto the wire, or has never been sent. Caller must
// hold m.mu.
func (m *Metric) changedSinceLastSent() bool {
	if !m.everSent {
		return true
	}
	if m.isNull != m.lastSentNull {
		return true
	}
	if m.isNull {
		return false
	}
	if m.dataType == DataSetType {
		return true // DataSet identity isn't cheaply comparable; always resend on dirty mark.
	}
	return !valuesEqual(m.value, m.lastSent, m.dataType)
}

// markSent snapshots the currently-serialized state as "last sent".
func (m *Metric) markSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.everSent = true
	m.lastSent = m.value
	m.lastSentNull = m.isNull
	for _, p := range m.properties {
		p.markSent()
	}
}

// receive applies an inbound command value, updates last_received
// bookkeeping and invokes the command handler if one is attached. Runs on
// the owning Node's worker goroutine.
func (m *Metric) receive(v Value, isNull bool) error {
	m.mu.Lock()
	m.lastReceived = v
	m.lastReceivedNull = isNull
	m.everReceived = true
	m.mu.Unlock()
	if isNull {
		return nil
	}
	if m.cmdHandler != nil {
		return m.cmdHandler(m, v)
	}
	return nil
}

// toWireBirth serializes the metric's full state: name, alias, datatype,
// timestamp, value/null and every attached property, regardless of dirty
// state. Used for NBIRTH/DBIRTH.
func (m *Metric) toWireBirth(u32InLong bool) (*wire.Metric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toWire(u32InLong, m.properties)
}

// toWireData serializes the metric by alias only, including just the
// properties marked report-with-data. Used for NDATA/DDATA. Returns
// (nil, nil) if neither the value/null-state nor any report-with-data
// property changed, and the metric should be omitted from the payload.
func (m *Metric) toWireData(u32InLong bool) (*wire.Metric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.changedSinceLastSent()
	var dirty []*Property
	for _, p := range m.properties {
		if p.reportWithData {
			dirty = append(dirty, p)
			if p.changedSinceLastSent() {
				changed = true
			}
		}
	}
	if !changed {
		return nil, nil
	}
	w, err := m.toWire(u32InLong, dirty)
	if err != nil {
		return nil, err
	}
	w.HasName = false
	w.Name = ""
	return w, nil
}

// toWire assumes m.mu is already held by the caller (toWireBirth/toWireData).
func (m *Metric) toWire(u32InLong bool, props []*Property) (*wire.Metric, error) {
	w := &wire.Metric{
		HasName:     true,
		Name:        m.name,
		HasAlias:    true,
		Alias:       m.alias,
		HasDatatype: true,
		Datatype:    uint32(m.dataType),
	}
	if !m.timestamp.IsZero() {
		w.HasTimestamp = true
		w.Timestamp = uint64(m.timestamp.UnixMilli())
	}
	if m.isNull {
		w.HasIsNull = true
		w.IsNull = true
	} else if m.dataType == DataSetType {
		if m.dataSet == nil {
			return nil, &SchemaError{Reason: "DataSet metric has no DataSet value"}
		}
		ds, err := m.dataSet.toWire(u32InLong)
		if err != nil {
			return nil, err
		}
		w.DataSetValue = ds
	} else {
		slot, err := valueToSlot(m.value, m.dataType, u32InLong)
		if err != nil {
			return nil, err
		}
		applyMetricSlot(w, slot)
	}
	if len(props) > 0 {
		ps, err := bulkProperties(props, u32InLong)
		if err != nil {
			return nil, err
		}
		w.Properties = ps
	}
	return w, nil
}

func metricFromWireBirth(w *wire.Metric) (*Metric, error) {
	m := &Metric{name: w.Name, alias: w.Alias, dataType: DataType(w.Datatype)}
	if w.HasTimestamp {
		m.timestamp = time.UnixMilli(int64(w.Timestamp))
	}
	if w.HasIsNull && w.IsNull {
		m.isNull = true
	} else if m.dataType == DataSetType {
		ds, err := dataSetFromWire(w.DataSetValue)
		if err != nil {
			return nil, err
		}
		m.dataSet = ds
	} else {
		v, err := slotToValue(metricSlot(w), m.dataType)
		if err != nil {
			return nil, &DecodeError{Metric: w.Name, Reason: err.Error()}
		}
		m.value = v
	}
	return m, nil
}
