// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"sync"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

// Property is a named, typed value attached to a Metric, Payload or
// Template parameter's PropertySet. Its DataType is fixed at construction;
// only the value may change afterward.
type Property struct {
	mu sync.Mutex

	name           string
	dataType       DataType
	value          Value
	reportWithData bool
	lastSent       Value
	everSent       bool
}

// NewProperty constructs a Property. reportWithData controls whether the
// property is re-included on every DATA message of its metric (true) or
// only on BIRTH (false, the common case for mostly-static metadata such as
// units or engineering limits); a false property that changes is not sent
// until the next BIRTH.
func NewProperty(name string, dataType DataType, value Value, reportWithData bool) *Property {
	return &Property{
		name:           name,
		dataType:       dataType,
		value:          value,
		reportWithData: reportWithData,
	}
}

func (p *Property) Name() string       { return p.name }
func (p *Property) DataType() DataType { return p.dataType }

func (p *Property) Value() Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// SetValue updates the property's value. The datatype is immutable.
func (p *Property) SetValue(v Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
}

// changedSinceLastSent reports whether the property's value differs from
// the one last serialized, or has never been sent.
func (p *Property) changedSinceLastSent() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.everSent {
		return true
	}
	return !valuesEqual(p.value, p.lastSent, p.dataType)
}

func (p *Property) markSent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSent = p.value
	p.everSent = true
}

func valuesEqual(a, b Value, d DataType) bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		ai, aok := a.Int64()
		bi, bok := b.Int64()
		return aok && bok && ai == bi
	case UInt8, UInt16, UInt32, UInt64, DateTime:
		au, aok := a.Uint64()
		bu, bok := b.Uint64()
		return aok && bok && au == bu
	case Float:
		af, aok := a.Float32()
		bf, bok := b.Float32()
		return aok && bok && af == bf
	case Double:
		af, aok := a.Float64()
		bf, bok := b.Float64()
		return aok && bok && af == bf
	case Boolean:
		ab, aok := a.Bool()
		bb, bok := b.Bool()
		return aok && bok && ab == bb
	case String, Text, UUID:
		as, aok := a.String()
		bs, bok := b.String()
		return aok && bok && as == bs
	case Bytes, File:
		ay, aok := a.Bytes()
		by, bok := b.Bytes()
		return aok && bok && string(ay) == string(by)
	default:
		if d.IsArray() {
			ay, aok := a.PackedArray()
			by, bok := b.PackedArray()
			return aok && bok && string(ay) == string(by)
		}
		return false
	}
}

// ignitionQualityProperty returns the well-known Ignition "Quality"
// property (192 = GOOD, 500 = BAD, 508 = STALE) used by Ignition-compatible
// SCADA hosts to flag a metric's data quality without a separate metric.
func ignitionQualityProperty(quality int32) *Property {
	return NewProperty("Quality", Int32, IntValue(int64(quality)), true)
}

func ignitionGoodQualityProperty() *Property  { return ignitionQualityProperty(192) }
func ignitionBadQualityProperty() *Property   { return ignitionQualityProperty(500) }
func ignitionStaleQualityProperty() *Property { return ignitionQualityProperty(508) }

// ignitionLowProperty and ignitionHighProperty attach the Ignition
// engineering-range hints a gauge-style metric is expected to carry.
func ignitionLowProperty(low float64) *Property {
	return NewProperty("engLow", Double, DoubleValue(low), false)
}

func ignitionHighProperty(high float64) *Property {
	return NewProperty("engHigh", Double, DoubleValue(high), false)
}

// bulkProperties builds a PropertySet from an ordered list of Properties,
// skipping nothing: BIRTH callers pass every declared property; DATA
// callers pre-filter to the reportWithData properties.
func bulkProperties(props []*Property, u32InLong bool) (*wire.PropertySet, error) {
	if len(props) == 0 {
		return nil, nil
	}
	ps := &wire.PropertySet{
		Keys:   make([]string, len(props)),
		Values: make([]*wire.PropertyValue, len(props)),
	}
	for i, p := range props {
		p.mu.Lock()
		name, dataType, value := p.name, p.dataType, p.value
		p.mu.Unlock()
		ps.Keys[i] = name
		slot, err := valueToSlot(value, dataType, u32InLong)
		if err != nil {
			return nil, err
		}
		pv := &wire.PropertyValue{Type: uint32(dataType)}
		applyPropertyValueSlot(pv, slot)
		ps.Values[i] = pv
	}
	return ps, nil
}
