// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"fmt"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/arraypack"
	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

// Value is a dynamically-typed metric/property/parameter value. The zero
// Value is null: Kind is Unknown and no accessor returns ok.
type Value struct {
	kind DataType
	i    int64
	u    uint64
	f32  float32
	f64  float64
	b    bool
	s    string
	by   []byte
}

// Kind reports the datatype the value was constructed with. It is advisory
// only; the datatype actually written to the wire is whatever the owning
// Metric/Property/Parameter declares.
func (v Value) Kind() DataType { return v.kind }

func IntValue(x int64) Value      { return Value{kind: Int64, i: x} }
func UintValue(x uint64) Value    { return Value{kind: UInt64, u: x} }
func FloatValue(x float32) Value  { return Value{kind: Float, f32: x} }
func DoubleValue(x float64) Value { return Value{kind: Double, f64: x} }
func BoolValue(x bool) Value      { return Value{kind: Boolean, b: x} }
func StringValue(x string) Value  { return Value{kind: String, s: x} }
func BytesValue(x []byte) Value   { return Value{kind: Bytes, by: append([]byte(nil), x...)} }

// NewValue builds a Value from a plain Go value, inferring a DataType with
// the same rule Metric construction uses when no explicit type is given.
func NewValue(x any) (Value, error) {
	switch t := x.(type) {
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return IntValue(int64(t)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return IntValue(int64(t)), nil
	case float32:
		return DoubleValue(float64(t)), nil
	case float64:
		return DoubleValue(t), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case []byte:
		return BytesValue(t), nil
	default:
		return Value{}, &SchemaError{Reason: fmt.Sprintf("no inferrable Sparkplug datatype for Go type %T", x)}
	}
}

func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case Int8, Int16, Int32, Int64:
		return v.i, true
	case UInt8, UInt16, UInt32, UInt64, DateTime:
		return int64(v.u), true
	}
	return 0, false
}

func (v Value) Uint64() (uint64, bool) {
	switch v.kind {
	case UInt8, UInt16, UInt32, UInt64, DateTime:
		return v.u, true
	case Int8, Int16, Int32, Int64:
		return uint64(v.i), true
	}
	return 0, false
}

func (v Value) Float32() (float32, bool) {
	if v.kind == Float {
		return v.f32, true
	}
	return 0, false
}

func (v Value) Float64() (float64, bool) {
	if v.kind == Double {
		return v.f64, true
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	if v.kind == Boolean {
		return v.b, true
	}
	return false, false
}

func (v Value) String() (string, bool) {
	switch v.kind {
	case String, Text, UUID:
		return v.s, true
	}
	return "", false
}

func (v Value) Bytes() ([]byte, bool) {
	switch v.kind {
	case Bytes, File:
		return v.by, true
	}
	return nil, false
}

// PackedArray returns the raw packed bytes underlying an array-typed Value,
// in the wire form pkg/sparkplug/arraypack produces/consumes.
func (v Value) PackedArray() ([]byte, bool) {
	if !v.kind.IsArray() {
		return nil, false
	}
	return v.by, true
}

// Array value constructors: each packs its typed slice via arraypack into
// the byte slice that travels in the wire bytes_value slot.
func Int8ArrayValue(x []int8) Value    { return Value{kind: Int8Array, by: arraypack.PackInt8(x)} }
func UInt8ArrayValue(x []uint8) Value  { return Value{kind: UInt8Array, by: arraypack.PackUint8(x)} }
func Int16ArrayValue(x []int16) Value  { return Value{kind: Int16Array, by: arraypack.PackInt16(x)} }
func UInt16ArrayValue(x []uint16) Value {
	return Value{kind: UInt16Array, by: arraypack.PackUint16(x)}
}
func Int32ArrayValue(x []int32) Value { return Value{kind: Int32Array, by: arraypack.PackInt32(x)} }
func UInt32ArrayValue(x []uint32) Value {
	return Value{kind: UInt32Array, by: arraypack.PackUint32(x)}
}
func Int64ArrayValue(x []int64) Value { return Value{kind: Int64Array, by: arraypack.PackInt64(x)} }
func UInt64ArrayValue(x []uint64) Value {
	return Value{kind: UInt64Array, by: arraypack.PackUint64(x)}
}
func DateTimeArrayValue(x []int64) Value {
	return Value{kind: DateTimeArray, by: arraypack.PackDateTime(x)}
}
func FloatArrayValue(x []float32) Value { return Value{kind: FloatArray, by: arraypack.PackFloat(x)} }
func DoubleArrayValue(x []float64) Value {
	return Value{kind: DoubleArray, by: arraypack.PackDouble(x)}
}
func BooleanArrayValue(x []bool) Value { return Value{kind: BooleanArray, by: arraypack.PackBool(x)} }
func StringArrayValue(x []string) Value {
	return Value{kind: StringArray, by: arraypack.PackString(x)}
}

// Int8Array and its siblings unpack a Value previously built by the
// matching *ArrayValue constructor (or decoded off the wire as the same
// array datatype). ok is false if the Value's kind does not match.
func (v Value) Int8Array() ([]int8, bool) {
	if v.kind != Int8Array {
		return nil, false
	}
	return arraypack.UnpackInt8(v.by), true
}

func (v Value) UInt8Array() ([]uint8, bool) {
	if v.kind != UInt8Array {
		return nil, false
	}
	return arraypack.UnpackUint8(v.by), true
}

func (v Value) Int16Array() ([]int16, bool) {
	if v.kind != Int16Array {
		return nil, false
	}
	x, err := arraypack.UnpackInt16(v.by)
	return x, err == nil
}

func (v Value) UInt16Array() ([]uint16, bool) {
	if v.kind != UInt16Array {
		return nil, false
	}
	x, err := arraypack.UnpackUint16(v.by)
	return x, err == nil
}

func (v Value) Int32Array() ([]int32, bool) {
	if v.kind != Int32Array {
		return nil, false
	}
	x, err := arraypack.UnpackInt32(v.by)
	return x, err == nil
}

func (v Value) UInt32Array() ([]uint32, bool) {
	if v.kind != UInt32Array {
		return nil, false
	}
	x, err := arraypack.UnpackUint32(v.by)
	return x, err == nil
}

func (v Value) Int64Array() ([]int64, bool) {
	if v.kind != Int64Array {
		return nil, false
	}
	x, err := arraypack.UnpackInt64(v.by)
	return x, err == nil
}

func (v Value) UInt64Array() ([]uint64, bool) {
	if v.kind != UInt64Array {
		return nil, false
	}
	x, err := arraypack.UnpackUint64(v.by)
	return x, err == nil
}

func (v Value) DateTimeArray() ([]int64, bool) {
	if v.kind != DateTimeArray {
		return nil, false
	}
	x, err := arraypack.UnpackDateTime(v.by)
	return x, err == nil
}

func (v Value) FloatArray() ([]float32, bool) {
	if v.kind != FloatArray {
		return nil, false
	}
	x, err := arraypack.UnpackFloat(v.by)
	return x, err == nil
}

func (v Value) DoubleArray() ([]float64, bool) {
	if v.kind != DoubleArray {
		return nil, false
	}
	x, err := arraypack.UnpackDouble(v.by)
	return x, err == nil
}

func (v Value) BooleanArray() ([]bool, bool) {
	if v.kind != BooleanArray {
		return nil, false
	}
	x, err := arraypack.UnpackBool(v.by)
	return x, err == nil
}

func (v Value) StringArray() ([]string, bool) {
	if v.kind != StringArray {
		return nil, false
	}
	return arraypack.UnpackString(v.by), true
}

// wireSlot is the scalar subset of the oneof value slots shared by
// wire.Metric, wire.PropertyValue, wire.Parameter and wire.DataSetValue.
type wireSlot struct {
	HasInt      bool
	IntValue    uint32
	HasLong     bool
	LongValue   uint64
	HasFloat    bool
	FloatValue  float32
	HasDouble   bool
	DoubleValue float64
	HasBool     bool
	BoolValue   bool
	HasString   bool
	StringValue string
	HasBytes    bool
	BytesValue  []byte
}

// valueToSlot reinterprets v as the wire slot appropriate for datatype d.
// Signed values that use a narrower-than-declared wire width are
// two's-complement reinterpreted into the unsigned wire slot, per §6.2:
// Int8/16/32 occupy the 32-bit int_value slot, Int64 occupies the 64-bit
// long_value slot. UInt32 uses the 32-bit slot unless u32InLong requests the
// 64-bit slot for peers that do not tolerate UInt32 in int_value.
func valueToSlot(v Value, d DataType, u32InLong bool) (wireSlot, error) {
	switch d {
	case Int8, Int16, Int32:
		x, ok := v.Int64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not an integer for datatype %s", d)}
		}
		x = clampInt(x, d)
		switch d {
		case Int8:
			return wireSlot{HasInt: true, IntValue: uint32(uint8(int8(x)))}, nil
		case Int16:
			return wireSlot{HasInt: true, IntValue: uint32(uint16(int16(x)))}, nil
		}
		return wireSlot{HasInt: true, IntValue: uint32(int32(x))}, nil
	case UInt8, UInt16:
		x, ok := v.Int64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not an integer for datatype %s", d)}
		}
		x = clampInt(x, d)
		return wireSlot{HasInt: true, IntValue: uint32(x)}, nil
	case UInt32:
		x, ok := v.Int64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not an integer for datatype %s", d)}
		}
		x = clampInt(x, d)
		if u32InLong {
			return wireSlot{HasLong: true, LongValue: uint64(x)}, nil
		}
		return wireSlot{HasInt: true, IntValue: uint32(x)}, nil
	case Int64:
		x, ok := v.Int64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: "value is not an integer for datatype Int64"}
		}
		return wireSlot{HasLong: true, LongValue: uint64(x)}, nil
	case UInt64, DateTime:
		x, ok := v.Uint64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not an integer for datatype %s", d)}
		}
		return wireSlot{HasLong: true, LongValue: clampUint64(x)}, nil
	case Float:
		x, ok := v.Float32()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: "value is not a float32 for datatype Float"}
		}
		return wireSlot{HasFloat: true, FloatValue: x}, nil
	case Double:
		x, ok := v.Float64()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: "value is not a float64 for datatype Double"}
		}
		return wireSlot{HasDouble: true, DoubleValue: x}, nil
	case Boolean:
		x, ok := v.Bool()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: "value is not a bool for datatype Boolean"}
		}
		return wireSlot{HasBool: true, BoolValue: x}, nil
	case String, Text, UUID:
		x, ok := v.String()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not a string for datatype %s", d)}
		}
		return wireSlot{HasString: true, StringValue: x}, nil
	case Bytes, File:
		x, ok := v.Bytes()
		if !ok {
			return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not []byte for datatype %s", d)}
		}
		return wireSlot{HasBytes: true, BytesValue: x}, nil
	default:
		if d.IsArray() {
			packed, ok := v.PackedArray()
			if !ok || v.kind != d {
				return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("value is not a packed %s", d)}
			}
			return wireSlot{HasBytes: true, BytesValue: packed}, nil
		}
		return wireSlot{}, &SchemaError{Reason: fmt.Sprintf("datatype %s has no scalar wire slot", d)}
	}
}

// slotToValue is the tolerant inverse of valueToSlot, per §4.8's
// decode-tolerance rule: an integer datatype decodes from the int_value,
// long_value or bool slot (so a peer that writes UInt32 into long_value
// still decodes cleanly), and Float/Double decode from either float slot.
// Every other datatype decodes only from its own slot; a missing acceptable
// slot is a DecodeError.
func slotToValue(s wireSlot, d DataType) (Value, error) {
	switch d {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, DateTime:
		var x int64
		switch {
		case s.HasInt:
			switch d {
			case Int8:
				x = int64(int8(uint8(s.IntValue)))
			case Int16:
				x = int64(int16(uint16(s.IntValue)))
			case Int32, Int64:
				x = int64(int32(s.IntValue))
			default:
				x = int64(s.IntValue)
			}
		case s.HasLong:
			if d.isSigned() {
				x = int64(s.LongValue)
			} else {
				x = int64(s.LongValue)
			}
		case s.HasBool:
			if s.BoolValue {
				x = 1
			}
		default:
			return Value{}, &DecodeError{Reason: fmt.Sprintf("no integer slot present for datatype %s", d)}
		}
		if d == UInt64 || d == DateTime {
			return Value{kind: d, u: uint64(x)}, nil
		}
		x = clampInt(x, d)
		if d.isSigned() {
			return Value{kind: d, i: x}, nil
		}
		return Value{kind: d, u: uint64(x)}, nil
	case Float:
		if s.HasFloat {
			return Value{kind: Float, f32: s.FloatValue}, nil
		}
		if s.HasDouble {
			return Value{kind: Float, f32: float32(s.DoubleValue)}, nil
		}
		return Value{}, &DecodeError{Reason: "no float or double slot present for datatype Float"}
	case Double:
		if s.HasDouble {
			return Value{kind: Double, f64: s.DoubleValue}, nil
		}
		if s.HasFloat {
			return Value{kind: Double, f64: float64(s.FloatValue)}, nil
		}
		return Value{}, &DecodeError{Reason: "no float or double slot present for datatype Double"}
	case Boolean:
		if !s.HasBool {
			return Value{}, &DecodeError{Reason: "no bool slot present for datatype Boolean"}
		}
		return Value{kind: Boolean, b: s.BoolValue}, nil
	case String, Text, UUID:
		if !s.HasString {
			return Value{}, &DecodeError{Reason: fmt.Sprintf("no string slot present for datatype %s", d)}
		}
		return Value{kind: d, s: s.StringValue}, nil
	case Bytes, File:
		if !s.HasBytes {
			return Value{}, &DecodeError{Reason: fmt.Sprintf("no bytes slot present for datatype %s", d)}
		}
		return Value{kind: d, by: s.BytesValue}, nil
	default:
		if d.IsArray() {
			if !s.HasBytes {
				return Value{}, &DecodeError{Reason: fmt.Sprintf("no bytes slot present for array datatype %s", d)}
			}
			return Value{kind: d, by: s.BytesValue}, nil
		}
		return Value{}, &DecodeError{Reason: fmt.Sprintf("datatype %s has no scalar wire slot", d)}
	}
}

func metricSlot(m *wire.Metric) wireSlot {
	return wireSlot{
		HasInt: m.HasInt, IntValue: m.IntValue,
		HasLong: m.HasLong, LongValue: m.LongValue,
		HasFloat: m.HasFloat, FloatValue: m.FloatValue,
		HasDouble: m.HasDouble, DoubleValue: m.DoubleValue,
		HasBool: m.HasBool, BoolValue: m.BoolValue,
		HasString: m.HasString, StringValue: m.StringValue,
		HasBytes: m.HasBytes, BytesValue: m.BytesValue,
	}
}

func applyMetricSlot(m *wire.Metric, s wireSlot) {
	m.HasInt, m.IntValue = s.HasInt, s.IntValue
	m.HasLong, m.LongValue = s.HasLong, s.LongValue
	m.HasFloat, m.FloatValue = s.HasFloat, s.FloatValue
	m.HasDouble, m.DoubleValue = s.HasDouble, s.DoubleValue
	m.HasBool, m.BoolValue = s.HasBool, s.BoolValue
	m.HasString, m.StringValue = s.HasString, s.StringValue
	m.HasBytes, m.BytesValue = s.HasBytes, s.BytesValue
}

func propertyValueSlot(p *wire.PropertyValue) wireSlot {
	return wireSlot{
		HasInt: p.HasInt, IntValue: p.IntValue,
		HasLong: p.HasLong, LongValue: p.LongValue,
		HasFloat: p.HasFloat, FloatValue: p.FloatValue,
		HasDouble: p.HasDouble, DoubleValue: p.DoubleValue,
		HasBool: p.HasBool, BoolValue: p.BoolValue,
		HasString: p.HasString, StringValue: p.StringValue,
		HasBytes: p.HasBytes, BytesValue: p.BytesValue,
	}
}

func applyPropertyValueSlot(p *wire.PropertyValue, s wireSlot) {
	p.HasInt, p.IntValue = s.HasInt, s.IntValue
	p.HasLong, p.LongValue = s.HasLong, s.LongValue
	p.HasFloat, p.FloatValue = s.HasFloat, s.FloatValue
	p.HasDouble, p.DoubleValue = s.HasDouble, s.DoubleValue
	p.HasBool, p.BoolValue = s.HasBool, s.BoolValue
	p.HasString, p.StringValue = s.HasString, s.StringValue
	p.HasBytes, p.BytesValue = s.HasBytes, s.BytesValue
}

func parameterSlot(p *wire.Parameter) wireSlot {
	return wireSlot{
		HasInt: p.HasInt, IntValue: p.IntValue,
		HasLong: p.HasLong, LongValue: p.LongValue,
		HasFloat: p.HasFloat, FloatValue: p.FloatValue,
		HasDouble: p.HasDouble, DoubleValue: p.DoubleValue,
		HasBool: p.HasBool, BoolValue: p.BoolValue,
		HasString: p.HasString, StringValue: p.StringValue,
	}
}

func applyParameterSlot(p *wire.Parameter, s wireSlot) {
	p.HasInt, p.IntValue = s.HasInt, s.IntValue
	p.HasLong, p.LongValue = s.HasLong, s.LongValue
	p.HasFloat, p.FloatValue = s.HasFloat, s.FloatValue
	p.HasDouble, p.DoubleValue = s.HasDouble, s.DoubleValue
	p.HasBool, p.BoolValue = s.HasBool, s.BoolValue
	p.HasString, p.StringValue = s.HasString, s.StringValue
}

func dataSetValueSlot(v *wire.DataSetValue) wireSlot {
	return wireSlot{
		HasInt: v.HasInt, IntValue: v.IntValue,
		HasLong: v.HasLong, LongValue: v.LongValue,
		HasFloat: v.HasFloat, FloatValue: v.FloatValue,
		HasDouble: v.HasDouble, DoubleValue: v.DoubleValue,
		HasBool: v.HasBool, BoolValue: v.BoolValue,
		HasString: v.HasString, StringValue: v.StringValue,
	}
}

func applyDataSetValueSlot(v *wire.DataSetValue, s wireSlot) {
	v.HasInt, v.IntValue = s.HasInt, s.IntValue
	v.HasLong, v.LongValue = s.HasLong, s.LongValue
	v.HasFloat, v.FloatValue = s.HasFloat, s.FloatValue
	v.HasDouble, v.DoubleValue = s.HasDouble, s.DoubleValue
	v.HasBool, v.BoolValue = s.HasBool, s.BoolValue
	v.HasString, v.StringValue = s.HasString, s.StringValue
}
