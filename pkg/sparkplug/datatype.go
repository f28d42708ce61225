// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sparkplug implements the session-lifecycle core of a Sparkplug B
// edge node: the metric/property/payload model and the concurrency
// discipline binding a long-lived MQTT session to application code running
// on other goroutines.
package sparkplug

import "fmt"

// DataType is the closed enumeration of Sparkplug B metric/property/
// parameter datatypes. Values match the wire-level datatype codes used by
// the Sparkplug B payload schema (§6.2) so they can be written directly
// into a Metric/PropertyValue's datatype field.
type DataType uint32

const (
	Unknown DataType = 0
	Int8    DataType = 1
	Int16   DataType = 2
	Int32   DataType = 3
	Int64   DataType = 4
	UInt8   DataType = 5
	UInt16  DataType = 6
	UInt32  DataType = 7
	UInt64  DataType = 8
	Float   DataType = 9
	Double  DataType = 10
	Boolean DataType = 11
	String  DataType = 12
	// DateTime is semantically a 64-bit unsigned millisecond epoch.
	DateTime        DataType = 13
	Text             DataType = 14
	UUID             DataType = 15
	DataSetType      DataType = 16
	Bytes            DataType = 17
	File             DataType = 18
	Template         DataType = 19
	PropertySet      DataType = 20
	PropertySetList  DataType = 21

	// Array datatypes (§6.3): the wire value is always a single packed byte
	// slice (bytes_value), never a repeated scalar field; see
	// pkg/sparkplug/arraypack for the packing rules.
	Int8Array     DataType = 22
	Int16Array    DataType = 23
	Int32Array    DataType = 24
	Int64Array    DataType = 25
	UInt8Array    DataType = 26
	UInt16Array   DataType = 27
	UInt32Array   DataType = 28
	UInt64Array   DataType = 29
	FloatArray    DataType = 30
	DoubleArray   DataType = 31
	BooleanArray  DataType = 32
	StringArray   DataType = 33
	DateTimeArray DataType = 34
)

func (d DataType) String() string {
	switch d {
	case Unknown:
		return "Unknown"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case DateTime:
		return "DateTime"
	case Text:
		return "Text"
	case UUID:
		return "UUID"
	case DataSetType:
		return "DataSet"
	case Bytes:
		return "Bytes"
	case File:
		return "File"
	case Template:
		return "Template"
	case PropertySet:
		return "PropertySet"
	case PropertySetList:
		return "PropertySetList"
	case Int8Array:
		return "Int8Array"
	case Int16Array:
		return "Int16Array"
	case Int32Array:
		return "Int32Array"
	case Int64Array:
		return "Int64Array"
	case UInt8Array:
		return "UInt8Array"
	case UInt16Array:
		return "UInt16Array"
	case UInt32Array:
		return "UInt32Array"
	case UInt64Array:
		return "UInt64Array"
	case FloatArray:
		return "FloatArray"
	case DoubleArray:
		return "DoubleArray"
	case BooleanArray:
		return "BooleanArray"
	case StringArray:
		return "StringArray"
	case DateTimeArray:
		return "DateTimeArray"
	default:
		return fmt.Sprintf("DataType(%d)", uint32(d))
	}
}

// IsArray reports whether d is one of the array datatypes, whose wire
// representation is always a single packed bytes_value.
func (d DataType) IsArray() bool {
	switch d {
	case Int8Array, Int16Array, Int32Array, Int64Array, UInt8Array, UInt16Array,
		UInt32Array, UInt64Array, FloatArray, DoubleArray, BooleanArray, StringArray, DateTimeArray:
		return true
	default:
		return false
	}
}

// IsInt reports whether d is one of the eight signed/unsigned integer
// datatypes.
func (d DataType) IsInt() bool {
	switch d {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	default:
		return false
	}
}

func (d DataType) isSigned() bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// intRange returns the (min, max) bounds of an integer datatype's declared
// range, used to clamp out-of-range decoded values per §4.1.
func intRange(d DataType) (min, max int64) {
	switch d {
	case Int8:
		return -128, 127
	case UInt8:
		return 0, 255
	case Int16:
		return -32768, 32767
	case UInt16:
		return 0, 65535
	case Int32:
		return -2147483648, 2147483647
	case UInt32:
		return 0, 4294967295
	case Int64:
		return -9223372036854775808, 9223372036854775807
	default:
		// UInt64 has no int64-representable upper bound; its values are
		// clamped separately by clampUint64.
		return 0, 0
	}
}

// clampInt saturates x to the declared range of d (for signed/bounded
// integer datatypes whose full range fits in an int64: everything except
// UInt64).
func clampInt(x int64, d DataType) int64 {
	min, max := intRange(d)
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// clampUint64 saturates x to the range of UInt64. Every value representable
// by a Go uint64 already lies in [0, 2^64-1], so this is the identity
// function; it exists so UInt64 has an explicit clamp call site alongside
// clampInt's, rather than silently bypassing the clamp step.
func clampUint64(x uint64) uint64 {
	return x
}

// inferDataType implements the dynamic-datatype-inference rule of §9 design
// notes: integer -> Int64, floating -> Double, boolean -> Boolean,
// string -> String, bytes -> Bytes. Returns SchemaError for anything else.
func inferDataType(value any) (DataType, error) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int64, nil
	case float32, float64:
		return Double, nil
	case bool:
		return Boolean, nil
	case string:
		return String, nil
	case []byte:
		return Bytes, nil
	default:
		return Unknown, &SchemaError{Reason: fmt.Sprintf("no inferrable Sparkplug datatype for Go type %T", value)}
	}
}
