// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the tag/length/value binary encoding of the
// Sparkplug B payload schema described in spec §6.2. This is the leaf
// encode/decode primitive the session core consumes; it knows nothing
// about metric lifecycle, birth/death semantics or sequencing.
//
// Field tags are chosen to be bit-compatible with the Sparkplug B .proto
// schema published by Eclipse Tahu, built with
// google.golang.org/protobuf/encoding/protowire rather than a generated
// .pb.go, since the core only ever needs the message shape in §6.2.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, bit-compatible with the Sparkplug B .proto schema.
const (
	fieldPayloadTimestamp = 1
	fieldPayloadMetrics   = 2
	fieldPayloadSeq       = 3
	fieldPayloadUUID      = 4
	fieldPayloadBody      = 5

	fieldMetricName         = 1
	fieldMetricAlias        = 2
	fieldMetricTimestamp    = 3
	fieldMetricDatatype     = 4
	fieldMetricIsHistorical = 5
	fieldMetricIsTransient  = 6
	fieldMetricIsNull       = 7
	fieldMetricProperties   = 8
	fieldMetricIntValue     = 9
	fieldMetricLongValue    = 10
	fieldMetricFloatValue   = 11
	fieldMetricDoubleValue  = 12
	fieldMetricBoolValue    = 13
	fieldMetricStringValue  = 14
	fieldMetricBytesValue   = 15
	fieldMetricDatasetValue = 16
	fieldMetricTemplateVal  = 17

	fieldPropSetKeys   = 1
	fieldPropSetValues = 2

	fieldPropValType        = 1
	fieldPropValIsNull      = 2
	fieldPropValIntValue    = 3
	fieldPropValLongValue   = 4
	fieldPropValFloatValue  = 5
	fieldPropValDoubleValue = 6
	fieldPropValBoolValue   = 7
	fieldPropValStringValue = 8
	fieldPropValBytesValue  = 9
	fieldPropValDatasetVal  = 10
	fieldPropValTemplateVal = 11

	fieldDataSetNumCols = 1
	fieldDataSetColumns = 2
	fieldDataSetTypes   = 3
	fieldDataSetRows    = 4

	fieldRowElements = 1

	fieldDSValIntValue    = 1
	fieldDSValLongValue   = 2
	fieldDSValFloatValue  = 3
	fieldDSValDoubleValue = 4
	fieldDSValBoolValue   = 5
	fieldDSValStringValue = 6

	fieldTemplateVersion    = 1
	fieldTemplateMetrics    = 2
	fieldTemplateParams     = 3
	fieldTemplateRef        = 4
	fieldTemplateIsDef      = 5

	fieldParamName        = 1
	fieldParamType        = 2
	fieldParamIntValue    = 3
	fieldParamLongValue   = 4
	fieldParamFloatValue  = 5
	fieldParamDoubleValue = 6
	fieldParamBoolValue   = 7
	fieldParamStringValue = 8
)

// Value is the oneof-value slot shared by Metric, PropertyValue,
// DataSetValue and Parameter, per spec §6.2. Only the fields relevant to
// the container type in question are populated/consulted.
type Value struct {
	HasInt     bool
	IntValue   uint32
	HasLong    bool
	LongValue  uint64
	HasFloat   bool
	FloatValue float32
	HasDouble  bool
	DoubleValue float64
	HasBool    bool
	BoolValue  bool
	HasString  bool
	StringValue string
	HasBytes   bool
	BytesValue []byte
	DataSetValue  *DataSet
	TemplateValue *Template
}

// Payload is the top-level Sparkplug B message.
type Payload struct {
	HasTimestamp bool
	Timestamp    uint64
	Metrics      []*Metric
	HasSeq       bool
	Seq          uint64
	HasUUID      bool
	UUID         string
	HasBody      bool
	Body         []byte
}

// Metric is a single Sparkplug B metric record.
type Metric struct {
	HasName        bool
	Name           string
	HasAlias       bool
	Alias          uint64
	HasTimestamp   bool
	Timestamp      uint64
	HasDatatype    bool
	Datatype       uint32
	IsHistorical   bool
	IsTransient    bool
	HasIsNull      bool
	IsNull         bool
	Properties     *PropertySet
	Value
}

// PropertySet is a parallel-array (keys, values) property collection.
type PropertySet struct {
	Keys   []string
	Values []*PropertyValue
}

// PropertyValue is one entry of a PropertySet.
type PropertyValue struct {
	Type      uint32
	HasIsNull bool
	IsNull    bool
	Value
}

// DataSet is the wire shape of a Sparkplug B DataSet value.
type DataSet struct {
	NumOfColumns uint64
	Columns      []string
	Types        []uint32
	Rows         []*Row
}

// Row is one row of a DataSet.
type Row struct {
	Elements []*DataSetValue
}

// DataSetValue is one cell of a DataSet row; it only supports the six
// scalar oneof slots (no nested DataSet/Template), per spec §6.2.
type DataSetValue struct {
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
}

// Template is the wire shape of a Sparkplug B Template value.
type Template struct {
	HasVersion bool
	Version    string
	Metrics    []*Metric
	Parameters []*Parameter
	HasRef     bool
	TemplateRef string
	HasIsDef   bool
	IsDefinition bool
}

// Parameter is one entry of a Template's parameter list.
type Parameter struct {
	HasName bool
	Name    string
	HasType bool
	Type    uint32

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
}

var errTruncated = fmt.Errorf("wire: truncated message")
