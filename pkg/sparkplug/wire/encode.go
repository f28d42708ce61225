// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package wire

import "google.golang.org/protobuf/encoding/protowire"

// EncodePayload serializes a Payload to its wire bytes.
func EncodePayload(p *Payload) []byte {
	var b []byte
	if p.HasTimestamp {
		b = protowire.AppendTag(b, fieldPayloadTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, p.Timestamp)
	}
	for _, m := range p.Metrics {
		b = protowire.AppendTag(b, fieldPayloadMetrics, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeMetric(m))
	}
	if p.HasSeq {
		b = protowire.AppendTag(b, fieldPayloadSeq, protowire.VarintType)
		b = protowire.AppendVarint(b, p.Seq)
	}
	if p.HasUUID {
		b = protowire.AppendTag(b, fieldPayloadUUID, protowire.BytesType)
		b = protowire.AppendString(b, p.UUID)
	}
	if p.HasBody {
		b = protowire.AppendTag(b, fieldPayloadBody, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Body)
	}
	return b
}

func encodeMetric(m *Metric) []byte {
	var b []byte
	if m.HasName {
		b = protowire.AppendTag(b, fieldMetricName, protowire.BytesType)
		b = protowire.AppendString(b, m.Name)
	}
	if m.HasAlias {
		b = protowire.AppendTag(b, fieldMetricAlias, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Alias)
	}
	if m.HasTimestamp {
		b = protowire.AppendTag(b, fieldMetricTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Timestamp)
	}
	if m.HasDatatype {
		b = protowire.AppendTag(b, fieldMetricDatatype, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Datatype))
	}
	if m.IsHistorical {
		b = protowire.AppendTag(b, fieldMetricIsHistorical, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(m.IsHistorical))
	}
	if m.IsTransient {
		b = protowire.AppendTag(b, fieldMetricIsTransient, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(m.IsTransient))
	}
	if m.HasIsNull {
		b = protowire.AppendTag(b, fieldMetricIsNull, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(m.IsNull))
	}
	if m.Properties != nil {
		b = protowire.AppendTag(b, fieldMetricProperties, protowire.BytesType)
		b = protowire.AppendBytes(b, encodePropertySet(m.Properties))
	}
	b = encodeMetricValue(b, m.Value)
	return b
}

func encodeMetricValue(b []byte, v Value) []byte {
	switch {
	case v.HasInt:
		b = protowire.AppendTag(b, fieldMetricIntValue, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.IntValue))
	case v.HasLong:
		b = protowire.AppendTag(b, fieldMetricLongValue, protowire.VarintType)
		b = protowire.AppendVarint(b, v.LongValue)
	case v.HasFloat:
		b = protowire.AppendTag(b, fieldMetricFloatValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, float32bits(v.FloatValue))
	case v.HasDouble:
		b = protowire.AppendTag(b, fieldMetricDoubleValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, float64bits(v.DoubleValue))
	case v.HasBool:
		b = protowire.AppendTag(b, fieldMetricBoolValue, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(v.BoolValue))
	case v.HasString:
		b = protowire.AppendTag(b, fieldMetricStringValue, protowire.BytesType)
		b = protowire.AppendString(b, v.StringValue)
	case v.HasBytes:
		b = protowire.AppendTag(b, fieldMetricBytesValue, protowire.BytesType)
		b = protowire.AppendBytes(b, v.BytesValue)
	case v.DataSetValue != nil:
		b = protowire.AppendTag(b, fieldMetricDatasetValue, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeDataSet(v.DataSetValue))
	case v.TemplateValue != nil:
		b = protowire.AppendTag(b, fieldMetricTemplateVal, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTemplate(v.TemplateValue))
	}
	return b
}

func encodePropertySet(ps *PropertySet) []byte {
	var b []byte
	for _, k := range ps.Keys {
		b = protowire.AppendTag(b, fieldPropSetKeys, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	for _, v := range ps.Values {
		b = protowire.AppendTag(b, fieldPropSetValues, protowire.BytesType)
		b = protowire.AppendBytes(b, encodePropertyValue(v))
	}
	return b
}

func encodePropertyValue(pv *PropertyValue) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPropValType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(pv.Type))
	if pv.HasIsNull {
		b = protowire.AppendTag(b, fieldPropValIsNull, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(pv.IsNull))
	}
	switch {
	case pv.HasInt:
		b = protowire.AppendTag(b, fieldPropValIntValue, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(pv.IntValue))
	case pv.HasLong:
		b = protowire.AppendTag(b, fieldPropValLongValue, protowire.VarintType)
		b = protowire.AppendVarint(b, pv.LongValue)
	case pv.HasFloat:
		b = protowire.AppendTag(b, fieldPropValFloatValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, float32bits(pv.FloatValue))
	case pv.HasDouble:
		b = protowire.AppendTag(b, fieldPropValDoubleValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, float64bits(pv.DoubleValue))
	case pv.HasBool:
		b = protowire.AppendTag(b, fieldPropValBoolValue, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(pv.BoolValue))
	case pv.HasString:
		b = protowire.AppendTag(b, fieldPropValStringValue, protowire.BytesType)
		b = protowire.AppendString(b, pv.StringValue)
	case pv.HasBytes:
		b = protowire.AppendTag(b, fieldPropValBytesValue, protowire.BytesType)
		b = protowire.AppendBytes(b, pv.BytesValue)
	case pv.DataSetValue != nil:
		b = protowire.AppendTag(b, fieldPropValDatasetVal, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeDataSet(pv.DataSetValue))
	case pv.TemplateValue != nil:
		b = protowire.AppendTag(b, fieldPropValTemplateVal, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTemplate(pv.TemplateValue))
	}
	return b
}

func encodeDataSet(ds *DataSet) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldDataSetNumCols, protowire.VarintType)
	b = protowire.AppendVarint(b, ds.NumOfColumns)
	for _, c := range ds.Columns {
		b = protowire.AppendTag(b, fieldDataSetColumns, protowire.BytesType)
		b = protowire.AppendString(b, c)
	}
	for _, t := range ds.Types {
		b = protowire.AppendTag(b, fieldDataSetTypes, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t))
	}
	for _, r := range ds.Rows {
		b = protowire.AppendTag(b, fieldDataSetRows, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeRow(r))
	}
	return b
}

func encodeRow(r *Row) []byte {
	var b []byte
	for _, e := range r.Elements {
		b = protowire.AppendTag(b, fieldRowElements, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeDataSetValue(e))
	}
	return b
}

func encodeDataSetValue(v *DataSetValue) []byte {
	var b []byte
	switch {
	case v.HasInt:
		b = protowire.AppendTag(b, fieldDSValIntValue, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.IntValue))
	case v.HasLong:
		b = protowire.AppendTag(b, fieldDSValLongValue, protowire.VarintType)
		b = protowire.AppendVarint(b, v.LongValue)
	case v.HasFloat:
		b = protowire.AppendTag(b, fieldDSValFloatValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, float32bits(v.FloatValue))
	case v.HasDouble:
		b = protowire.AppendTag(b, fieldDSValDoubleValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, float64bits(v.DoubleValue))
	case v.HasBool:
		b = protowire.AppendTag(b, fieldDSValBoolValue, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(v.BoolValue))
	case v.HasString:
		b = protowire.AppendTag(b, fieldDSValStringValue, protowire.BytesType)
		b = protowire.AppendString(b, v.StringValue)
	}
	return b
}

func encodeTemplate(t *Template) []byte {
	var b []byte
	if t.HasVersion {
		b = protowire.AppendTag(b, fieldTemplateVersion, protowire.BytesType)
		b = protowire.AppendString(b, t.Version)
	}
	for _, m := range t.Metrics {
		b = protowire.AppendTag(b, fieldTemplateMetrics, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeMetric(m))
	}
	for _, p := range t.Parameters {
		b = protowire.AppendTag(b, fieldTemplateParams, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeParameter(p))
	}
	if t.HasRef {
		b = protowire.AppendTag(b, fieldTemplateRef, protowire.BytesType)
		b = protowire.AppendString(b, t.TemplateRef)
	}
	if t.HasIsDef {
		b = protowire.AppendTag(b, fieldTemplateIsDef, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(t.IsDefinition))
	}
	return b
}

func encodeParameter(p *Parameter) []byte {
	var b []byte
	if p.HasName {
		b = protowire.AppendTag(b, fieldParamName, protowire.BytesType)
		b = protowire.AppendString(b, p.Name)
	}
	if p.HasType {
		b = protowire.AppendTag(b, fieldParamType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Type))
	}
	switch {
	case p.HasInt:
		b = protowire.AppendTag(b, fieldParamIntValue, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.IntValue))
	case p.HasLong:
		b = protowire.AppendTag(b, fieldParamLongValue, protowire.VarintType)
		b = protowire.AppendVarint(b, p.LongValue)
	case p.HasFloat:
		b = protowire.AppendTag(b, fieldParamFloatValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, float32bits(p.FloatValue))
	case p.HasDouble:
		b = protowire.AppendTag(b, fieldParamDoubleValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, float64bits(p.DoubleValue))
	case p.HasBool:
		b = protowire.AppendTag(b, fieldParamBoolValue, protowire.VarintType)
		b = protowire.AppendVarint(b, boolToVarint(p.BoolValue))
	case p.HasString:
		b = protowire.AppendTag(b, fieldParamStringValue, protowire.BytesType)
		b = protowire.AppendString(b, p.StringValue)
	}
	return b
}

func boolToVarint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
