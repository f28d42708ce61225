// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// DecodePayload parses wire bytes into a Payload. Structurally invalid
// input (truncated varints, mismatched wire types for a known field,
// unterminated length-delimited runs) yields an error; unknown fields are
// skipped, matching typical protobuf forward-compatibility.
func DecodePayload(b []byte) (*Payload, error) {
	p := &Payload{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldPayloadTimestamp:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasTimestamp, p.Timestamp = true, v
			b = b[n:]
		case fieldPayloadMetrics:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			m, err := decodeMetric(data)
			if err != nil {
				return nil, err
			}
			p.Metrics = append(p.Metrics, m)
			b = b[n:]
		case fieldPayloadSeq:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasSeq, p.Seq = true, v
			b = b[n:]
		case fieldPayloadUUID:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasUUID, p.UUID = true, s
			b = b[n:]
		case fieldPayloadBody:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasBody, p.Body = true, append([]byte(nil), data...)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return p, nil
}

func decodeMetric(b []byte) (*Metric, error) {
	m := &Metric{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldMetricName:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasName, m.Name = true, s
			b = b[n:]
		case fieldMetricAlias:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasAlias, m.Alias = true, v
			b = b[n:]
		case fieldMetricTimestamp:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasTimestamp, m.Timestamp = true, v
			b = b[n:]
		case fieldMetricDatatype:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasDatatype, m.Datatype = true, uint32(v)
			b = b[n:]
		case fieldMetricIsHistorical:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.IsHistorical = v != 0
			b = b[n:]
		case fieldMetricIsTransient:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.IsTransient = v != 0
			b = b[n:]
		case fieldMetricIsNull:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasIsNull, m.IsNull = true, v != 0
			b = b[n:]
		case fieldMetricProperties:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			ps, err := decodePropertySet(data)
			if err != nil {
				return nil, err
			}
			m.Properties = ps
			b = b[n:]
		case fieldMetricIntValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasInt, m.IntValue = true, uint32(v)
			b = b[n:]
		case fieldMetricLongValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasLong, m.LongValue = true, v
			b = b[n:]
		case fieldMetricFloatValue:
			v, n, err := consumeFixed32(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasFloat, m.FloatValue = true, float32frombits(v)
			b = b[n:]
		case fieldMetricDoubleValue:
			v, n, err := consumeFixed64(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasDouble, m.DoubleValue = true, float64frombits(v)
			b = b[n:]
		case fieldMetricBoolValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasBool, m.BoolValue = true, v != 0
			b = b[n:]
		case fieldMetricStringValue:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasString, m.StringValue = true, s
			b = b[n:]
		case fieldMetricBytesValue:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			m.HasBytes, m.BytesValue = true, append([]byte(nil), data...)
			b = b[n:]
		case fieldMetricDatasetValue:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			ds, err := decodeDataSet(data)
			if err != nil {
				return nil, err
			}
			m.DataSetValue = ds
			b = b[n:]
		case fieldMetricTemplateVal:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			tmpl, err := decodeTemplate(data)
			if err != nil {
				return nil, err
			}
			m.TemplateValue = tmpl
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return m, nil
}

func decodePropertySet(b []byte) (*PropertySet, error) {
	ps := &PropertySet{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldPropSetKeys:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			ps.Keys = append(ps.Keys, s)
			b = b[n:]
		case fieldPropSetValues:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			pv, err := decodePropertyValue(data)
			if err != nil {
				return nil, err
			}
			ps.Values = append(ps.Values, pv)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return ps, nil
}

func decodePropertyValue(b []byte) (*PropertyValue, error) {
	pv := &PropertyValue{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldPropValType:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			pv.Type = uint32(v)
			b = b[n:]
		case fieldPropValIsNull:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasIsNull, pv.IsNull = true, v != 0
			b = b[n:]
		case fieldPropValIntValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasInt, pv.IntValue = true, uint32(v)
			b = b[n:]
		case fieldPropValLongValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasLong, pv.LongValue = true, v
			b = b[n:]
		case fieldPropValFloatValue:
			v, n, err := consumeFixed32(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasFloat, pv.FloatValue = true, float32frombits(v)
			b = b[n:]
		case fieldPropValDoubleValue:
			v, n, err := consumeFixed64(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasDouble, pv.DoubleValue = true, float64frombits(v)
			b = b[n:]
		case fieldPropValBoolValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasBool, pv.BoolValue = true, v != 0
			b = b[n:]
		case fieldPropValStringValue:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasString, pv.StringValue = true, s
			b = b[n:]
		case fieldPropValBytesValue:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			pv.HasBytes, pv.BytesValue = true, append([]byte(nil), data...)
			b = b[n:]
		case fieldPropValDatasetVal:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			ds, err := decodeDataSet(data)
			if err != nil {
				return nil, err
			}
			pv.DataSetValue = ds
			b = b[n:]
		case fieldPropValTemplateVal:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			tmpl, err := decodeTemplate(data)
			if err != nil {
				return nil, err
			}
			pv.TemplateValue = tmpl
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return pv, nil
}

func decodeDataSet(b []byte) (*DataSet, error) {
	ds := &DataSet{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldDataSetNumCols:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			ds.NumOfColumns = v
			b = b[n:]
		case fieldDataSetColumns:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			ds.Columns = append(ds.Columns, s)
			b = b[n:]
		case fieldDataSetTypes:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			ds.Types = append(ds.Types, uint32(v))
			b = b[n:]
		case fieldDataSetRows:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			row, err := decodeRow(data)
			if err != nil {
				return nil, err
			}
			ds.Rows = append(ds.Rows, row)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	if int(ds.NumOfColumns) != len(ds.Columns) || int(ds.NumOfColumns) != len(ds.Types) {
		return nil, fmt.Errorf("wire: dataset column-count mismatch: declared=%d names=%d types=%d", ds.NumOfColumns, len(ds.Columns), len(ds.Types))
	}
	return ds, nil
}

func decodeRow(b []byte) (*Row, error) {
	row := &Row{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldRowElements:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			e, err := decodeDataSetValue(data)
			if err != nil {
				return nil, err
			}
			row.Elements = append(row.Elements, e)
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return row, nil
}

func decodeDataSetValue(b []byte) (*DataSetValue, error) {
	v := &DataSetValue{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldDSValIntValue:
			x, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasInt, v.IntValue = true, uint32(x)
			b = b[n:]
		case fieldDSValLongValue:
			x, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasLong, v.LongValue = true, x
			b = b[n:]
		case fieldDSValFloatValue:
			x, n, err := consumeFixed32(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasFloat, v.FloatValue = true, float32frombits(x)
			b = b[n:]
		case fieldDSValDoubleValue:
			x, n, err := consumeFixed64(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasDouble, v.DoubleValue = true, float64frombits(x)
			b = b[n:]
		case fieldDSValBoolValue:
			x, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasBool, v.BoolValue = true, x != 0
			b = b[n:]
		case fieldDSValStringValue:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			v.HasString, v.StringValue = true, s
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return v, nil
}

func decodeTemplate(b []byte) (*Template, error) {
	t := &Template{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldTemplateVersion:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			t.HasVersion, t.Version = true, s
			b = b[n:]
		case fieldTemplateMetrics:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			m, err := decodeMetric(data)
			if err != nil {
				return nil, err
			}
			t.Metrics = append(t.Metrics, m)
			b = b[n:]
		case fieldTemplateParams:
			data, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			p, err := decodeParameter(data)
			if err != nil {
				return nil, err
			}
			t.Parameters = append(t.Parameters, p)
			b = b[n:]
		case fieldTemplateRef:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			t.HasRef, t.TemplateRef = true, s
			b = b[n:]
		case fieldTemplateIsDef:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			t.HasIsDef, t.IsDefinition = true, v != 0
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return t, nil
}

func decodeParameter(b []byte) (*Parameter, error) {
	p := &Parameter{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errTruncated
		}
		b = b[n:]
		switch num {
		case fieldParamName:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasName, p.Name = true, s
			b = b[n:]
		case fieldParamType:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasType, p.Type = true, uint32(v)
			b = b[n:]
		case fieldParamIntValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasInt, p.IntValue = true, uint32(v)
			b = b[n:]
		case fieldParamLongValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasLong, p.LongValue = true, v
			b = b[n:]
		case fieldParamFloatValue:
			v, n, err := consumeFixed32(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasFloat, p.FloatValue = true, float32frombits(v)
			b = b[n:]
		case fieldParamDoubleValue:
			v, n, err := consumeFixed64(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasDouble, p.DoubleValue = true, float64frombits(v)
			b = b[n:]
		case fieldParamBoolValue:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasBool, p.BoolValue = true, v != 0
			b = b[n:]
		case fieldParamStringValue:
			s, n, err := consumeString(b, typ)
			if err != nil {
				return nil, err
			}
			p.HasString, p.StringValue = true, s
			b = b[n:]
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return p, nil
}

func consumeVarint(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("wire: expected varint wire type, got %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return v, n, nil
}

func consumeFixed32(b []byte, typ protowire.Type) (uint32, int, error) {
	if typ != protowire.Fixed32Type {
		return 0, 0, fmt.Errorf("wire: expected fixed32 wire type, got %d", typ)
	}
	v, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return v, n, nil
}

func consumeFixed64(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, fmt.Errorf("wire: expected fixed64 wire type, got %d", typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return v, n, nil
}

func consumeBytes(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("wire: expected length-delimited wire type, got %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, errTruncated
	}
	return v, n, nil
}

func consumeString(b []byte, typ protowire.Type) (string, int, error) {
	data, n, err := consumeBytes(b, typ)
	if err != nil {
		return "", 0, err
	}
	return string(data), n, nil
}

func skipField(b []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return 0, errTruncated
	}
	return n, nil
}
