// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"time"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

const bdSeqName = "bdSeq"

// buildBirthPayload assembles an NBIRTH/DBIRTH payload: a current
// wall-clock timestamp, the given seq, and the full birth serialization
// (every value and property, regardless of dirty state) of every listed
// metric in alias order. bdSeq, when the node provides one, is simply the
// first entry of metrics (alias 0) like any other metric; only the NDEATH
// LWT payload addresses it specially. Marks every metric, and its
// properties, sent.
func buildBirthPayload(metrics []*Metric, seq uint64, u32InLong bool) ([]byte, error) {
	p := &wire.Payload{
		HasTimestamp: true,
		Timestamp:    uint64(time.Now().UnixMilli()),
		HasSeq:       true,
		Seq:          seq,
	}
	for _, m := range metrics {
		wm, err := m.toWireBirth(u32InLong)
		if err != nil {
			return nil, err
		}
		p.Metrics = append(p.Metrics, wm)
		m.markSent()
	}
	return wire.EncodePayload(p), nil
}

// buildDataPayload assembles an NDATA/DDATA payload: metrics are addressed
// by alias only, and only those with a changed value/null-state, or a
// changed report-with-data property, are included. Returns the included count
// alongside the encoded bytes so callers can skip publishing an
// all-unchanged payload.
func buildDataPayload(metrics []*Metric, seq uint64, u32InLong bool) ([]byte, int, error) {
	p := &wire.Payload{
		HasTimestamp: true,
		Timestamp:    uint64(time.Now().UnixMilli()),
		HasSeq:       true,
		Seq:          seq,
	}
	for _, m := range metrics {
		wm, err := m.toWireData(u32InLong)
		if err != nil {
			return nil, 0, err
		}
		if wm == nil {
			continue
		}
		p.Metrics = append(p.Metrics, wm)
		m.markSent()
	}
	return wire.EncodePayload(p), len(p.Metrics), nil
}

// buildNodeDeathPayload builds the NDEATH payload registered as the
// transport's LWT before every connect attempt. Per §4.4 it carries no
// timestamp and addresses bdSeq by name, never alias, since the broker may
// replay it long after any birth window in which aliases were meaningful.
func buildNodeDeathPayload(bdSeq uint64) []byte {
	p := &wire.Payload{Metrics: []*wire.Metric{bdSeqMetric(bdSeq)}}
	return wire.EncodePayload(p)
}

// buildDeviceDeathPayload builds a DDEATH payload: a timestamped, metric-
// free message announcing that a device's prior birth schema is no longer
// valid.
func buildDeviceDeathPayload(seq uint64) []byte {
	p := &wire.Payload{
		HasTimestamp: true,
		Timestamp:    uint64(time.Now().UnixMilli()),
		HasSeq:       true,
		Seq:          seq,
	}
	return wire.EncodePayload(p)
}

func bdSeqMetric(bdSeq uint64) *wire.Metric {
	m := &wire.Metric{
		HasName:     true,
		Name:        bdSeqName,
		HasDatatype: true,
		Datatype:    uint32(UInt64),
	}
	m.HasLong, m.LongValue = true, bdSeq
	return m
}
