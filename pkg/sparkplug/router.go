// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"strings"

	"github.com/edgesparkplug/edge-client/pkg/sparkplug/wire"
)

// handleMessage is the Transport-facing MessageHandler. It runs on
// whatever goroutine the Transport implementation delivers messages on
// (typically its own read loop), and funnels the work onto the Node's
// worker goroutine so command dispatch is always serialized with
// publish/birth/rebirth activity.
func (n *Node) handleMessage(topic string, payload []byte) {
	n.mu.Lock()
	actions := n.actions
	n.mu.Unlock()
	if actions == nil {
		return
	}
	actions <- func() { n.dispatchInbound(topic, payload) }
}

// dispatchInbound decodes an NCMD/DCMD payload and routes each metric to
// its target (node-level, or a named device). Runs on the worker goroutine.
func (n *Node) dispatchInbound(topic string, raw []byte) {
	p, err := wire.DecodePayload(raw)
	if err != nil {
		n.log.Errorf("dropping malformed command on %s: %v", topic, err)
		n.countCommand("decode_error")
		return
	}

	deviceName, isDeviceTopic := deviceNameFromTopic(topic)
	var target *Device
	if isDeviceTopic {
		target = n.deviceByName(deviceName)
		if target == nil {
			n.log.Warnf("command on %s addresses unknown device %q", topic, deviceName)
			n.countCommand("unknown_device")
			return
		}
	}

	for _, wm := range p.Metrics {
		n.dispatchMetric(target, wm)
	}
}

func (n *Node) dispatchMetric(device *Device, wm *wire.Metric) {
	m := n.lookupMetric(device, wm)
	if m == nil {
		if n.strictSchema {
			n.log.Errorf("command addresses unknown metric (name=%q alias=%d)", wm.Name, wm.Alias)
		} else {
			n.log.Warnf("dropping command for unknown metric (name=%q alias=%d)", wm.Name, wm.Alias)
		}
		n.countCommand("unknown_metric")
		return
	}

	isNull := wm.HasIsNull && wm.IsNull
	var v Value
	if !isNull {
		var err error
		v, err = slotToValue(metricSlot(wm), m.dataType)
		if err != nil {
			n.log.Errorf("dropping command for metric %q: %v", m.name, err)
			n.countCommand("decode_error")
			return
		}
	}

	if err := m.receive(v, isNull); err != nil {
		n.log.Errorf("command handler for metric %q returned an error: %v", m.name, err)
		n.countCommand("handler_error")
		return
	}
	n.countCommand("ok")
}

func (n *Node) lookupMetric(device *Device, wm *wire.Metric) *Metric {
	n.mu.Lock()
	defer n.mu.Unlock()
	list, index := n.metrics, n.metricIndex
	if device != nil {
		list, index = device.metrics, device.metricIndex
	}
	if wm.HasAlias {
		if idx := int(wm.Alias); idx >= 0 && idx < len(list) {
			return list[idx]
		}
		return nil
	}
	if wm.HasName {
		if i, ok := index[wm.Name]; ok {
			return list[i]
		}
	}
	return nil
}

func (n *Node) countCommand(result string) {
	if n.metricsReg != nil {
		n.metricsReg.IncCommand(result)
	}
}

// deviceNameFromTopic extracts the device segment from a DCMD topic of the
// form spBv1.0/<group>/DCMD/<node>/<device>. The second return value is
// false for NCMD topics (node-level, no device segment).
func deviceNameFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[2] != "DCMD" {
		return "", false
	}
	if len(parts) < 5 {
		return "", false
	}
	return parts[4], true
}
