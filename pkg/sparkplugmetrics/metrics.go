// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sparkplugmetrics implements sparkplug.MetricsRegistry on top of
// github.com/prometheus/client_golang, giving one Node a self-contained set
// of Prometheus collectors labeled by group/edge-node.
package sparkplugmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry implements sparkplug.MetricsRegistry. It is safe for concurrent
// use; the underlying prometheus vectors handle their own locking.
type Registry struct {
	publishes  *prometheus.CounterVec
	reconnects prometheus.Counter
	seqResets  prometheus.Counter
	commands   *prometheus.CounterVec
	connected  prometheus.Gauge
}

// New constructs a Registry and registers its collectors with reg. group and
// edgeNodeID become constant labels on every collector so one Prometheus
// instance can host multiple Nodes.
func New(reg prometheus.Registerer, group, edgeNodeID string) *Registry {
	labels := prometheus.Labels{"group": group, "edge_node": edgeNodeID}

	r := &Registry{
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sparkplug",
			Name:        "publishes_total",
			Help:        "Total number of Sparkplug B payloads published, by message type.",
			ConstLabels: labels,
		}, []string{"type"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sparkplug",
			Name:        "reconnects_total",
			Help:        "Total number of broker reconnect/broker-switch attempts.",
			ConstLabels: labels,
		}),
		seqResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sparkplug",
			Name:        "sequence_resets_total",
			Help:        "Total number of times the Node's seq counter was reset to 0 on NBIRTH.",
			ConstLabels: labels,
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sparkplug",
			Name:        "commands_received_total",
			Help:        "Total number of NCMD/DCMD metrics dispatched, by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sparkplug",
			Name:        "connected",
			Help:        "1 if the Node's session is currently RUNNING, 0 otherwise.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(r.publishes, r.reconnects, r.seqResets, r.commands, r.connected)
	return r
}

func (r *Registry) IncPublish(messageType string) { r.publishes.WithLabelValues(messageType).Inc() }
func (r *Registry) IncReconnect()                 { r.reconnects.Inc() }
func (r *Registry) IncSequenceReset()             { r.seqResets.Inc() }
func (r *Registry) IncCommand(result string)      { r.commands.WithLabelValues(result).Inc() }

func (r *Registry) SetConnected(connected bool) {
	if connected {
		r.connected.Set(1)
		return
	}
	r.connected.Set(0)
}
