// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgesparkplug/edge-client/pkg/log"
)

const (
	bdSeqMetricName           = "bdSeq"
	rebirthControlMetricName  = "Node Control/Rebirth"
	nextServerControlMetric   = "Node Control/Next Server"
	defaultRebirthPollInterval = time.Second
)

// MetricsRegistry receives ambient observability counters for a Node. See
// pkg/sparkplugmetrics for the Prometheus-backed implementation; the zero
// value of *Node (nil registry) means "don't record".
type MetricsRegistry interface {
	IncPublish(messageType string)
	IncReconnect()
	IncSequenceReset()
	IncCommand(result string)
	SetConnected(bool)
}

// Node is an edge node: a broker session, its own metric list, zero or more
// Devices, and the worker goroutine that owns all of the above for the
// life of one online()/offline() cycle.
type Node struct {
	mu sync.Mutex

	groupID    string
	edgeNodeID string

	brokers      []TransportOptions
	activeBroker int

	newTransport func() Transport
	transport    Transport
	transportGen uint64

	metrics     []*Metric
	metricIndex map[string]int
	devices     []*Device
	deviceIndex map[string]int

	seq   uint64
	bdSeq uint64

	provideBdSeq    bool
	provideControls bool
	u32InLong       bool
	strictSchema    bool

	needsBirth     bool
	dcmdSubscribed bool

	state State

	rebirthPollInterval time.Duration

	actions      chan func()
	disconnected chan disconnectEvent
	stopCh       chan struct{}
	doneCh       chan struct{}
	started      bool

	log        *log.ComponentLogger
	metricsReg MetricsRegistry
}

// disconnectEvent carries an async Transport disconnect notification into
// the worker loop. gen is the transportGen of the Transport instance that
// dropped, so a notification from an already-superseded instance (e.g. one
// ForceClose'd by a deliberate switchBroker) can be told apart from one
// about the Node's current transport.
type disconnectEvent struct {
	gen uint64
	err error
}

// NodeOption customizes a Node at construction.
type NodeOption func(*Node)

// WithoutBdSeq disables the automatic bdSeq metric (provide_bdSeq=false).
func WithoutBdSeq() NodeOption { return func(n *Node) { n.provideBdSeq = false } }

// WithoutControls disables the Node Control/Rebirth and Node Control/Next
// Server metrics (provide_controls=false).
func WithoutControls() NodeOption { return func(n *Node) { n.provideControls = false } }

// WithU32InLong requests UInt32 values be written into the 64-bit
// long_value wire slot instead of the 32-bit int_value slot, for peers
// that do not tolerate UInt32 in int_value (§4.1 compatibility toggle).
func WithU32InLong() NodeOption { return func(n *Node) { n.u32InLong = true } }

// WithStrictSchema causes inbound commands addressing an unknown metric to
// log at error level instead of warn; it never changes drop behavior
// there, unknown-metric commands are always dropped, never panics or
// crashes. It also governs what happens when AddMetric/Device.AddMetric is
// called with a name already attached: strict rejects with a SchemaError,
// matching a fixed schema declared up front. The permissive default instead
// replaces the existing metric in place, keeping its alias, matching the
// original Sparkplug reference implementation's edge node, which performs
// no duplicate-name check at all.
func WithStrictSchema() NodeOption { return func(n *Node) { n.strictSchema = true } }

// WithRebirthPollInterval overrides how often the worker checks needs_birth
// flags while RUNNING. Default is one second.
func WithRebirthPollInterval(d time.Duration) NodeOption {
	return func(n *Node) { n.rebirthPollInterval = d }
}

// WithMetricsRegistry attaches an observability sink.
func WithMetricsRegistry(reg MetricsRegistry) NodeOption {
	return func(n *Node) { n.metricsReg = reg }
}

// NewNode constructs a Node for group/edge_node_id with one or more broker
// parameter sets (tried in order, wrapping around on Node Control/Next
// Server). newTransport is called once per connect attempt to obtain a
// fresh Transport instance.
func NewNode(groupID, edgeNodeID string, brokers []TransportOptions, newTransport func() Transport, opts ...NodeOption) (*Node, error) {
	if groupID == "" || edgeNodeID == "" {
		return nil, &SchemaError{Reason: "group id and edge node id must not be empty"}
	}
	if len(brokers) == 0 {
		return nil, &SchemaError{Reason: "at least one broker parameter set is required"}
	}
	if newTransport == nil {
		return nil, &SchemaError{Reason: "newTransport factory must not be nil"}
	}
	n := &Node{
		groupID:             groupID,
		edgeNodeID:          edgeNodeID,
		brokers:             append([]TransportOptions(nil), brokers...),
		newTransport:        newTransport,
		metricIndex:         make(map[string]int),
		deviceIndex:         make(map[string]int),
		provideBdSeq:        true,
		provideControls:     true,
		needsBirth:          true,
		state:               StateOffline,
		rebirthPollInterval: defaultRebirthPollInterval,
		bdSeq:               uint64(time.Now().UnixMilli()),
		log:                 log.Component(fmt.Sprintf("node %s/%s", groupID, edgeNodeID)),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.provideBdSeq {
		if err := n.attachMetric(NewMetric(bdSeqMetricName, UInt64, UintValue(n.bdSeq))); err != nil {
			return nil, err
		}
	}
	if n.provideControls {
		rebirth := NewMetric(rebirthControlMetricName, Boolean, BoolValue(false), WithCommandHandler(func(_ *Metric, v Value) error {
			if b, _ := v.Bool(); b {
				n.requestRebirth()
			}
			return nil
		}))
		if err := n.attachMetric(rebirth); err != nil {
			return nil, err
		}
		nextServer := NewMetric(nextServerControlMetric, Boolean, BoolValue(false), WithCommandHandler(func(_ *Metric, v Value) error {
			if b, _ := v.Bool(); b {
				n.switchBroker()
			}
			return nil
		}))
		if err := n.attachMetric(nextServer); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) GroupID() string    { return n.groupID }
func (n *Node) EdgeNodeID() string { return n.edgeNodeID }

func (n *Node) State() State { return n.getState() }

func (n *Node) getState() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Node) setState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
	n.log.Infof("state -> %s", s)
}

// withWorker runs fn serialized with every other worker-owned operation: if
// the worker is running, fn is enqueued and its result awaited; if not
// (construction-time calls, or calls after offline()), fn runs inline since
// nothing else can be concurrently touching node state.
func (n *Node) withWorker(fn func() error) error {
	n.mu.Lock()
	started := n.started
	n.mu.Unlock()
	if !started {
		return fn()
	}
	done := make(chan error, 1)
	select {
	case n.actions <- func() { done <- fn() }:
	case <-n.doneCh:
		return fn()
	}
	return <-done
}

func (n *Node) attachMetric(m *Metric) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i, dup := n.metricIndex[m.name]; dup {
		if n.strictSchema {
			return &SchemaError{Reason: fmt.Sprintf("node %s/%s already has a metric named %q", n.groupID, n.edgeNodeID, m.name)}
		}
		m.alias = uint64(i)
		n.metrics[i] = m
		return nil
	}
	m.alias = uint64(len(n.metrics))
	n.metricIndex[m.name] = len(n.metrics)
	n.metrics = append(n.metrics, m)
	return nil
}

// AddMetric attaches a user metric to the node. If the node is already
// RUNNING, per §4.7 this does not publish anything immediately; it only
// sets needs_birth so the next rebirth poll re-births the node with the
// new metric included at its new alias.
func (n *Node) AddMetric(m *Metric) error {
	return n.withWorker(func() error {
		if err := n.attachMetric(m); err != nil {
			return err
		}
		if n.getState() == StateRunning {
			n.markAllNeedBirth()
		}
		return nil
	})
}

// Metric looks up a previously attached node-level metric by name.
func (n *Node) Metric(name string) *Metric {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i, ok := n.metricIndex[name]; ok {
		return n.metrics[i]
	}
	return nil
}

func (n *Node) metricByName(name string) *Metric { return n.Metric(name) }

// AddDevice attaches a Device. If the node is RUNNING and this is the
// first device, it subscribes to the DCMD wildcard; the device itself
// starts with needs_birth=true and is picked up by the next rebirth poll.
func (n *Node) AddDevice(d *Device) error {
	return n.withWorker(func() error {
		n.mu.Lock()
		if _, dup := n.deviceIndex[d.name]; dup {
			n.mu.Unlock()
			return &SchemaError{Reason: fmt.Sprintf("node %s/%s already has a device named %q", n.groupID, n.edgeNodeID, d.name)}
		}
		d.node = n
		n.deviceIndex[d.name] = len(n.devices)
		n.devices = append(n.devices, d)
		n.mu.Unlock()

		if n.getState() == StateRunning && !n.dcmdSubscribed {
			if err := n.transport.Subscribe(n.dcmdSubscription(), 0, n.handleMessage); err != nil {
				return &TransportError{Op: "subscribe DCMD", Err: err}
			}
			n.dcmdSubscribed = true
		}
		return nil
	})
}

// Device looks up a previously attached device by name.
func (n *Node) Device(name string) *Device {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i, ok := n.deviceIndex[name]; ok {
		return n.devices[i]
	}
	return nil
}

func (n *Node) deviceByName(name string) *Device { return n.Device(name) }

func (n *Node) isConnected() bool { return n.getState() == StateRunning }

func (n *Node) markAllNeedBirth() {
	n.mu.Lock()
	n.needsBirth = true
	for _, d := range n.devices {
		d.needsBirth = true
	}
	n.mu.Unlock()
}

func (n *Node) requestRebirth() {
	n.log.Notef("rebirth requested")
	n.markAllNeedBirth()
}

// Online transitions the node from OFFLINE/DISCONNECTED through CONNECTING,
// SUBSCRIBING and BIRTHING to RUNNING. It starts the worker goroutine on
// first call and blocks until the first connect attempt's birth completes
// or fails.
func (n *Node) Online(ctx context.Context) error {
	n.mu.Lock()
	st := n.state
	n.mu.Unlock()
	if st != StateOffline && st != StateDisconnected {
		return &StateError{Op: "online", State: st}
	}

	n.mu.Lock()
	if !n.started {
		n.actions = make(chan func(), 64)
		n.disconnected = make(chan disconnectEvent, 1)
		n.stopCh = make(chan struct{})
		n.doneCh = make(chan struct{})
		n.started = true
		go n.run()
	}
	n.mu.Unlock()

	return n.withWorker(func() error { return n.connectAndBirth(ctx) })
}

// Offline requests worker shutdown: the transport is force-closed (so the
// broker replays the LWT as NDEATH), the worker loop exits, and state
// returns to OFFLINE. Blocks until the worker has stopped.
func (n *Node) Offline() error {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return nil
	}
	stopCh, doneCh := n.stopCh, n.doneCh
	n.mu.Unlock()

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-doneCh
	return nil
}

func (n *Node) run() {
	defer close(n.doneCh)
	ticker := time.NewTicker(n.rebirthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case act := <-n.actions:
			act()
		case ev := <-n.disconnected:
			n.handleAsyncDisconnect(ev)
		case <-ticker.C:
			n.pollRebirth()
		case <-n.stopCh:
			n.shutdown()
			return
		}
	}
}

func (n *Node) shutdown() {
	n.setState(StateStopping)
	if n.transport != nil {
		n.transport.ForceClose()
	}
	n.mu.Lock()
	n.started = false
	n.dcmdSubscribed = false
	n.mu.Unlock()
	n.setState(StateOffline)
	if n.metricsReg != nil {
		n.metricsReg.SetConnected(false)
	}
}

// handleAsyncDisconnect reacts to a broker-initiated session drop reported
// by the current Transport outside of any Connect/ForceClose call the
// worker itself made. Runs on the worker goroutine (dispatched from run's
// select), same as every other state transition.
func (n *Node) handleAsyncDisconnect(ev disconnectEvent) {
	n.mu.Lock()
	stale := ev.gen != n.transportGen
	n.mu.Unlock()
	if stale {
		// Notification from a transport instance switchBroker/a prior
		// reconnect already superseded; the current transport is unaffected.
		return
	}
	if n.getState() != StateRunning {
		return
	}
	n.log.Warnf("transport disconnected asynchronously: %v", ev.err)
	n.setState(StateDisconnected)
	n.markAllNeedBirth()
	if n.metricsReg != nil {
		n.metricsReg.SetConnected(false)
		n.metricsReg.IncReconnect()
	}
	if err := n.connectAndBirth(context.Background()); err != nil {
		n.log.Errorf("reconnect after async disconnect failed: %v", err)
		n.setState(StateDisconnected)
	}
}

func (n *Node) currentBroker() TransportOptions {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.brokers[n.activeBroker%len(n.brokers)]
}

func (n *Node) refreshBdSeq() {
	n.mu.Lock()
	n.bdSeq = uint64(time.Now().UnixMilli())
	val := n.bdSeq
	n.mu.Unlock()
	if n.provideBdSeq {
		if m := n.Metric(bdSeqMetricName); m != nil {
			m.SetValue(UintValue(val))
		}
	}
}

func (n *Node) connectAndBirth(ctx context.Context) error {
	n.setState(StateConnecting)
	n.refreshBdSeq()

	broker := n.currentBroker()
	n.mu.Lock()
	bdSeq := n.bdSeq
	n.mu.Unlock()
	broker.WillTopic = n.ndeathTopic()
	broker.WillPayload = buildNodeDeathPayload(bdSeq)
	broker.WillQoS = 0
	broker.WillRetained = false

	n.transport = n.newTransport()
	n.mu.Lock()
	n.transportGen++
	gen := n.transportGen
	n.mu.Unlock()
	n.transport.SetDisconnectHandler(func(err error) {
		select {
		case n.disconnected <- disconnectEvent{gen: gen, err: err}:
		default:
		}
	})
	if err := n.transport.Connect(ctx, broker); err != nil {
		n.setState(StateDisconnected)
		return &TransportError{Op: "connect", Err: err}
	}

	n.setState(StateSubscribing)
	if err := n.transport.Subscribe(n.ncmdSubscription(), 0, n.handleMessage); err != nil {
		n.setState(StateDisconnected)
		return &TransportError{Op: "subscribe NCMD", Err: err}
	}
	n.mu.Lock()
	hasDevices := len(n.devices) > 0
	n.mu.Unlock()
	n.dcmdSubscribed = false
	if hasDevices {
		if err := n.transport.Subscribe(n.dcmdSubscription(), 0, n.handleMessage); err != nil {
			n.setState(StateDisconnected)
			return &TransportError{Op: "subscribe DCMD", Err: err}
		}
		n.dcmdSubscribed = true
	}

	n.setState(StateBirthing)
	n.markAllNeedBirth()
	if err := n.birthAll(); err != nil {
		n.setState(StateDisconnected)
		return err
	}

	n.setState(StateRunning)
	if n.metricsReg != nil {
		n.metricsReg.SetConnected(true)
	}
	return nil
}

func (n *Node) publish(topic string, payload []byte) error {
	if err := n.transport.Publish(topic, 0, payload); err != nil {
		return &TransportError{Op: "publish " + topic, Err: err}
	}
	return nil
}

func (n *Node) advanceSeq() {
	n.mu.Lock()
	n.seq = (n.seq + 1) % 256
	n.mu.Unlock()
}

// birthAll resets seq to 0, publishes NBIRTH for the node's own metrics,
// then DBIRTH for every device in turn.
func (n *Node) birthAll() error {
	n.mu.Lock()
	n.seq = 0
	metrics := append([]*Metric(nil), n.metrics...)
	seq := n.seq
	n.mu.Unlock()
	if n.metricsReg != nil {
		n.metricsReg.IncSequenceReset()
	}

	payload, err := buildBirthPayload(metrics, seq, n.u32InLong)
	if err != nil {
		return err
	}
	if err := n.publish(n.nbirthTopic(), payload); err != nil {
		return err
	}
	n.advanceSeq()
	n.mu.Lock()
	n.needsBirth = false
	devices := append([]*Device(nil), n.devices...)
	n.mu.Unlock()
	if n.metricsReg != nil {
		n.metricsReg.IncPublish("NBIRTH")
	}

	for _, d := range devices {
		if err := n.birthDevice(d); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) birthDevice(d *Device) error {
	n.mu.Lock()
	metrics := append([]*Metric(nil), d.metrics...)
	seq := n.seq
	n.mu.Unlock()

	payload, err := buildBirthPayload(metrics, seq, n.u32InLong)
	if err != nil {
		return err
	}
	if err := n.publish(n.dbirthTopic(d.name), payload); err != nil {
		return err
	}
	n.advanceSeq()
	d.markBirthed()
	if n.metricsReg != nil {
		n.metricsReg.IncPublish("DBIRTH")
	}
	return nil
}

func (n *Node) publishDeviceDeath(d *Device) {
	n.mu.Lock()
	seq := n.seq
	n.mu.Unlock()
	payload := buildDeviceDeathPayload(seq)
	if err := n.publish(n.ddeathTopic(d.name), payload); err != nil {
		n.log.Errorf("DDEATH publish failed for device %q: %v", d.name, err)
		return
	}
	n.advanceSeq()
	if n.metricsReg != nil {
		n.metricsReg.IncPublish("DDEATH")
	}
}

// SendData publishes an NDATA payload for the named node-level metrics (or
// every metric if names is empty), skipping the publish entirely if none
// of them changed since the last send.
func (n *Node) SendData(names ...string) error {
	return n.withWorker(func() error { return n.sendDataLocked(names, nil) })
}

// SendDeviceData publishes a DDATA payload for a device's named metrics
// (or every metric on that device if names is empty).
func (n *Node) SendDeviceData(device string, names ...string) error {
	d := n.deviceByName(device)
	if d == nil {
		return &SchemaError{Reason: fmt.Sprintf("unknown device %q", device)}
	}
	return n.withWorker(func() error { return n.sendDataLocked(names, d) })
}

func (n *Node) sendDataLocked(names []string, device *Device) error {
	if n.getState() != StateRunning {
		return &StateError{Op: "send_data", State: n.getState()}
	}

	n.mu.Lock()
	list, index := n.metrics, n.metricIndex
	topic := n.ndataTopic()
	if device != nil {
		list, index = device.metrics, device.metricIndex
		topic = n.ddataTopic(device.name)
	}
	var metrics []*Metric
	if len(names) == 0 {
		metrics = append([]*Metric(nil), list...)
	} else {
		for _, name := range names {
			if i, ok := index[name]; ok {
				metrics = append(metrics, list[i])
			}
		}
	}
	seq := n.seq
	n.mu.Unlock()

	payload, count, err := buildDataPayload(metrics, seq, n.u32InLong)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if err := n.publish(topic, payload); err != nil {
		return err
	}
	n.advanceSeq()
	if n.metricsReg != nil {
		if device != nil {
			n.metricsReg.IncPublish("DDATA")
		} else {
			n.metricsReg.IncPublish("NDATA")
		}
	}
	return nil
}

// switchBroker force-closes the current transport, advances to the next
// broker in the list (wrapping), marks everything dirty and reconnects.
// Invoked from the Node Control/Next Server command handler, which already
// runs on the worker goroutine; it therefore mutates state directly
// instead of going through withWorker.
func (n *Node) switchBroker() {
	n.setState(StateSwitchingBroker)
	if n.transport != nil {
		n.transport.ForceClose()
	}
	n.mu.Lock()
	n.activeBroker = (n.activeBroker + 1) % len(n.brokers)
	n.mu.Unlock()
	if n.metricsReg != nil {
		n.metricsReg.IncReconnect()
	}
	n.markAllNeedBirth()
	if err := n.connectAndBirth(context.Background()); err != nil {
		n.log.Errorf("broker switch failed: %v", err)
		n.setState(StateDisconnected)
	}
}

func (n *Node) pollRebirth() {
	if n.getState() != StateRunning {
		return
	}
	n.mu.Lock()
	needs := n.needsBirth
	n.mu.Unlock()
	if needs {
		if err := n.birthAll(); err != nil {
			n.log.Errorf("rebirth failed: %v", err)
		}
		return
	}
	n.mu.Lock()
	devices := append([]*Device(nil), n.devices...)
	n.mu.Unlock()
	for _, d := range devices {
		if d.needsBirth {
			if err := n.birthDevice(d); err != nil {
				n.log.Errorf("device rebirth failed for %q: %v", d.name, err)
			}
		}
	}
}
