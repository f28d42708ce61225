// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"context"
	"crypto/tls"
	"time"
)

// MessageHandler receives an inbound message on a subscribed topic. It runs
// on the Transport's own delivery goroutine; implementations hand off to
// the Node's worker via its request channel rather than touching Node
// state directly.
type MessageHandler func(topic string, payload []byte)

// DisconnectHandler is invoked once, on the Transport's own delivery
// goroutine, when the session drops without Disconnect/ForceClose having
// been called. Implementations must treat it the same as MessageHandler:
// hand off to the Node's worker rather than touching Node state directly.
type DisconnectHandler func(err error)

// TransportOptions is one broker connection's parameter set: group_id and
// edge_node_id are Node-level, but everything else (address, credentials,
// TLS, LWT, keepalive) is scoped per broker so a Node can rotate through
// an ordered list of them.
type TransportOptions struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSConfig *tls.Config

	KeepAlive      time.Duration
	ConnectTimeout time.Duration

	WillTopic    string
	WillPayload  []byte
	WillQoS      byte
	WillRetained bool
}

// Transport abstracts the MQTT session a Node drives. A Node's worker
// goroutine is the sole caller of every method; implementations need not be
// safe for concurrent use by multiple goroutines, only for the handler
// callback arriving concurrently with a caller-thread method.
type Transport interface {
	// Connect establishes the session, registering WillTopic/WillPayload as
	// the broker-side LWT if WillTopic is non-empty. Connect must not
	// return until the broker has acknowledged the CONNECT, or ctx expires.
	Connect(ctx context.Context, opts TransportOptions) error

	// Disconnect performs a graceful MQTT DISCONNECT; the broker must not
	// deliver the registered LWT as a result of this call.
	Disconnect()

	// ForceClose drops the underlying connection without a graceful
	// DISCONNECT, so the broker delivers the registered LWT. Used when
	// offline() or a broker switch wants an NDEATH published on our behalf.
	ForceClose()

	Subscribe(topic string, qos byte, handler MessageHandler) error
	Publish(topic string, qos byte, payload []byte) error
	IsConnected() bool

	// SetDisconnectHandler registers the callback invoked on an async,
	// broker-initiated session drop. Connect must (re)register the
	// underlying client's lost-connection callback so it reaches handler;
	// a graceful Disconnect()/ForceClose() call must not invoke it.
	SetDisconnectHandler(handler DisconnectHandler)
}
