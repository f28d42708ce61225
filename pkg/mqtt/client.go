// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mqtt implements the sparkplug.Transport interface on top of
// github.com/eclipse/paho.mqtt.golang, with github.com/cenkalti/backoff/v4
// driving the reconnect delay between connect attempts. ws:// and wss://
// broker URLs are handled by paho's own gorilla/websocket-backed dialer.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/cenkalti/backoff/v4"

	"github.com/edgesparkplug/edge-client/pkg/log"
	"github.com/edgesparkplug/edge-client/pkg/sparkplug"
)

// Client adapts a paho.mqtt.golang client to sparkplug.Transport. One
// Client is used for exactly one connect/disconnect cycle; Node.Online
// obtains a fresh Client per connect attempt via its newTransport factory.
type Client struct {
	mu                sync.Mutex
	client            paho.Client
	log               *log.ComponentLogger
	disconnectHandler sparkplug.DisconnectHandler

	// MaxReconnectBackoff bounds the exponential backoff applied between
	// Connect retries within a single Connect call; the Node's own broker
	// rotation handles giving up on one broker entirely.
	MaxReconnectBackoff time.Duration
}

// New constructs a Client. component names the ComponentLogger tag, e.g.
// "mqtt G/N".
func New(component string) *Client {
	return &Client{log: log.Component(component), MaxReconnectBackoff: 30 * time.Second}
}

func (c *Client) Connect(ctx context.Context, opts sparkplug.TransportOptions) error {
	popts := paho.NewClientOptions()
	popts.AddBroker(opts.BrokerURL)
	if opts.ClientID != "" {
		popts.SetClientID(opts.ClientID)
	}
	if opts.Username != "" {
		popts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		popts.SetPassword(opts.Password)
	}
	if opts.TLSConfig != nil {
		popts.SetTLSConfig(opts.TLSConfig)
	}
	if opts.KeepAlive > 0 {
		popts.SetKeepAlive(opts.KeepAlive)
	}
	if opts.WillTopic != "" {
		popts.SetBinaryWill(opts.WillTopic, opts.WillPayload, opts.WillQoS, opts.WillRetained)
	}
	// The Node, not paho, owns reconnect/broker-rotation policy: a dropped
	// connection must surface as a state transition, not be silently
	// papered over by the library's own auto-reconnect.
	popts.SetAutoReconnect(false)
	popts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warnf("mqtt connection lost: %v", err)
		c.mu.Lock()
		handler := c.disconnectHandler
		c.mu.Unlock()
		if handler != nil {
			handler(err)
		}
	})

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	c.mu.Lock()
	c.client = paho.NewClient(popts)
	client := c.client
	c.mu.Unlock()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0 // bounded by ctx instead
	if c.MaxReconnectBackoff > 0 {
		b.MaxInterval = c.MaxReconnectBackoff
	}
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		token := client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return fmt.Errorf("mqtt: connect to %s timed out after %s", opts.BrokerURL, connectTimeout)
		}
		if err := token.Error(); err != nil {
			c.log.Warnf("mqtt connect attempt to %s failed: %v", opts.BrokerURL, err)
			return err
		}
		return nil
	}, bctx)
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
}

// ForceClose drops the connection without a graceful MQTT DISCONNECT, so
// the broker delivers the registered will message (NDEATH).
func (c *Client) ForceClose() {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client != nil {
		client.Disconnect(0)
	}
}

func (c *Client) Subscribe(topic string, qos byte, handler sparkplug.MessageHandler) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	token := client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (c *Client) Publish(topic string, qos byte, payload []byte) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	token := client.Publish(topic, qos, false, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	return client != nil && client.IsConnected()
}

// SetDisconnectHandler registers handler to be invoked from the
// ConnectionLostHandler callback Connect installs. Must be called before
// Connect to take effect on the first drop.
func (c *Client) SetDisconnectHandler(handler sparkplug.DisconnectHandler) {
	c.mu.Lock()
	c.disconnectHandler = handler
	c.mu.Unlock()
}

var _ sparkplug.Transport = (*Client)(nil)
