// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"context"
	"sync"
)

// fakePublish records one Publish call observed by a fakeTransport.
type fakePublish struct {
	topic   string
	payload []byte
}

// fakeTransport is an in-memory Transport double for exercising Node
// without a real broker. Each Node.newTransport call in a test should
// return a fresh one (mirroring how a real Transport is reconstructed
// per connect attempt).
type fakeTransport struct {
	mu sync.Mutex

	connected bool
	opts      TransportOptions
	subs      map[string]MessageHandler
	published []fakePublish

	connectErr        error
	disconnectHandler DisconnectHandler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: make(map[string]MessageHandler)}
}

func (f *fakeTransport) Connect(_ context.Context, opts TransportOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.opts = opts
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeTransport) ForceClose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeTransport) Subscribe(topic string, _ byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	return nil
}

func (f *fakeTransport) Publish(topic string, _ byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), payload...)
	f.published = append(f.published, fakePublish{topic: topic, payload: cp})
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) lastPublish() (fakePublish, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.published) == 0 {
		return fakePublish{}, false
	}
	return f.published[len(f.published)-1], true
}

func (f *fakeTransport) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeTransport) SetDisconnectHandler(handler DisconnectHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectHandler = handler
}

// simulateBrokerDisconnect invokes the registered disconnect handler, as a
// real Transport would do asynchronously on an unrequested session drop.
func (f *fakeTransport) simulateBrokerDisconnect(err error) {
	f.mu.Lock()
	f.connected = false
	handler := f.disconnectHandler
	f.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

var _ Transport = (*fakeTransport)(nil)
