// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

// State is a Node's position in its session lifecycle, per §5.
type State int

const (
	StateOffline State = iota
	StateConnecting
	StateSubscribing
	StateBirthing
	StateRunning
	StateRebirthPending
	StateSwitchingBroker
	StateDisconnected
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "OFFLINE"
	case StateConnecting:
		return "CONNECTING"
	case StateSubscribing:
		return "SUBSCRIBING"
	case StateBirthing:
		return "BIRTHING"
	case StateRunning:
		return "RUNNING"
	case StateRebirthPending:
		return "REBIRTH_PENDING"
	case StateSwitchingBroker:
		return "SWITCHING_BROKER"
	case StateDisconnected:
		return "DISCONNECTED"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}
