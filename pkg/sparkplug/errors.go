// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import "fmt"

// DecodeError indicates an inbound payload was structurally invalid, or a
// value slot was absent or of the wrong kind for the declared datatype.
// Recovered locally: §4.8 drops the offending metric and keeps processing
// the rest of the payload.
type DecodeError struct {
	Metric string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("sparkplug: decode error: %s", e.Reason)
	}
	return fmt.Sprintf("sparkplug: decode error for metric %q: %s", e.Metric, e.Reason)
}

// SchemaError indicates the application tried to define a metric without
// an inferrable datatype, or construct an empty DataSet. Surfaced to the
// caller synchronously at construction time.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sparkplug: schema error: %s", e.Reason)
}

// TransportError wraps a non-zero return from connect/subscribe/publish.
// Logged by the worker; never crashes it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sparkplug: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StateError indicates an operation was issued in an incompatible session
// state (e.g. send_data while disconnected). Returned to the caller without
// effect; never panics.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("sparkplug: cannot %s in state %s", e.Op, e.State)
}
