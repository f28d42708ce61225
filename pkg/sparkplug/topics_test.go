// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeTopicShapes(t *testing.T) {
	n := &Node{groupID: "G1", edgeNodeID: "E1"}
	assert.Equal(t, "spBv1.0/G1/NBIRTH/E1", n.nbirthTopic())
	assert.Equal(t, "spBv1.0/G1/NDEATH/E1", n.ndeathTopic())
	assert.Equal(t, "spBv1.0/G1/NDATA/E1", n.ndataTopic())
	assert.Equal(t, "spBv1.0/G1/NCMD/E1/#", n.ncmdSubscription())
	assert.Equal(t, "spBv1.0/G1/DCMD/E1/#", n.dcmdSubscription())
}

func TestDeviceTopicShapes(t *testing.T) {
	n := &Node{groupID: "G1", edgeNodeID: "E1"}
	assert.Equal(t, "spBv1.0/G1/DBIRTH/E1/dev1", n.dbirthTopic("dev1"))
	assert.Equal(t, "spBv1.0/G1/DDEATH/E1/dev1", n.ddeathTopic("dev1"))
	assert.Equal(t, "spBv1.0/G1/DDATA/E1/dev1", n.ddataTopic("dev1"))
}

func TestDeviceNameFromTopic(t *testing.T) {
	name, ok := deviceNameFromTopic("spBv1.0/G1/DCMD/E1/dev1")
	assert.True(t, ok)
	assert.Equal(t, "dev1", name)

	_, ok = deviceNameFromTopic("spBv1.0/G1/NCMD/E1")
	assert.False(t, ok, "node-level topic has no device segment")

	_, ok = deviceNameFromTopic("spBv1.0/G1/DCMD/E1")
	assert.False(t, ok, "malformed DCMD topic missing the device segment")
}
