// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sparkplug

import "fmt"

const namespace = "spBv1.0"

func nodeTopic(group, msgType, node string) string {
	return fmt.Sprintf("%s/%s/%s/%s", namespace, group, msgType, node)
}

func deviceTopic(group, msgType, node, device string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", namespace, group, msgType, node, device)
}

func (n *Node) nbirthTopic() string { return nodeTopic(n.groupID, "NBIRTH", n.edgeNodeID) }
func (n *Node) ndeathTopic() string { return nodeTopic(n.groupID, "NDEATH", n.edgeNodeID) }
func (n *Node) ndataTopic() string  { return nodeTopic(n.groupID, "NDATA", n.edgeNodeID) }
func (n *Node) ncmdSubscription() string {
	return nodeTopic(n.groupID, "NCMD", n.edgeNodeID) + "/#"
}

func (n *Node) dbirthTopic(device string) string { return deviceTopic(n.groupID, "DBIRTH", n.edgeNodeID, device) }
func (n *Node) ddeathTopic(device string) string { return deviceTopic(n.groupID, "DDEATH", n.edgeNodeID, device) }
func (n *Node) ddataTopic(device string) string  { return deviceTopic(n.groupID, "DDATA", n.edgeNodeID, device) }
func (n *Node) dcmdSubscription() string {
	return nodeTopic(n.groupID, "DCMD", n.edgeNodeID) + "/#"
}
