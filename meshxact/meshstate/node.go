/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package meshstate

import (
	"fmt"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

// What the configurator knows about one provisioned node.  Per-model maps
// are keyed by ModelKey(element, model).
type Node struct {
	NodeId                string                        `codec:"node_id"`
	Unicast               meshdefs.Address              `codec:"unicast"`
	AppKeys               []meshdefs.KeyIndex           `codec:"app_keys"`
	ModelKeyBindings      map[string]meshdefs.KeyIndex  `codec:"model_key_bindings"`
	ModelPublishAddresses map[string]meshdefs.Address   `codec:"model_publish_addresses"`
	ModelSubscriptions    map[string][]meshdefs.Address `codec:"model_subscriptions"`
	CompositionData       []byte                        `codec:"composition_data"`
}

func NewNode(id string, unicast meshdefs.Address) *Node {
	return &Node{
		NodeId:  id,
		Unicast: unicast,
	}
}

func ModelKey(elem meshdefs.Address, model meshdefs.ModelId) string {
	return fmt.Sprintf("%s/%s", elem, model)
}

func (n *Node) HasAppKey(idx meshdefs.KeyIndex) bool {
	for _, k := range n.AppKeys {
		if k == idx {
			return true
		}
	}
	return false
}

func (n *Node) AddAppKey(idx meshdefs.KeyIndex) {
	if !n.HasAppKey(idx) {
		n.AppKeys = append(n.AppKeys, idx)
	}
}

func (n *Node) BindAppKey(elem meshdefs.Address, model meshdefs.ModelId,
	idx meshdefs.KeyIndex) {

	if n.ModelKeyBindings == nil {
		n.ModelKeyBindings = map[string]meshdefs.KeyIndex{}
	}
	n.ModelKeyBindings[ModelKey(elem, model)] = idx
}

func (n *Node) SetPublishAddress(elem meshdefs.Address,
	model meshdefs.ModelId, addr meshdefs.Address) {

	if n.ModelPublishAddresses == nil {
		n.ModelPublishAddresses = map[string]meshdefs.Address{}
	}
	n.ModelPublishAddresses[ModelKey(elem, model)] = addr
}

func (n *Node) AddSubscription(elem meshdefs.Address, model meshdefs.ModelId,
	addr meshdefs.Address) {

	if n.ModelSubscriptions == nil {
		n.ModelSubscriptions = map[string][]meshdefs.Address{}
	}

	key := ModelKey(elem, model)
	for _, a := range n.ModelSubscriptions[key] {
		if a == addr {
			return
		}
	}
	n.ModelSubscriptions[key] = append(n.ModelSubscriptions[key], addr)
}

// Returns a deep copy of the node.
func (n *Node) Copy() *Node {
	c := *n

	c.AppKeys = append([]meshdefs.KeyIndex(nil), n.AppKeys...)
	c.CompositionData = append([]byte(nil), n.CompositionData...)

	if n.ModelKeyBindings != nil {
		c.ModelKeyBindings = make(map[string]meshdefs.KeyIndex,
			len(n.ModelKeyBindings))
		for k, v := range n.ModelKeyBindings {
			c.ModelKeyBindings[k] = v
		}
	}

	if n.ModelPublishAddresses != nil {
		c.ModelPublishAddresses = make(map[string]meshdefs.Address,
			len(n.ModelPublishAddresses))
		for k, v := range n.ModelPublishAddresses {
			c.ModelPublishAddresses[k] = v
		}
	}

	if n.ModelSubscriptions != nil {
		c.ModelSubscriptions = make(map[string][]meshdefs.Address,
			len(n.ModelSubscriptions))
		for k, v := range n.ModelSubscriptions {
			c.ModelSubscriptions[k] = append([]meshdefs.Address(nil), v...)
		}
	}

	return &c
}
