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

package xact

import (
	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
)

// No store validation or bookkeeping.
type noState struct{}

func (noState) checkState(n *meshstate.Node) error { return nil }

func (noState) updateState(st meshstate.Store, nodeId string,
	msg cfgmsg.StatusMsg) error {

	return nil
}

//////////////////////////////////////////////////////////////////////////////
// $composition                                                             //
//////////////////////////////////////////////////////////////////////////////

type CompositionGetCmd struct {
	CmdBase
	noState
	page uint8
}

func NewCompositionGetCmd() *CompositionGetCmd {
	c := &CompositionGetCmd{}
	c.CmdBase = newCmdBase("composition_get", c,
		cfgmsg.OP_COMPOSITION_DATA_STATUS)
	return c
}

func (c *CompositionGetCmd) SetPage(page uint8) {
	c.page = page
}

func (c *CompositionGetCmd) requiredFields() []field {
	return nil
}

func (c *CompositionGetCmd) request() cfgmsg.Request {
	return &cfgmsg.CompositionDataGetReq{Page: c.page}
}

func (c *CompositionGetCmd) updateState(st meshstate.Store, nodeId string,
	msg cfgmsg.StatusMsg) error {

	s := msg.(*cfgmsg.CompositionDataStatus)
	return st.UpdateNode(nodeId, func(n *meshstate.Node) error {
		n.CompositionData = s.Data
		return nil
	})
}

//////////////////////////////////////////////////////////////////////////////
// $appkey                                                                  //
//////////////////////////////////////////////////////////////////////////////

type AppKeyAddCmd struct {
	CmdBase
	noState
	netKeyIndex meshdefs.KeyIndex
	appKeyIndex meshdefs.KeyIndex
	appKey      meshdefs.AppKey
}

func NewAppKeyAddCmd() *AppKeyAddCmd {
	c := &AppKeyAddCmd{}
	c.CmdBase = newCmdBase("app_key_add", c, cfgmsg.OP_APP_KEY_STATUS)
	return c
}

func (c *AppKeyAddCmd) SetNetKeyIndex(idx meshdefs.KeyIndex) {
	c.netKeyIndex = idx
	c.mark(FIELD_NET_KEY_INDEX)
}

func (c *AppKeyAddCmd) SetAppKeyIndex(idx meshdefs.KeyIndex) {
	c.appKeyIndex = idx
	c.mark(FIELD_APP_KEY_INDEX)
}

func (c *AppKeyAddCmd) SetAppKey(key meshdefs.AppKey) {
	c.appKey = key
	c.mark(FIELD_APP_KEY)
}

func (c *AppKeyAddCmd) requiredFields() []field {
	return []field{FIELD_NET_KEY_INDEX, FIELD_APP_KEY_INDEX, FIELD_APP_KEY}
}

func (c *AppKeyAddCmd) request() cfgmsg.Request {
	return &cfgmsg.AppKeyAddReq{
		NetKeyIndex: c.netKeyIndex,
		AppKeyIndex: c.appKeyIndex,
		AppKey:      c.appKey,
	}
}

func (c *AppKeyAddCmd) updateState(st meshstate.Store, nodeId string,
	msg cfgmsg.StatusMsg) error {

	s := msg.(*cfgmsg.AppKeyStatus)
	if err := st.PutAppKey(s.AppKeyIndex, c.appKey); err != nil {
		return err
	}

	return st.UpdateNode(nodeId, func(n *meshstate.Node) error {
		n.AddAppKey(s.AppKeyIndex)
		return nil
	})
}

//////////////////////////////////////////////////////////////////////////////
// $bind                                                                    //
//////////////////////////////////////////////////////////////////////////////

type ModelAppBindCmd struct {
	CmdBase
	elem        meshdefs.Address
	appKeyIndex meshdefs.KeyIndex
	model       meshdefs.ModelId
}

func NewModelAppBindCmd() *ModelAppBindCmd {
	c := &ModelAppBindCmd{}
	c.CmdBase = newCmdBase("model_app_bind", c,
		cfgmsg.OP_MODEL_APP_BIND_STATUS)
	return c
}

func (c *ModelAppBindCmd) SetElementAddress(elem meshdefs.Address) {
	c.elem = elem
	c.mark(FIELD_ELEMENT)
}

func (c *ModelAppBindCmd) SetAppKeyIndex(idx meshdefs.KeyIndex) {
	c.appKeyIndex = idx
	c.mark(FIELD_APP_KEY_INDEX)
}

func (c *ModelAppBindCmd) SetModelId(model meshdefs.ModelId) {
	c.model = model
	c.mark(FIELD_MODEL)
}

func (c *ModelAppBindCmd) requiredFields() []field {
	return []field{FIELD_ELEMENT, FIELD_APP_KEY_INDEX, FIELD_MODEL}
}

func (c *ModelAppBindCmd) request() cfgmsg.Request {
	return &cfgmsg.ModelAppBindReq{
		ElementAddress: c.elem,
		AppKeyIndex:    c.appKeyIndex,
		ModelId:        c.model,
	}
}

// Refuses to bind a key the node has not been given.
func (c *ModelAppBindCmd) checkState(n *meshstate.Node) error {
	if c.set&FIELD_APP_KEY_INDEX != 0 && !n.HasAppKey(c.appKeyIndex) {
		return mxutil.NewUnknownAppKeyError(uint16(c.appKeyIndex), n.NodeId)
	}
	return nil
}

func (c *ModelAppBindCmd) updateState(st meshstate.Store, nodeId string,
	msg cfgmsg.StatusMsg) error {

	s := msg.(*cfgmsg.ModelAppBindStatus)
	return st.UpdateNode(nodeId, func(n *meshstate.Node) error {
		n.BindAppKey(s.ElementAddress, s.ModelId, s.AppKeyIndex)
		return nil
	})
}

//////////////////////////////////////////////////////////////////////////////
// $publication                                                             //
//////////////////////////////////////////////////////////////////////////////

// Publication parameters of a model.
type PublishParams struct {
	Address            meshdefs.Address
	AppKeyIndex        meshdefs.KeyIndex
	CredentialFlag     bool
	Ttl                uint8
	Period             uint8
	RetransmitCount    uint8
	RetransmitInterval uint8
}

// Publication parameters commonly used when pointing a model at a group.
func NewPublishParams(addr meshdefs.Address) PublishParams {
	return PublishParams{
		Address:            addr,
		AppKeyIndex:        0x0000,
		Ttl:                0x04,
		Period:             0x01,
		RetransmitCount:    0x02,
		RetransmitInterval: 0x05,
	}
}

type ModelPublicationSetCmd struct {
	CmdBase
	elem  meshdefs.Address
	model meshdefs.ModelId
	pub   PublishParams
}

func NewModelPublicationSetCmd() *ModelPublicationSetCmd {
	c := &ModelPublicationSetCmd{}
	c.CmdBase = newCmdBase("model_publication_set", c,
		cfgmsg.OP_MODEL_PUBLICATION_STATUS)
	return c
}

func (c *ModelPublicationSetCmd) SetElementAddress(elem meshdefs.Address) {
	c.elem = elem
	c.mark(FIELD_ELEMENT)
}

func (c *ModelPublicationSetCmd) SetModelId(model meshdefs.ModelId) {
	c.model = model
	c.mark(FIELD_MODEL)
}

func (c *ModelPublicationSetCmd) SetAppKeyIndex(idx meshdefs.KeyIndex) {
	c.pub.AppKeyIndex = idx
	c.mark(FIELD_APP_KEY_INDEX)
}

func (c *ModelPublicationSetCmd) SetCredentialFlag(flag bool) {
	c.pub.CredentialFlag = flag
}

func (c *ModelPublicationSetCmd) SetPublishAddress(addr meshdefs.Address) {
	c.pub.Address = addr
	c.mark(FIELD_PUBLISH_ADDR)
}

func (c *ModelPublicationSetCmd) SetTtl(ttl uint8) {
	c.pub.Ttl = ttl
	c.mark(FIELD_TTL)
}

func (c *ModelPublicationSetCmd) SetPeriod(period uint8) {
	c.pub.Period = period
	c.mark(FIELD_PERIOD)
}

func (c *ModelPublicationSetCmd) SetRetransmitCount(count uint8) {
	c.pub.RetransmitCount = count
	c.mark(FIELD_RETRANSMIT_COUNT)
}

func (c *ModelPublicationSetCmd) SetRetransmitInterval(itvl uint8) {
	c.pub.RetransmitInterval = itvl
	c.mark(FIELD_RETRANSMIT_INTERVAL)
}

// Sets every publication parameter at once.
func (c *ModelPublicationSetCmd) SetPublish(p PublishParams) {
	c.pub = p
	c.mark(FIELD_PUBLISH_ADDR | FIELD_APP_KEY_INDEX | FIELD_TTL |
		FIELD_PERIOD | FIELD_RETRANSMIT_COUNT | FIELD_RETRANSMIT_INTERVAL)
}

func (c *ModelPublicationSetCmd) requiredFields() []field {
	return []field{
		FIELD_ELEMENT,
		FIELD_APP_KEY_INDEX,
		FIELD_PUBLISH_ADDR,
		FIELD_TTL,
		FIELD_PERIOD,
		FIELD_RETRANSMIT_COUNT,
		FIELD_RETRANSMIT_INTERVAL,
		FIELD_MODEL,
	}
}

func (c *ModelPublicationSetCmd) request() cfgmsg.Request {
	return &cfgmsg.ModelPublicationSetReq{
		ElementAddress:     c.elem,
		AppKeyIndex:        c.pub.AppKeyIndex,
		CredentialFlag:     c.pub.CredentialFlag,
		PublishAddress:     c.pub.Address,
		Ttl:                c.pub.Ttl,
		Period:             c.pub.Period,
		RetransmitCount:    c.pub.RetransmitCount,
		RetransmitInterval: c.pub.RetransmitInterval,
		ModelId:            c.model,
	}
}

func (c *ModelPublicationSetCmd) checkState(n *meshstate.Node) error {
	return nil
}

func (c *ModelPublicationSetCmd) updateState(st meshstate.Store,
	nodeId string, msg cfgmsg.StatusMsg) error {

	s := msg.(*cfgmsg.ModelPublicationStatus)
	return st.UpdateNode(nodeId, func(n *meshstate.Node) error {
		n.SetPublishAddress(s.ElementAddress, s.ModelId, s.PublishAddress)
		return nil
	})
}

//////////////////////////////////////////////////////////////////////////////
// $subscription                                                            //
//////////////////////////////////////////////////////////////////////////////

type ModelSubscriptionAddCmd struct {
	CmdBase
	noState
	elem  meshdefs.Address
	addr  meshdefs.Address
	model meshdefs.ModelId
}

func NewModelSubscriptionAddCmd() *ModelSubscriptionAddCmd {
	c := &ModelSubscriptionAddCmd{}
	c.CmdBase = newCmdBase("model_subscription_add", c,
		cfgmsg.OP_MODEL_SUBSCRIPTION_STATUS)
	return c
}

func (c *ModelSubscriptionAddCmd) SetElementAddress(elem meshdefs.Address) {
	c.elem = elem
	c.mark(FIELD_ELEMENT)
}

func (c *ModelSubscriptionAddCmd) SetAddress(addr meshdefs.Address) {
	c.addr = addr
	c.mark(FIELD_SUB_ADDR)
}

func (c *ModelSubscriptionAddCmd) SetModelId(model meshdefs.ModelId) {
	c.model = model
	c.mark(FIELD_MODEL)
}

func (c *ModelSubscriptionAddCmd) requiredFields() []field {
	return []field{FIELD_ELEMENT, FIELD_SUB_ADDR, FIELD_MODEL}
}

func (c *ModelSubscriptionAddCmd) request() cfgmsg.Request {
	return &cfgmsg.ModelSubscriptionAddReq{
		ElementAddress: c.elem,
		Address:        c.addr,
		ModelId:        c.model,
	}
}

func (c *ModelSubscriptionAddCmd) updateState(st meshstate.Store,
	nodeId string, msg cfgmsg.StatusMsg) error {

	s := msg.(*cfgmsg.ModelSubscriptionStatus)
	return st.UpdateNode(nodeId, func(n *meshstate.Node) error {
		n.AddSubscription(s.ElementAddress, s.ModelId, s.Address)
		return nil
	})
}

//////////////////////////////////////////////////////////////////////////////
// $reset                                                                   //
//////////////////////////////////////////////////////////////////////////////

type NodeResetCmd struct {
	CmdBase
	noState
}

func NewNodeResetCmd() *NodeResetCmd {
	c := &NodeResetCmd{}
	c.CmdBase = newCmdBase("node_reset", c, cfgmsg.OP_NODE_RESET_STATUS)
	return c
}

func (c *NodeResetCmd) requiredFields() []field {
	return nil
}

func (c *NodeResetCmd) request() cfgmsg.Request {
	return &cfgmsg.NodeResetReq{}
}

// A reset node leaves the network; forget it.
func (c *NodeResetCmd) updateState(st meshstate.Store, nodeId string,
	msg cfgmsg.StatusMsg) error {

	return st.RemoveNode(nodeId)
}
