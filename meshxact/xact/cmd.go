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
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/netlayer"
	"mynewt.apache.org/meshmgr/meshxact/sar"
)

type State int

const (
	STATE_IDLE State = iota
	STATE_AWAITING_ACK
	STATE_AWAITING_STATUS
	STATE_COMPLETED
	STATE_FAILED
	STATE_ABANDONED
)

var stateNameMap = map[State]string{
	STATE_IDLE:            "idle",
	STATE_AWAITING_ACK:    "awaiting_ack",
	STATE_AWAITING_STATUS: "awaiting_status",
	STATE_COMPLETED:       "completed",
	STATE_FAILED:          "failed",
	STATE_ABANDONED:       "abandoned",
}

func (s State) String() string {
	name, ok := stateNameMap[s]
	if !ok {
		return "???"
	}
	return name
}

func (s State) Terminal() bool {
	return s >= STATE_COMPLETED
}

// Connection-side operations a configurator needs.  Implemented by
// *sesn.Sesn.
type Txer interface {
	TxRaw(b []byte) error
	MtuOut() int

	// Runs fn after d, serialized with inbound data.  Returns a function
	// that cancels the call.
	AfterFunc(d time.Duration, fn func()) func()
}

// The outcome of one configuration exchange.
type Result struct {
	Status cfgmsg.StatusMsg
	Err    error
}

// The status code reported by the node, or unspecified-error if the
// exchange failed before a status arrived.
func (r Result) StatusCode() meshdefs.StatusCode {
	if r.Err != nil || r.Status == nil {
		return meshdefs.STATUS_UNSPECIFIED_ERROR
	}
	return r.Status.StatusCode()
}

// A single-use configuration exchange with one node.
type Cmd interface {
	Name() string
	State() State

	// Sends the request.  The result is delivered over ch exactly once,
	// unless the command is abandoned first.  ch must have room for one
	// result.
	Execute(tx Txer, ch chan<- Result) error

	// Feeds one inbound transport chunk to the command.
	ReceivedData(data []byte)

	// Stops the exchange without delivering a result.
	Abandon()
}

// Implemented by each configurator type.
type variant interface {
	requiredFields() []field
	request() cfgmsg.Request

	// Validates the request against known node state.
	checkState(n *meshstate.Node) error

	// Records a successful status.
	updateState(st meshstate.Store, nodeId string, msg cfgmsg.StatusMsg) error
}

type field uint32

const (
	FIELD_DST field = 1 << iota
	FIELD_ELEMENT
	FIELD_NET_KEY_INDEX
	FIELD_APP_KEY_INDEX
	FIELD_APP_KEY
	FIELD_MODEL
	FIELD_PUBLISH_ADDR
	FIELD_TTL
	FIELD_PERIOD
	FIELD_RETRANSMIT_COUNT
	FIELD_RETRANSMIT_INTERVAL
	FIELD_SUB_ADDR
)

var fieldNameMap = map[field]string{
	FIELD_DST:                 "destination",
	FIELD_ELEMENT:             "element_address",
	FIELD_NET_KEY_INDEX:       "net_key_index",
	FIELD_APP_KEY_INDEX:       "app_key_index",
	FIELD_APP_KEY:             "app_key",
	FIELD_MODEL:               "model_id",
	FIELD_PUBLISH_ADDR:        "publish_address",
	FIELD_TTL:                 "ttl",
	FIELD_PERIOD:              "period",
	FIELD_RETRANSMIT_COUNT:    "retransmit_count",
	FIELD_RETRANSMIT_INTERVAL: "retransmit_interval",
	FIELD_SUB_ADDR:            "subscription_address",
}

var DfltNetLayer = netlayer.NewNetLayer()

type CmdBase struct {
	name     string
	v        variant
	statusOp uint8

	state    State
	stateMtx sync.Mutex

	set      field
	dst      meshdefs.Address
	nc       netlayer.NetworkContext
	nl       *netlayer.NetLayer
	ackDelay time.Duration

	store  meshstate.Store
	nodeId string

	reasm      *sar.Reassembler
	tx         Txer
	resCh      chan<- Result
	ackCancels []func()
}

func newCmdBase(name string, v variant, statusOp uint8) CmdBase {
	return CmdBase{
		name:     name,
		v:        v,
		statusOp: statusOp,
		nl:       DfltNetLayer,
		reasm:    sar.NewReassembler(),
	}
}

func (c *CmdBase) Name() string {
	return c.name
}

func (c *CmdBase) State() State {
	c.stateMtx.Lock()
	defer c.stateMtx.Unlock()

	return c.state
}

func (c *CmdBase) setState(s State) {
	c.stateMtx.Lock()
	defer c.stateMtx.Unlock()

	log.Debugf("%s: %s -> %s", c.name, c.state, s)
	c.state = s
}

func (c *CmdBase) mark(f field) {
	c.set |= f
}

func (c *CmdBase) SetDestination(dst meshdefs.Address) {
	c.dst = dst
	c.mark(FIELD_DST)
}

func (c *CmdBase) SetNetworkContext(nc netlayer.NetworkContext) {
	c.nc = nc
}

func (c *CmdBase) SetNetLayer(nl *netlayer.NetLayer) {
	c.nl = nl
}

// When a status arrives segmented, an acknowledgement is sent to the node
// after this delay.  Zero disables acknowledgements.
func (c *CmdBase) SetAckDelay(d time.Duration) {
	c.ackDelay = d
}

// Attaches persisted network state.  The command validates its request
// against the node's state and records a successful outcome.  If no
// destination is set, the node's unicast address is used.
func (c *CmdBase) SetStateStore(st meshstate.Store, nodeId string) {
	c.store = st
	c.nodeId = nodeId
}

func (c *CmdBase) checkRequired() error {
	for _, f := range append([]field{FIELD_DST}, c.v.requiredFields()...) {
		if c.set&f == 0 {
			return mxutil.NewPreconditionUnsetError(fieldNameMap[f])
		}
	}
	return nil
}

func (c *CmdBase) prepare() error {
	if c.store != nil {
		n, err := c.store.Node(c.nodeId)
		if err != nil {
			return err
		}

		if c.set&FIELD_DST == 0 {
			c.SetDestination(n.Unicast)
		}

		if err := c.v.checkState(n); err != nil {
			return err
		}
	}

	return c.checkRequired()
}

func (c *CmdBase) Execute(tx Txer, ch chan<- Result) error {
	if c.State() != STATE_IDLE {
		return mxutil.NewAlreadyExecutedError(
			fmt.Sprintf("%s already executed; state=%s", c.name, c.State()))
	}

	if err := c.prepare(); err != nil {
		return err
	}

	pdus, err := c.nl.BuildOutgoingPdus(c.v.request(), c.nc, c.dst)
	if err != nil {
		return err
	}

	mtu := tx.MtuOut()
	var chunks [][]byte
	for _, pdu := range pdus {
		frags, err := sar.Fragment(sar.PDU_TYPE_NETWORK, pdu, mtu)
		if err != nil {
			return err
		}
		chunks = append(chunks, frags...)
	}
	for _, chunk := range chunks {
		if len(chunk) > mtu {
			return mxutil.NewXportTooLargeError(len(chunk), mtu)
		}
	}

	c.tx = tx
	c.resCh = ch

	if len(chunks) > 1 {
		c.setState(STATE_AWAITING_ACK)
	}

	for i, chunk := range chunks {
		log.Debugf("%s: tx %s segment %d/%d to %s", c.name,
			sar.MarkerString(chunk[0]), i+1, len(chunks), c.dst)

		if err := tx.TxRaw(chunk); err != nil {
			c.fail(errors.Wrapf(err, "%s: write failed", c.name))
			return nil
		}
	}

	c.setState(STATE_AWAITING_STATUS)
	return nil
}

func (c *CmdBase) ReceivedData(data []byte) {
	state := c.State()
	if state == STATE_IDLE || state.Terminal() {
		log.Debugf("%s: ignoring %d bytes in state %s", c.name, len(data),
			state)
		return
	}

	f, err := c.reasm.RxFrag(data)
	if err != nil && !mxutil.IsBufferReset(err) {
		c.fail(err)
		return
	}
	if f == nil {
		return
	}

	msg, err := c.nl.DecodeIncomingPdu(f.Data)
	if err != nil {
		c.fail(err)
		return
	}
	if msg == nil {
		return
	}

	if msg.Opcode() != c.statusOp {
		log.Debugf("%s: ignoring unrelated %s from %s", c.name,
			cfgmsg.OpcodeString(msg.Opcode()), msg.Src())
		return
	}

	if f.Segmented() && c.ackDelay > 0 {
		c.scheduleAck(msg.Src())
	}

	c.complete(msg)
}

func (c *CmdBase) scheduleAck(src meshdefs.Address) {
	tx := c.tx
	cancel := tx.AfterFunc(c.ackDelay, func() {
		pdu, err := c.nl.BuildSegmentAck(src, c.nc)
		if err != nil {
			log.Warnf("%s: failed to build segment ack: %s", c.name,
				err.Error())
			return
		}

		chunks, err := sar.Fragment(sar.PDU_TYPE_NETWORK, pdu, tx.MtuOut())
		if err != nil {
			log.Warnf("%s: failed to frame segment ack: %s", c.name,
				err.Error())
			return
		}

		for _, chunk := range chunks {
			if err := tx.TxRaw(chunk); err != nil {
				log.Debugf("%s: segment ack to %s not sent: %s", c.name, src,
					err.Error())
				return
			}
		}
	})

	c.ackCancels = append(c.ackCancels, cancel)
}

func (c *CmdBase) deliver(res Result) {
	ch := c.resCh
	c.resCh = nil
	if ch == nil {
		return
	}

	select {
	case ch <- res:
	default:
		log.Warnf("%s: result channel full; result dropped", c.name)
	}
}

func (c *CmdBase) complete(msg cfgmsg.StatusMsg) {
	c.setState(STATE_COMPLETED)
	c.reasm.Reset()

	if c.store != nil && msg.StatusCode().Success() {
		if err := c.v.updateState(c.store, c.nodeId, msg); err != nil {
			log.Warnf("%s: failed to record status for node \"%s\": %s",
				c.name, c.nodeId, err.Error())
		}
	}

	c.deliver(Result{Status: msg})
}

func (c *CmdBase) fail(err error) {
	log.Debugf("%s: failed: %s", c.name, err.Error())

	c.setState(STATE_FAILED)
	c.reasm.Reset()
	c.deliver(Result{Err: err})
}

// Pending acknowledgements are cancelled even if the command has already
// completed.
func (c *CmdBase) Abandon() {
	for _, cancel := range c.ackCancels {
		cancel()
	}
	c.ackCancels = nil
	c.reasm.Reset()

	if !c.State().Terminal() {
		c.setState(STATE_ABANDONED)
		c.resCh = nil
	}
}
