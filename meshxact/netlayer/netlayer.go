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

// Package netlayer converts configuration requests into access PDUs and
// decodes inbound proxy PDUs into status messages.  It holds no per-exchange
// state and may be shared between configurators.
package netlayer

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/sar"
)

// Keying and addressing parameters for a lower encryption layer.  The
// network layer passes them through to the filters untouched.
type NetworkContext struct {
	Source      meshdefs.Address
	NetKeyIndex meshdefs.KeyIndex
	IvIndex     uint32
	Ttl         uint8
}

// Applied to every outgoing PDU after encoding.
type TxFilter func(pdu []byte, nc NetworkContext,
	dst meshdefs.Address) ([]byte, error)

// Applied to every inbound network PDU body before decoding.
type RxFilter func(pdu []byte) ([]byte, error)

type NetLayer struct {
	TxFilter TxFilter
	RxFilter RxFilter
}

func NewNetLayer() *NetLayer {
	return &NetLayer{}
}

func (nl *NetLayer) filterTx(pdu []byte, nc NetworkContext,
	dst meshdefs.Address) ([]byte, error) {

	if nl.TxFilter == nil {
		return pdu, nil
	}

	out, err := nl.TxFilter(pdu, nc, dst)
	if err != nil {
		return nil, errors.Wrap(err, "tx filter")
	}
	return out, nil
}

// Builds the logical PDUs carrying the specified request to dst.  This
// layer does not fragment, so the result always holds a single PDU:
// [opcode][fields][dst].
func (nl *NetLayer) BuildOutgoingPdus(req cfgmsg.Request, nc NetworkContext,
	dst meshdefs.Address) ([][]byte, error) {

	body, err := cfgmsg.Encode(req)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s",
			cfgmsg.OpcodeString(req.Opcode()))
	}

	pdu := make([]byte, 0, 1+len(body)+meshdefs.ADDR_SIZE)
	pdu = append(pdu, req.Opcode())
	pdu = append(pdu, body...)
	pdu = append(pdu, dst.Bytes()...)

	pdu, err = nl.filterTx(pdu, nc, dst)
	if err != nil {
		return nil, err
	}

	return [][]byte{pdu}, nil
}

// Builds the acknowledgement sent to a node after it delivers a segmented
// status.
func (nl *NetLayer) BuildSegmentAck(src meshdefs.Address,
	nc NetworkContext) ([]byte, error) {

	pdu := make([]byte, 0, 1+meshdefs.ADDR_SIZE)
	pdu = append(pdu, cfgmsg.OP_SEGMENT_ACK)
	pdu = append(pdu, src.Bytes()...)

	return nl.filterTx(pdu, nc, src)
}

// Decodes a reassembled proxy PDU.  Returns nil, nil for secure beacons and
// proxy configuration PDUs.
//
// A leading network PDU type byte is stripped.  Any other leading byte is
// taken to be the status opcode of an access PDU whose type byte has
// already been removed.
func (nl *NetLayer) DecodeIncomingPdu(raw []byte) (cfgmsg.StatusMsg, error) {
	if len(raw) == 0 {
		return nil, mxutil.NewMalformedPayloadError(0, 0, "empty PDU")
	}

	body := raw
	switch raw[0] {
	case sar.PDU_TYPE_BEACON:
		log.Debugf("ignoring secure network beacon (%d bytes)", len(raw))
		return nil, nil

	case sar.PDU_TYPE_PROXY_CFG:
		log.Debugf("ignoring proxy configuration PDU (%d bytes)", len(raw))
		return nil, nil

	case sar.PDU_TYPE_NETWORK:
		body = raw[1:]
	}

	if nl.RxFilter != nil {
		var err error
		body, err = nl.RxFilter(body)
		if err != nil {
			return nil, errors.Wrap(err, "rx filter")
		}
	}

	if len(body) == 0 {
		return nil, mxutil.NewMalformedPayloadError(0, 0,
			"network PDU without opcode")
	}

	return cfgmsg.Decode(body[0], body[1:])
}
