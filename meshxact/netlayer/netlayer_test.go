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

package netlayer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/sar"
)

func pubSetReq() *cfgmsg.ModelPublicationSetReq {
	return &cfgmsg.ModelPublicationSetReq{
		ElementAddress:     0x0002,
		AppKeyIndex:        0x0000,
		PublishAddress:     0x1234,
		Ttl:                0x04,
		Period:             0x01,
		RetransmitCount:    0x02,
		RetransmitInterval: 0x05,
		ModelId:            meshdefs.SigModelId(0x1000),
	}
}

func TestBuildPublicationSet(t *testing.T) {
	nl := NewNetLayer()

	pdus, err := nl.BuildOutgoingPdus(pubSetReq(), NetworkContext{}, 0x0002)
	require.NoError(t, err)
	require.Len(t, pdus, 1)

	assert.Equal(t, []byte{
		cfgmsg.OP_MODEL_PUBLICATION_SET,
		0x00, 0x02, 0x00, 0x00, 0x12, 0x34, 0x04, 0x01, 0x02, 0x05,
		0x10, 0x00,
		0x00, 0x02,
	}, pdus[0])

	chunks, err := sar.Fragment(sar.PDU_TYPE_NETWORK, pdus[0], 20)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, byte(0x00), chunks[0][0])
	assert.Equal(t, pdus[0], chunks[0][1:])
}

func TestBuildEncodeError(t *testing.T) {
	req := pubSetReq()
	req.ElementAddress = 0

	_, err := NewNetLayer().BuildOutgoingPdus(req, NetworkContext{}, 0x0002)
	assert.Error(t, err)
}

func TestTxFilter(t *testing.T) {
	nc := NetworkContext{Source: 0x0001, IvIndex: 7, Ttl: 5}

	var gotNc NetworkContext
	var gotDst meshdefs.Address
	nl := &NetLayer{
		TxFilter: func(pdu []byte, nc NetworkContext,
			dst meshdefs.Address) ([]byte, error) {

			gotNc = nc
			gotDst = dst
			return append(pdu, 0xee), nil
		},
	}

	pdus, err := nl.BuildOutgoingPdus(&cfgmsg.NodeResetReq{}, nc, 0x0042)
	require.NoError(t, err)
	assert.Equal(t, []byte{cfgmsg.OP_NODE_RESET, 0x00, 0x42, 0xee}, pdus[0])
	assert.Equal(t, nc, gotNc)
	assert.Equal(t, meshdefs.Address(0x0042), gotDst)

	ack, err := nl.BuildSegmentAck(0x0002, nc)
	require.NoError(t, err)
	assert.Equal(t, []byte{cfgmsg.OP_SEGMENT_ACK, 0x00, 0x02, 0xee}, ack)

	nl.TxFilter = func([]byte, NetworkContext,
		meshdefs.Address) ([]byte, error) {

		return nil, fmt.Errorf("no key")
	}
	_, err = nl.BuildOutgoingPdus(&cfgmsg.NodeResetReq{}, nc, 0x0042)
	assert.Error(t, err)
}

func TestDecodeBindStatusFrame(t *testing.T) {
	nl := NewNetLayer()
	raw := []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x02, 0x10, 0x00, 0x00, 0x02}

	expected := &cfgmsg.ModelAppBindStatus{
		Status:         meshdefs.STATUS_SUCCESS,
		AppKeyIndex:    0x0000,
		ElementAddress: 0x0002,
		ModelId:        meshdefs.SigModelId(0x1000),
		Source:         0x0002,
	}

	msg, err := nl.DecodeIncomingPdu(raw)
	require.NoError(t, err)
	assert.Equal(t, expected, msg)

	// Same PDU behind a network type byte.
	msg, err = nl.DecodeIncomingPdu(append([]byte{0x00}, raw...))
	require.NoError(t, err)
	assert.Equal(t, expected, msg)
}

func TestDecodeBeacon(t *testing.T) {
	msg, err := NewNetLayer().DecodeIncomingPdu([]byte{0x01, 0x02, 0x03})
	assert.NoError(t, err)
	assert.Nil(t, msg)
}

func TestDecodeProxyConfig(t *testing.T) {
	nl := NewNetLayer()

	// Shaped like a composition status, but typed as proxy configuration.
	msg, err := nl.DecodeIncomingPdu([]byte{sar.PDU_TYPE_PROXY_CFG, 0x00,
		0xaa, 0xbb, 0x00, 0x02})
	assert.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = nl.DecodeIncomingPdu([]byte{cfgmsg.OP_COMPOSITION_DATA_STATUS,
		0x00, 0xaa, 0xbb, 0x00, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb},
		msg.(*cfgmsg.CompositionDataStatus).Data)
}

func TestDecodeFailures(t *testing.T) {
	nl := NewNetLayer()

	_, err := nl.DecodeIncomingPdu(nil)
	assert.True(t, mxutil.IsMalformedPayload(err))

	_, err = nl.DecodeIncomingPdu([]byte{0x00})
	assert.True(t, mxutil.IsMalformedPayload(err))

	_, err = nl.DecodeIncomingPdu([]byte{0x00, 0x7e, 0x01})
	assert.True(t, mxutil.IsUnknownOpcode(err))

	_, err = nl.DecodeIncomingPdu([]byte{0x03, 0x00, 0x00})
	assert.True(t, mxutil.IsMalformedPayload(err))
}

func TestRxFilter(t *testing.T) {
	nl := &NetLayer{
		RxFilter: func(pdu []byte) ([]byte, error) {
			// Strip a one-byte trailer.
			return pdu[:len(pdu)-1], nil
		},
	}

	msg, err := nl.DecodeIncomingPdu([]byte{0x00, 0x07, 0x00, 0x09, 0xff})
	require.NoError(t, err)
	assert.Equal(t, &cfgmsg.NodeResetStatus{Source: 0x0009}, msg)

	nl.RxFilter = func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("bad mic")
	}
	_, err = nl.DecodeIncomingPdu([]byte{0x00, 0x07, 0x00, 0x09})
	assert.Error(t, err)
}
