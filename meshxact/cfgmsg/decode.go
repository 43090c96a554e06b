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

package cfgmsg

import (
	"encoding/binary"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
)

// Reads fixed-width big-endian fields from a status body.  Bounds are
// checked by the caller against the layout before reading.
type fieldReader struct {
	b   []byte
	off int
}

func (r *fieldReader) u8() uint8 {
	v := r.b[r.off]
	r.off++
	return v
}

func (r *fieldReader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *fieldReader) bytes(n int) []byte {
	v := make([]byte, n)
	copy(v, r.b[r.off:r.off+n])
	r.off += n
	return v
}

func (r *fieldReader) status() meshdefs.StatusCode {
	return meshdefs.StatusCode(r.u8())
}

func (r *fieldReader) addr() meshdefs.Address {
	return meshdefs.Address(r.u16())
}

func (r *fieldReader) keyIndex() meshdefs.KeyIndex {
	return meshdefs.KeyIndex(r.u16())
}

func (r *fieldReader) model(n int) meshdefs.ModelId {
	m, _ := meshdefs.ParseModelId(r.bytes(n))
	return m
}

// Returns the model id width implied by a body of the specified length whose
// other fields occupy fixed bytes.
func modelWidth(op uint8, body []byte, fixed int) (int, error) {
	w := len(body) - fixed
	if w != meshdefs.SIG_MODEL_ID_SIZE && w != meshdefs.VENDOR_MODEL_ID_SIZE {
		return 0, mxutil.FmtMalformedPayloadError(op, len(body),
			"want %d or %d bytes", fixed+meshdefs.SIG_MODEL_ID_SIZE,
			fixed+meshdefs.VENDOR_MODEL_ID_SIZE)
	}

	return w, nil
}

func exactLen(op uint8, body []byte, want int) error {
	if len(body) != want {
		return mxutil.FmtMalformedPayloadError(op, len(body),
			"want %d bytes", want)
	}
	return nil
}

type statusDecoder func(op uint8, body []byte) (StatusMsg, error)

func decodeCompositionDataStatus(op uint8, body []byte) (StatusMsg, error) {
	if len(body) < PAGE_SZ+ADDR_SZ {
		return nil, mxutil.FmtMalformedPayloadError(op, len(body),
			"want at least %d bytes", PAGE_SZ+ADDR_SZ)
	}

	r := fieldReader{b: body}
	s := &CompositionDataStatus{}
	s.Page = r.u8()
	s.Data = r.bytes(len(body) - PAGE_SZ - ADDR_SZ)
	s.Source = r.addr()

	return s, nil
}

func decodeAppKeyStatus(op uint8, body []byte) (StatusMsg, error) {
	if err := exactLen(op, body,
		STATUS_SZ+2*KEY_IDX_SZ+ADDR_SZ); err != nil {

		return nil, err
	}

	r := fieldReader{b: body}
	s := &AppKeyStatus{}
	s.Status = r.status()
	s.NetKeyIndex = r.keyIndex()
	s.AppKeyIndex = r.keyIndex()
	s.Source = r.addr()

	return s, nil
}

func decodeModelAppBindStatus(op uint8, body []byte) (StatusMsg, error) {
	mw, err := modelWidth(op, body, STATUS_SZ+KEY_IDX_SZ+2*ADDR_SZ)
	if err != nil {
		return nil, err
	}

	r := fieldReader{b: body}
	s := &ModelAppBindStatus{}
	s.Status = r.status()
	s.AppKeyIndex = r.keyIndex()
	s.ElementAddress = r.addr()
	s.ModelId = r.model(mw)
	s.Source = r.addr()

	return s, nil
}

func decodeModelPublicationStatus(op uint8, body []byte) (StatusMsg, error) {
	mw, err := modelWidth(op, body,
		STATUS_SZ+3*ADDR_SZ+KEY_IDX_SZ+PUB_PARM_SZ)
	if err != nil {
		return nil, err
	}

	r := fieldReader{b: body}
	s := &ModelPublicationStatus{}
	s.Status = r.status()
	s.ElementAddress = r.addr()

	idx := r.u16()
	s.AppKeyIndex = meshdefs.KeyIndex(idx & uint16(meshdefs.KEY_INDEX_MAX))
	s.CredentialFlag = idx&PUB_CREDENTIAL_FLAG != 0

	s.PublishAddress = r.addr()
	s.Ttl = r.u8()
	s.Period = r.u8()
	s.RetransmitCount = r.u8()
	s.RetransmitInterval = r.u8()
	s.ModelId = r.model(mw)
	s.Source = r.addr()

	return s, nil
}

func decodeModelSubscriptionStatus(op uint8, body []byte) (StatusMsg, error) {
	mw, err := modelWidth(op, body, STATUS_SZ+3*ADDR_SZ)
	if err != nil {
		return nil, err
	}

	r := fieldReader{b: body}
	s := &ModelSubscriptionStatus{}
	s.Status = r.status()
	s.ElementAddress = r.addr()
	s.Address = r.addr()
	s.ModelId = r.model(mw)
	s.Source = r.addr()

	return s, nil
}

func decodeNodeResetStatus(op uint8, body []byte) (StatusMsg, error) {
	if err := exactLen(op, body, ADDR_SZ); err != nil {
		return nil, err
	}

	r := fieldReader{b: body}
	return &NodeResetStatus{Source: r.addr()}, nil
}

var statusDecoderMap = map[uint8]statusDecoder{
	OP_COMPOSITION_DATA_STATUS:   decodeCompositionDataStatus,
	OP_APP_KEY_STATUS:            decodeAppKeyStatus,
	OP_MODEL_APP_BIND_STATUS:     decodeModelAppBindStatus,
	OP_MODEL_PUBLICATION_STATUS:  decodeModelPublicationStatus,
	OP_MODEL_SUBSCRIPTION_STATUS: decodeModelSubscriptionStatus,
	OP_NODE_RESET_STATUS:         decodeNodeResetStatus,
}

// Decodes the body of a status message with the specified opcode.
func Decode(op uint8, body []byte) (StatusMsg, error) {
	dec := statusDecoderMap[op]
	if dec == nil {
		return nil, mxutil.NewUnknownOpcodeError(op)
	}

	return dec(op, body)
}

func KnownStatusOpcode(op uint8) bool {
	_, ok := statusDecoderMap[op]
	return ok
}
