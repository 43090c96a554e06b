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

package sar

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
)

// Proxy PDU header: the top two bits carry the SAR marker, the low six carry
// the PDU type.
const (
	SAR_COMPLETE uint8 = 0x00
	SAR_FIRST    uint8 = 0x40
	SAR_CONT     uint8 = 0x80
	SAR_LAST     uint8 = 0xc0

	SAR_MASK  uint8 = 0xc0
	TYPE_MASK uint8 = 0x3f
)

const (
	PDU_TYPE_NETWORK   uint8 = 0x00
	PDU_TYPE_BEACON    uint8 = 0x01
	PDU_TYPE_PROXY_CFG uint8 = 0x02
	PDU_TYPE_PROV      uint8 = 0x03
)

func MarkerString(hdr uint8) string {
	switch hdr & SAR_MASK {
	case SAR_COMPLETE:
		return "complete"
	case SAR_FIRST:
		return "first"
	case SAR_CONT:
		return "continuation"
	default:
		return "last"
	}
}

// Splits a PDU into transport chunks no longer than mtu bytes.  A PDU that
// fits in a single write is sent unsegmented as [type][payload].  Otherwise
// each chunk carries a one byte header followed by up to mtu-1 payload
// bytes.
func Fragment(pduType uint8, payload []byte, mtu int) ([][]byte, error) {
	if mtu < 2 {
		return nil, mxutil.NewXportTooLargeError(len(payload)+1, mtu)
	}

	pduType &= TYPE_MASK

	if len(payload)+1 <= mtu {
		chunk := make([]byte, 0, len(payload)+1)
		chunk = append(chunk, SAR_COMPLETE|pduType)
		chunk = append(chunk, payload...)
		return [][]byte{chunk}, nil
	}

	segSz := mtu - 1
	numSegs := (len(payload) + segSz - 1) / segSz

	chunks := make([][]byte, 0, numSegs)
	for off := 0; off < len(payload); off += segSz {
		end := off + segSz
		if end > len(payload) {
			end = len(payload)
		}

		var marker uint8
		switch {
		case off == 0:
			marker = SAR_FIRST
		case end == len(payload):
			marker = SAR_LAST
		default:
			marker = SAR_CONT
		}

		chunk := make([]byte, 0, end-off+1)
		chunk = append(chunk, marker|pduType)
		chunk = append(chunk, payload[off:end]...)
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// A reassembled proxy PDU.  Data[0] is the PDU type.
type Frame struct {
	Data     []byte
	Segments int
}

func (f *Frame) PduType() uint8 {
	return f.Data[0] & TYPE_MASK
}

func (f *Frame) Payload() []byte {
	return f.Data[1:]
}

func (f *Frame) Segmented() bool {
	return f.Segments > 1
}

// Accumulates segmented chunks until a complete PDU is available.  Not safe
// for concurrent use; the owner serializes access.
type Reassembler struct {
	cur    []byte
	segs   int
	active bool
}

func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Processes one inbound chunk.  Returns a frame when the chunk completes a
// PDU; nil otherwise.
//
// A first segment received while a reassembly is in progress discards the
// partial buffer and starts over.  In this case a BufferResetError is
// returned; it is a warning, and the new reassembly continues normally.
// Continuation and last segments received while no reassembly is in
// progress are dropped.
func (r *Reassembler) RxFrag(chunk []byte) (*Frame, error) {
	if len(chunk) == 0 {
		log.Debugf("sar: ignoring empty chunk")
		return nil, nil
	}

	hdr := chunk[0]
	body := chunk[1:]

	switch hdr & SAR_MASK {
	case SAR_COMPLETE:
		data := make([]byte, len(chunk))
		copy(data, chunk)
		return &Frame{Data: data, Segments: 1}, nil

	case SAR_FIRST:
		var err error
		if r.active {
			log.Warnf("sar: first segment during reassembly; "+
				"discarding %d buffered bytes", len(r.cur))
			err = mxutil.NewBufferResetError(len(r.cur))
		}

		r.cur = make([]byte, 0, len(chunk))
		r.cur = append(r.cur, hdr&TYPE_MASK)
		r.cur = append(r.cur, body...)
		r.segs = 1
		r.active = true
		return nil, err

	case SAR_CONT:
		if !r.active {
			log.Debugf("sar: dropping continuation segment; " +
				"no reassembly in progress")
			return nil, nil
		}

		r.cur = append(r.cur, body...)
		r.segs++
		return nil, nil

	default:
		if !r.active {
			log.Debugf("sar: dropping last segment; " +
				"no reassembly in progress")
			return nil, nil
		}

		r.cur = append(r.cur, body...)
		f := &Frame{
			Data:     r.cur,
			Segments: r.segs + 1,
		}
		r.Reset()
		return f, nil
	}
}

// Discards any partially reassembled PDU.
func (r *Reassembler) Reset() {
	r.cur = nil
	r.segs = 0
	r.active = false
}

func (r *Reassembler) InProgress() bool {
	return r.active
}

// Reassembles a complete chunk sequence into one frame.
func Reassemble(chunks [][]byte) (*Frame, error) {
	r := NewReassembler()

	for i, c := range chunks {
		f, err := r.RxFrag(c)
		if err != nil && !mxutil.IsBufferReset(err) {
			return nil, err
		}
		if f != nil {
			if i != len(chunks)-1 {
				return nil, fmt.Errorf("sar: %d chunks follow complete frame",
					len(chunks)-1-i)
			}
			return f, nil
		}
	}

	return nil, fmt.Errorf("sar: incomplete chunk sequence")
}
