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
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
)

func seqBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	for _, mtu := range []int{2, 3, 5, 20, 23, 64} {
		for _, n := range []int{0, 1, 18, 19, 20, 38, 40, 57, 100} {
			t.Run(fmt.Sprintf("mtu%d_len%d", mtu, n), func(t *testing.T) {
				payload := seqBytes(n)

				chunks, err := Fragment(PDU_TYPE_NETWORK, payload, mtu)
				require.NoError(t, err)

				f, err := Reassemble(chunks)
				require.NoError(t, err)

				assert.Equal(t, PDU_TYPE_NETWORK, f.PduType())
				assert.Equal(t, len(chunks), f.Segments)
				assert.True(t, bytes.Equal(payload, f.Payload()))
			})
		}
	}
}

func TestFramingChoice(t *testing.T) {
	tests := []struct {
		length int
		mtu    int
		chunks int
	}{
		{0, 20, 1},
		{19, 20, 1},
		{20, 20, 2},
		{38, 20, 2},
		{39, 20, 3},
		{40, 20, 3},
	}

	for _, tt := range tests {
		chunks, err := Fragment(PDU_TYPE_NETWORK, seqBytes(tt.length), tt.mtu)
		require.NoError(t, err)
		require.Len(t, chunks, tt.chunks, "len=%d", tt.length)

		for _, c := range chunks {
			assert.True(t, len(c) <= tt.mtu)
		}

		if tt.chunks == 1 {
			assert.Equal(t, SAR_COMPLETE, chunks[0][0]&SAR_MASK)
		} else {
			last := chunks[len(chunks)-1]
			assert.True(t, len(last) > 1, "empty trailing segment")
		}
	}
}

func TestMarkers(t *testing.T) {
	chunks, err := Fragment(PDU_TYPE_NETWORK, seqBytes(100), 10)
	require.NoError(t, err)
	require.Len(t, chunks, 12)

	for i, c := range chunks {
		switch i {
		case 0:
			assert.Equal(t, SAR_FIRST, c[0]&SAR_MASK)
		case len(chunks) - 1:
			assert.Equal(t, SAR_LAST, c[0]&SAR_MASK)
		default:
			assert.Equal(t, SAR_CONT, c[0]&SAR_MASK)
		}
	}
}

// A 40-byte PDU over a 20-byte link splits 19+19+2.
func TestSegmentedPublicationSet(t *testing.T) {
	payload := seqBytes(40)

	chunks, err := Fragment(PDU_TYPE_NETWORK, payload, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, byte(0x40), chunks[0][0])
	assert.Equal(t, byte(0x80), chunks[1][0])
	assert.Equal(t, byte(0xc0), chunks[2][0])

	assert.Equal(t, payload[0:19], chunks[0][1:])
	assert.Equal(t, payload[19:38], chunks[1][1:])
	assert.Equal(t, payload[38:40], chunks[2][1:])
}

func TestTypeBits(t *testing.T) {
	chunks, err := Fragment(PDU_TYPE_PROXY_CFG, seqBytes(30), 20)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, byte(0x42), chunks[0][0])
	assert.Equal(t, byte(0xc2), chunks[1][0])

	f, err := Reassemble(chunks)
	require.NoError(t, err)
	assert.Equal(t, PDU_TYPE_PROXY_CFG, f.PduType())
}

func TestEmptyPayload(t *testing.T) {
	chunks, err := Fragment(PDU_TYPE_NETWORK, nil, 20)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x00}}, chunks)
}

func TestMtuTooSmall(t *testing.T) {
	_, err := Fragment(PDU_TYPE_NETWORK, seqBytes(4), 1)
	assert.True(t, mxutil.IsXportTooLarge(err))
}

func TestResetAfterComplete(t *testing.T) {
	r := NewReassembler()

	first, err := Fragment(PDU_TYPE_NETWORK, bytes.Repeat([]byte{0xaa}, 30),
		20)
	require.NoError(t, err)
	second, err := Fragment(PDU_TYPE_NETWORK, bytes.Repeat([]byte{0xbb}, 25),
		20)
	require.NoError(t, err)

	var frames []*Frame
	for _, c := range append(first, second...) {
		f, err := r.RxFrag(c)
		require.NoError(t, err)
		if f != nil {
			frames = append(frames, f)
		}
	}

	require.Len(t, frames, 2)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 30), frames[0].Payload())
	assert.Equal(t, bytes.Repeat([]byte{0xbb}, 25), frames[1].Payload())
	assert.False(t, r.InProgress())
}

func TestUnexpectedFirst(t *testing.T) {
	r := NewReassembler()

	f, err := r.RxFrag([]byte{0x40, 0x01, 0x02})
	assert.Nil(t, f)
	assert.NoError(t, err)
	assert.True(t, r.InProgress())

	f, err = r.RxFrag([]byte{0x40, 0x0a})
	assert.Nil(t, f)
	require.Error(t, err)
	assert.True(t, mxutil.IsBufferReset(err))

	f, err = r.RxFrag([]byte{0xc0, 0x0b})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, []byte{0x00, 0x0a, 0x0b}, f.Data)
	assert.Equal(t, 2, f.Segments)
}

func TestStraySegments(t *testing.T) {
	r := NewReassembler()

	f, err := r.RxFrag([]byte{0x80, 0x01})
	assert.Nil(t, f)
	assert.NoError(t, err)

	f, err = r.RxFrag([]byte{0xc0, 0x02})
	assert.Nil(t, f)
	assert.NoError(t, err)

	f, err = r.RxFrag(nil)
	assert.Nil(t, f)
	assert.NoError(t, err)

	assert.False(t, r.InProgress())
}

func TestCompleteLeavesBuffer(t *testing.T) {
	r := NewReassembler()

	_, err := r.RxFrag([]byte{0x40, 0x01})
	require.NoError(t, err)

	// A complete PDU in the middle of a reassembly is delivered as is.
	f, err := r.RxFrag([]byte{0x01, 0xee})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, PDU_TYPE_BEACON, f.PduType())
	assert.True(t, r.InProgress())

	f, err = r.RxFrag([]byte{0xc0, 0x02})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, f.Data)

	r.Reset()
	assert.False(t, r.InProgress())
}

func TestReassembleErrors(t *testing.T) {
	_, err := Reassemble([][]byte{{0x40, 0x01}})
	assert.Error(t, err)

	_, err = Reassemble([][]byte{{0x00, 0x01}, {0x00, 0x02}})
	assert.Error(t, err)
}
