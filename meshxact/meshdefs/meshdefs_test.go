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

package meshdefs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRanges(t *testing.T) {
	tests := []struct {
		addr    Address
		unicast bool
		virtual bool
		group   bool
	}{
		{0x0000, false, false, false},
		{0x0001, true, false, false},
		{0x7FFF, true, false, false},
		{0x8000, false, true, false},
		{0xBFFF, false, true, false},
		{0xC000, false, false, true},
		{0xFFFF, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			assert.Equal(t, tt.unicast, tt.addr.IsUnicast())
			assert.Equal(t, tt.virtual, tt.addr.IsVirtual())
			assert.Equal(t, tt.group, tt.addr.IsGroup())
		})
	}
}

func TestAddressBytes(t *testing.T) {
	assert.Equal(t, []byte{0x12, 0x34}, Address(0x1234).Bytes())

	a, err := ParseAddress([]byte{0xC0, 0x01})
	require.NoError(t, err)
	assert.Equal(t, Address(0xC001), a)

	_, err = ParseAddress([]byte{0x01})
	assert.Error(t, err)

	a, err = ParseAddressString("0xBEEF")
	require.NoError(t, err)
	assert.Equal(t, Address(0xBEEF), a)

	_, err = ParseAddressString("0x12345")
	assert.Error(t, err)
}

func TestElementAddress(t *testing.T) {
	a, err := ElementAddress(0x0002, 3)
	require.NoError(t, err)
	assert.Equal(t, Address(0x0005), a)

	_, err = ElementAddress(0x7FFE, 2)
	assert.Error(t, err, "element past unicast range")

	_, err = ElementAddress(0xC000, 0)
	assert.Error(t, err, "group base")

	_, err = ElementAddress(0x0001, -1)
	assert.Error(t, err)
}

func TestModelId(t *testing.T) {
	sig := SigModelId(0x1000)
	assert.Equal(t, []byte{0x10, 0x00}, sig.Bytes())
	assert.Equal(t, "1000", sig.String())

	vnd := VendorModelId(0x0059, 0x0001)
	assert.Equal(t, []byte{0x00, 0x59, 0x00, 0x01}, vnd.Bytes())
	assert.Equal(t, "0059:0001", vnd.String())

	m, err := ParseModelId([]byte{0x00, 0x59, 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, vnd, m)

	m, err = ParseModelId([]byte{0x10, 0x00})
	require.NoError(t, err)
	assert.Equal(t, sig, m)

	_, err = ParseModelId([]byte{0x10, 0x00, 0x01})
	assert.Error(t, err)

	m, err = ParseModelIdString("0x0059:0x0001")
	require.NoError(t, err)
	assert.Equal(t, vnd, m)

	m, err = ParseModelIdString(sig.String())
	require.NoError(t, err)
	assert.Equal(t, sig, m)

	_, err = ParseModelIdString("1:2:3")
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", StatusString(STATUS_SUCCESS))
	assert.Equal(t, "cannot_bind", StatusString(STATUS_CANNOT_BIND))
	assert.Equal(t, "???", StatusString(StatusCode(0x7F)))
	assert.True(t, STATUS_SUCCESS.Success())
	assert.False(t, STATUS_INVALID_BINDING.Success())
}

func TestProvisioningData(t *testing.T) {
	netKey := bytes.Repeat([]byte{0xAB}, NET_KEY_SIZE)

	pd, err := NewProvisioningData(netKey, []byte{0x00, 0x01}, []byte{0x02},
		[]byte{0x00, 0x00, 0x00, 0x05}, []byte{0x00, 0x10})
	require.NoError(t, err)

	assert.Equal(t, KeyIndex(1), pd.KeyIndex())
	assert.Equal(t, uint8(2), pd.Flags())
	assert.Equal(t, uint32(5), pd.IvIndex())
	assert.Equal(t, Address(0x0010), pd.UnicastAddr())

	b := pd.Bytes()
	require.Len(t, b, PROV_DATA_SIZE)
	assert.Equal(t, netKey, b[:16])
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x00, 0x00, 0x00, 0x05, 0x00,
		0x10}, b[16:])

	// Mutating the returned key must not alter the record.
	k := pd.NetKey()
	k[0] = 0x00
	assert.Equal(t, byte(0xAB), pd.NetKey()[0])
}

func TestProvisioningDataWidths(t *testing.T) {
	netKey := make([]byte, NET_KEY_SIZE)
	good := [][]byte{netKey, {0, 0}, {0}, {0, 0, 0, 0}, {0, 1}}

	for i := range good {
		args := make([][]byte, len(good))
		copy(args, good)
		args[i] = append(append([]byte{}, good[i]...), 0xFF)

		_, err := NewProvisioningData(args[0], args[1], args[2], args[3],
			args[4])
		assert.Error(t, err, "field %d too long", i)
	}

	_, err := NewProvisioningData(netKey, []byte{0, 0}, []byte{0},
		[]byte{0, 0, 0, 0}, []byte{0xC0, 0x00})
	assert.Error(t, err, "group address")
}
