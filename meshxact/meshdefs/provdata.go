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
	"encoding/binary"
	"fmt"
)

const (
	PROV_FLAGS_SIZE    = 1
	PROV_IV_INDEX_SIZE = 4
	PROV_DATA_SIZE     = NET_KEY_SIZE + KEY_INDEX_SIZE + PROV_FLAGS_SIZE +
		PROV_IV_INDEX_SIZE + ADDR_SIZE
)

// Data handed to a device during provisioning.  Fields are read-only once
// constructed.
type ProvisioningData struct {
	netKey      [NET_KEY_SIZE]byte
	keyIndex    KeyIndex
	flags       uint8
	ivIndex     uint32
	unicastAddr Address
}

func checkWidth(name string, b []byte, width int) error {
	if len(b) != width {
		return fmt.Errorf("invalid provisioning %s length: have=%d want=%d",
			name, len(b), width)
	}
	return nil
}

func NewProvisioningData(netKey []byte, keyIndex []byte, flags []byte,
	ivIndex []byte, unicastAddr []byte) (ProvisioningData, error) {

	pd := ProvisioningData{}

	if err := checkWidth("net key", netKey, NET_KEY_SIZE); err != nil {
		return pd, err
	}
	if err := checkWidth("key index", keyIndex, KEY_INDEX_SIZE); err != nil {
		return pd, err
	}
	if err := checkWidth("flags", flags, PROV_FLAGS_SIZE); err != nil {
		return pd, err
	}
	if err := checkWidth("iv index", ivIndex, PROV_IV_INDEX_SIZE); err != nil {
		return pd, err
	}
	if err := checkWidth("unicast address", unicastAddr, ADDR_SIZE); err != nil {
		return pd, err
	}

	addr, _ := ParseAddress(unicastAddr)
	if !addr.IsUnicast() {
		return pd, fmt.Errorf("provisioning address %s is not unicast", addr)
	}

	copy(pd.netKey[:], netKey)
	pd.keyIndex = KeyIndex(binary.BigEndian.Uint16(keyIndex))
	pd.flags = flags[0]
	pd.ivIndex = binary.BigEndian.Uint32(ivIndex)
	pd.unicastAddr = addr

	return pd, nil
}

func (pd ProvisioningData) NetKey() []byte {
	k := make([]byte, NET_KEY_SIZE)
	copy(k, pd.netKey[:])
	return k
}

func (pd ProvisioningData) KeyIndex() KeyIndex {
	return pd.keyIndex
}

func (pd ProvisioningData) Flags() uint8 {
	return pd.flags
}

func (pd ProvisioningData) IvIndex() uint32 {
	return pd.ivIndex
}

func (pd ProvisioningData) UnicastAddr() Address {
	return pd.unicastAddr
}

// Encodes the provisioning data in transfer order: net key, key index,
// flags, IV index, unicast address.
func (pd ProvisioningData) Bytes() []byte {
	b := make([]byte, 0, PROV_DATA_SIZE)
	b = append(b, pd.netKey[:]...)
	b = append(b, pd.keyIndex.Bytes()...)
	b = append(b, pd.flags)

	iv := make([]byte, PROV_IV_INDEX_SIZE)
	binary.BigEndian.PutUint32(iv, pd.ivIndex)
	b = append(b, iv...)

	b = append(b, pd.unicastAddr.Bytes()...)
	return b
}
