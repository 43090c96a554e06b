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
	"strconv"
	"strings"
)

const ADDR_SIZE = 2

const (
	ADDR_UNASSIGNED  Address = 0x0000
	ADDR_UNICAST_MIN Address = 0x0001
	ADDR_UNICAST_MAX Address = 0x7FFF
	ADDR_VIRTUAL_MIN Address = 0x8000
	ADDR_VIRTUAL_MAX Address = 0xBFFF
	ADDR_GROUP_MIN   Address = 0xC000
	ADDR_GROUP_MAX   Address = 0xFFFF
)

// A 16-bit mesh address.  Always big-endian on the wire.
type Address uint16

func (a Address) IsUnassigned() bool {
	return a == ADDR_UNASSIGNED
}

func (a Address) IsUnicast() bool {
	return a >= ADDR_UNICAST_MIN && a <= ADDR_UNICAST_MAX
}

func (a Address) IsVirtual() bool {
	return a >= ADDR_VIRTUAL_MIN && a <= ADDR_VIRTUAL_MAX
}

func (a Address) IsGroup() bool {
	return a >= ADDR_GROUP_MIN
}

func (a Address) Bytes() []byte {
	b := make([]byte, ADDR_SIZE)
	binary.BigEndian.PutUint16(b, uint16(a))
	return b
}

func (a Address) String() string {
	return fmt.Sprintf("0x%04x", uint16(a))
}

func ParseAddress(b []byte) (Address, error) {
	if len(b) != ADDR_SIZE {
		return 0, fmt.Errorf("invalid mesh address length: %d", len(b))
	}

	return Address(binary.BigEndian.Uint16(b)), nil
}

// Parses a textual address; accepts "0x1234", "1234" (hex) forms.
func ParseAddressString(s string) (Address, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid mesh address: \"%s\"", s)
	}

	return Address(v), nil
}

// Calculates the unicast address of the element at the specified offset
// from a node's primary address.
func ElementAddress(base Address, offset int) (Address, error) {
	if !base.IsUnicast() {
		return 0, fmt.Errorf("node address %s is not unicast", base)
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative element offset: %d", offset)
	}

	v := int(base) + offset
	if v > int(ADDR_UNICAST_MAX) {
		return 0, fmt.Errorf("element address out of unicast range; "+
			"base=%s offset=%d", base, offset)
	}

	return Address(v), nil
}

// Application and network keys are referenced by 2-byte index.
type KeyIndex uint16

const KEY_INDEX_SIZE = 2

// Largest index representable in the 12-bit key index fields.
const KEY_INDEX_MAX KeyIndex = 0x0FFF

func (k KeyIndex) Bytes() []byte {
	b := make([]byte, KEY_INDEX_SIZE)
	binary.BigEndian.PutUint16(b, uint16(k))
	return b
}

func (k KeyIndex) String() string {
	return fmt.Sprintf("0x%04x", uint16(k))
}

const APP_KEY_SIZE = 16
const NET_KEY_SIZE = 16

type AppKey [APP_KEY_SIZE]byte
