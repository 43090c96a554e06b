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

package meshble

import (
	"github.com/JuulLabs-OSS/ble"
)

const (
	MESH_PROXY_SVC_UUID      = 0x1828
	MESH_PROXY_DATA_IN_UUID  = 0x2ADD
	MESH_PROXY_DATA_OUT_UUID = 0x2ADE
)

const BLE_ATT_MTU_DFLT = 23

// Write command header: opcode (1) + attribute handle (2).
const WRITE_CMD_BASE_SZ = 3

var (
	proxySvcUuid     = ble.UUID16(MESH_PROXY_SVC_UUID)
	proxyDataInUuid  = ble.UUID16(MESH_PROXY_DATA_IN_UUID)
	proxyDataOutUuid = ble.UUID16(MESH_PROXY_DATA_OUT_UUID)
)

func findChr(profile *ble.Profile, svcUuid ble.UUID,
	chrUuid ble.UUID) *ble.Characteristic {

	for _, s := range profile.Services {
		if !s.UUID.Equal(svcUuid) {
			continue
		}

		for _, c := range s.Characteristics {
			if c.UUID.Equal(chrUuid) {
				return c
			}
		}
	}

	return nil
}

// Matches advertisements from mesh proxy nodes.  If name or addr is
// non-empty, the advertiser must also carry that name or address.
func ProxyAdvFilter(name string, addr string) ble.AdvFilter {
	return func(a ble.Advertisement) bool {
		if addr != "" {
			if a.Addr() == nil || a.Addr().String() != addr {
				return false
			}
		}

		if name != "" && a.LocalName() != name {
			return false
		}

		for _, u := range a.Services() {
			if u.Equal(proxySvcUuid) {
				return true
			}
		}

		// Address-filtered peers are accepted even if the proxy service is
		// missing from the advertisement.
		return addr != ""
	}
}
