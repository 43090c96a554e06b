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

package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"mynewt.apache.org/meshmgr/meshxact/meshble"
	"mynewt.apache.org/meshmgr/meshxact/meshserial"
	"mynewt.apache.org/newt/util"
)

func einvalConnString(f string, args ...interface{}) error {
	suffix := util.FmtNewtError(f, args...).Error()
	return util.FmtNewtError("Invalid connstring; %s", suffix)
}

// Splits "k1=v1,k2=v2" into key-value pairs.  A lone token is reported
// under bareKey.
func parseKeyVals(cs string, bareKey string) ([][2]string, error) {
	var kvs [][2]string

	if strings.TrimSpace(cs) == "" {
		return nil, nil
	}

	for _, p := range strings.Split(cs, ",") {
		kv := strings.SplitN(strings.TrimSpace(p), "=", 2)
		if len(kv) == 1 {
			if bareKey == "" {
				return nil, einvalConnString("missing value for key: %s",
					kv[0])
			}
			kv = []string{bareKey, kv[0]}
		}

		kvs = append(kvs, [2]string{kv[0], kv[1]})
	}

	return kvs, nil
}

// Parses a serial connstring: "dev=/dev/ttyUSB0,baud=115200,mtu=20".  A
// single token is taken as the device path.
func ParseSerialConnString(cs string,
	timeout time.Duration) (*meshserial.XportCfg, error) {

	sc := meshserial.NewXportCfg()
	if timeout != 0 {
		sc.ReadTimeout = timeout
	}

	kvs, err := parseKeyVals(cs, "dev")
	if err != nil {
		return nil, err
	}

	for _, kv := range kvs {
		k, v := kv[0], kv[1]

		switch k {
		case "dev":
			sc.DevPath = v

		case "baud":
			sc.Baud, err = cast.ToIntE(v)
			if err != nil {
				return nil, einvalConnString("Invalid baud: %s", v)
			}

		case "mtu":
			sc.MaxWriteLen, err = cast.ToIntE(v)
			if err != nil || sc.MaxWriteLen < 2 {
				return nil, einvalConnString("Invalid mtu: %s", v)
			}

		case "line_delay_ms":
			ms, err := cast.ToIntE(v)
			if err != nil || ms < 0 {
				return nil, einvalConnString("Invalid line_delay_ms: %s", v)
			}
			sc.LineDelay = time.Duration(ms) * time.Millisecond

		default:
			return nil, einvalConnString("Unrecognized key: %s", k)
		}
	}

	if sc.DevPath == "" {
		return nil, einvalConnString("dev not specified")
	}

	return sc, nil
}

// Parses a BLE connstring:
// "peer_name=lamp,peer_addr=11:22:33:44:55:66,ctlr_name=hci0,mtu=69".
func ParseBleConnString(cs string) (meshble.XportCfg, error) {
	bc := meshble.NewXportCfg()

	kvs, err := parseKeyVals(cs, "")
	if err != nil {
		return bc, err
	}

	for _, kv := range kvs {
		k, v := kv[0], kv[1]

		switch k {
		case "peer_name":
			bc.PeerName = v

		case "peer_addr":
			bc.PeerAddr = strings.ToLower(v)

		case "ctlr_name":
			bc.CtlrName = v

		case "mtu":
			bc.PreferredMtu, err = cast.ToUint16E(v)
			if err != nil || bc.PreferredMtu < meshble.BLE_ATT_MTU_DFLT {
				return bc, einvalConnString("Invalid mtu: %s", v)
			}

		case "conn_tries":
			bc.ConnTries, err = cast.ToIntE(v)
			if err != nil || bc.ConnTries < 1 {
				return bc, einvalConnString("Invalid conn_tries: %s", v)
			}

		case "conn_timeout":
			bc.ConnTimeout, err = cast.ToDurationE(v)
			if err != nil {
				return bc, einvalConnString("Invalid conn_timeout: %s", v)
			}

		default:
			return bc, einvalConnString("Unrecognized key: %s", k)
		}
	}

	return bc, nil
}
