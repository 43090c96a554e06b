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
	"fmt"
)

// Status code carried by every configuration status message.
type StatusCode uint8

const (
	STATUS_SUCCESS                  StatusCode = 0x00
	STATUS_INVALID_ADDRESS          StatusCode = 0x01
	STATUS_INVALID_MODEL            StatusCode = 0x02
	STATUS_INVALID_APP_KEY_INDEX    StatusCode = 0x03
	STATUS_INVALID_NET_KEY_INDEX    StatusCode = 0x04
	STATUS_INSUFFICIENT_RESOURCES   StatusCode = 0x05
	STATUS_KEY_INDEX_ALREADY_STORED StatusCode = 0x06
	STATUS_INVALID_PUBLISH_PARAMS   StatusCode = 0x07
	STATUS_NOT_A_SUBSCRIBE_MODEL    StatusCode = 0x08
	STATUS_STORAGE_FAILURE          StatusCode = 0x09
	STATUS_FEATURE_NOT_SUPPORTED    StatusCode = 0x0A
	STATUS_CANNOT_UPDATE            StatusCode = 0x0B
	STATUS_CANNOT_REMOVE            StatusCode = 0x0C
	STATUS_CANNOT_BIND              StatusCode = 0x0D
	STATUS_TEMPORARILY_UNABLE       StatusCode = 0x0E
	STATUS_CANNOT_SET               StatusCode = 0x0F
	STATUS_UNSPECIFIED_ERROR        StatusCode = 0x10
	STATUS_INVALID_BINDING          StatusCode = 0x11
)

var statusCodeStringMap = map[StatusCode]string{
	STATUS_SUCCESS:                  "success",
	STATUS_INVALID_ADDRESS:          "invalid_address",
	STATUS_INVALID_MODEL:            "invalid_model",
	STATUS_INVALID_APP_KEY_INDEX:    "invalid_app_key_index",
	STATUS_INVALID_NET_KEY_INDEX:    "invalid_net_key_index",
	STATUS_INSUFFICIENT_RESOURCES:   "insufficient_resources",
	STATUS_KEY_INDEX_ALREADY_STORED: "key_index_already_stored",
	STATUS_INVALID_PUBLISH_PARAMS:   "invalid_publish_params",
	STATUS_NOT_A_SUBSCRIBE_MODEL:    "not_a_subscribe_model",
	STATUS_STORAGE_FAILURE:          "storage_failure",
	STATUS_FEATURE_NOT_SUPPORTED:    "feature_not_supported",
	STATUS_CANNOT_UPDATE:            "cannot_update",
	STATUS_CANNOT_REMOVE:            "cannot_remove",
	STATUS_CANNOT_BIND:              "cannot_bind",
	STATUS_TEMPORARILY_UNABLE:       "temporarily_unable",
	STATUS_CANNOT_SET:               "cannot_set",
	STATUS_UNSPECIFIED_ERROR:        "unspecified_error",
	STATUS_INVALID_BINDING:          "invalid_binding",
}

func StatusString(status StatusCode) string {
	s, ok := statusCodeStringMap[status]
	if !ok {
		return "???"
	}

	return s
}

func (s StatusCode) String() string {
	return fmt.Sprintf("%s (0x%02x)", StatusString(s), uint8(s))
}

func (s StatusCode) Success() bool {
	return s == STATUS_SUCCESS
}
