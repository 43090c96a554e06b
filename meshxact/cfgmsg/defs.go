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
	"fmt"
)

// Request opcodes.
const (
	OP_COMPOSITION_DATA_GET   uint8 = 0x10
	OP_MODEL_APP_BIND         uint8 = 0x11
	OP_MODEL_PUBLICATION_SET  uint8 = 0x12
	OP_APP_KEY_ADD            uint8 = 0x13
	OP_MODEL_SUBSCRIPTION_ADD uint8 = 0x14
	OP_NODE_RESET             uint8 = 0x15
	OP_SEGMENT_ACK            uint8 = 0x1f
)

// Status opcodes.  0x00 through 0x02 are never used; those values are proxy
// PDU types.
const (
	OP_MODEL_APP_BIND_STATUS     uint8 = 0x03
	OP_MODEL_PUBLICATION_STATUS  uint8 = 0x04
	OP_APP_KEY_STATUS            uint8 = 0x05
	OP_MODEL_SUBSCRIPTION_STATUS uint8 = 0x06
	OP_NODE_RESET_STATUS         uint8 = 0x07
	OP_COMPOSITION_DATA_STATUS   uint8 = 0x08
)

var opcodeStringMap = map[uint8]string{
	OP_COMPOSITION_DATA_GET:      "composition_data_get",
	OP_MODEL_APP_BIND:            "model_app_bind",
	OP_MODEL_PUBLICATION_SET:     "model_publication_set",
	OP_APP_KEY_ADD:               "app_key_add",
	OP_MODEL_SUBSCRIPTION_ADD:    "model_subscription_add",
	OP_NODE_RESET:                "node_reset",
	OP_SEGMENT_ACK:               "segment_ack",
	OP_COMPOSITION_DATA_STATUS:   "composition_data_status",
	OP_MODEL_APP_BIND_STATUS:     "model_app_bind_status",
	OP_MODEL_PUBLICATION_STATUS:  "model_publication_status",
	OP_APP_KEY_STATUS:            "app_key_status",
	OP_MODEL_SUBSCRIPTION_STATUS: "model_subscription_status",
	OP_NODE_RESET_STATUS:         "node_reset_status",
}

func OpcodeString(op uint8) string {
	s, ok := opcodeStringMap[op]
	if !ok {
		return fmt.Sprintf("0x%02x", op)
	}

	return s
}

// Field widths used by the fixed layouts.
const (
	STATUS_SZ   = 1
	ADDR_SZ     = 2
	KEY_IDX_SZ  = 2
	PUB_PARM_SZ = 4
	PAGE_SZ     = 1
)

// The publication AppKey index field carries the friendship credential flag
// in bit 12.
const PUB_CREDENTIAL_FLAG uint16 = 0x1000
