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

const (
	SIG_MODEL_ID_SIZE    = 2
	VENDOR_MODEL_ID_SIZE = 4
)

// Identifies a model on an element.  SIG models carry a 2-byte identifier;
// vendor models carry a 2-byte company identifier followed by a 2-byte
// model identifier.  The two forms are told apart by encoded length only.
type ModelId struct {
	Vendor    bool
	CompanyId uint16
	Id        uint16
}

func SigModelId(id uint16) ModelId {
	return ModelId{Id: id}
}

func VendorModelId(companyId uint16, id uint16) ModelId {
	return ModelId{
		Vendor:    true,
		CompanyId: companyId,
		Id:        id,
	}
}

func (m ModelId) Len() int {
	if m.Vendor {
		return VENDOR_MODEL_ID_SIZE
	} else {
		return SIG_MODEL_ID_SIZE
	}
}

func (m ModelId) Bytes() []byte {
	b := make([]byte, m.Len())
	if m.Vendor {
		binary.BigEndian.PutUint16(b[0:2], m.CompanyId)
		binary.BigEndian.PutUint16(b[2:4], m.Id)
	} else {
		binary.BigEndian.PutUint16(b, m.Id)
	}

	return b
}

func (m ModelId) String() string {
	if m.Vendor {
		return fmt.Sprintf("%04x:%04x", m.CompanyId, m.Id)
	} else {
		return fmt.Sprintf("%04x", m.Id)
	}
}

func ParseModelId(b []byte) (ModelId, error) {
	switch len(b) {
	case SIG_MODEL_ID_SIZE:
		return SigModelId(binary.BigEndian.Uint16(b)), nil

	case VENDOR_MODEL_ID_SIZE:
		return VendorModelId(
			binary.BigEndian.Uint16(b[0:2]),
			binary.BigEndian.Uint16(b[2:4])), nil

	default:
		return ModelId{}, fmt.Errorf("invalid model id length: %d", len(b))
	}
}

// Parses the output of ModelId.String().  An optional "0x" prefix is
// accepted on each component.
func ParseModelIdString(s string) (ModelId, error) {
	parseComponent := func(c string) (uint16, error) {
		c = strings.TrimPrefix(strings.ToLower(c), "0x")
		v, err := strconv.ParseUint(c, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid model id: \"%s\"", s)
		}
		return uint16(v), nil
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		id, err := parseComponent(parts[0])
		if err != nil {
			return ModelId{}, err
		}
		return SigModelId(id), nil

	case 2:
		cid, err := parseComponent(parts[0])
		if err != nil {
			return ModelId{}, err
		}
		id, err := parseComponent(parts[1])
		if err != nil {
			return ModelId{}, err
		}
		return VendorModelId(cid, id), nil

	default:
		return ModelId{}, fmt.Errorf("invalid model id: \"%s\"", s)
	}
}
