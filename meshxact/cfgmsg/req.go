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
	"github.com/pkg/errors"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

// A configuration request.  Encode produces the request's fields only; the
// opcode is written by the network layer.
type Request interface {
	Opcode() uint8
	Encode() ([]byte, error)
}

func Encode(req Request) ([]byte, error) {
	return req.Encode()
}

func checkElement(elem meshdefs.Address) error {
	if !elem.IsUnicast() {
		return errors.Errorf("element address %s is not unicast", elem)
	}
	return nil
}

func checkKeyIndex(name string, idx meshdefs.KeyIndex) error {
	if idx > meshdefs.KEY_INDEX_MAX {
		return errors.Errorf("%s %s exceeds 12 bits", name, idx)
	}
	return nil
}

//////////////////////////////////////////////////////////////////////////////
// $composition                                                             //
//////////////////////////////////////////////////////////////////////////////

type CompositionDataGetReq struct {
	Page uint8
}

func (r *CompositionDataGetReq) Opcode() uint8 {
	return OP_COMPOSITION_DATA_GET
}

func (r *CompositionDataGetReq) Encode() ([]byte, error) {
	return []byte{r.Page}, nil
}

//////////////////////////////////////////////////////////////////////////////
// $appkey                                                                  //
//////////////////////////////////////////////////////////////////////////////

type AppKeyAddReq struct {
	NetKeyIndex meshdefs.KeyIndex
	AppKeyIndex meshdefs.KeyIndex
	AppKey      meshdefs.AppKey
}

func (r *AppKeyAddReq) Opcode() uint8 {
	return OP_APP_KEY_ADD
}

func (r *AppKeyAddReq) Encode() ([]byte, error) {
	if err := checkKeyIndex("net key index", r.NetKeyIndex); err != nil {
		return nil, err
	}
	if err := checkKeyIndex("app key index", r.AppKeyIndex); err != nil {
		return nil, err
	}

	b := make([]byte, 0, 2*KEY_IDX_SZ+meshdefs.APP_KEY_SIZE)
	b = append(b, r.NetKeyIndex.Bytes()...)
	b = append(b, r.AppKeyIndex.Bytes()...)
	b = append(b, r.AppKey[:]...)

	return b, nil
}

//////////////////////////////////////////////////////////////////////////////
// $bind                                                                    //
//////////////////////////////////////////////////////////////////////////////

type ModelAppBindReq struct {
	ElementAddress meshdefs.Address
	AppKeyIndex    meshdefs.KeyIndex
	ModelId        meshdefs.ModelId
}

func (r *ModelAppBindReq) Opcode() uint8 {
	return OP_MODEL_APP_BIND
}

func (r *ModelAppBindReq) Encode() ([]byte, error) {
	if err := checkElement(r.ElementAddress); err != nil {
		return nil, err
	}
	if err := checkKeyIndex("app key index", r.AppKeyIndex); err != nil {
		return nil, err
	}

	b := make([]byte, 0, ADDR_SZ+KEY_IDX_SZ+r.ModelId.Len())
	b = append(b, r.ElementAddress.Bytes()...)
	b = append(b, r.AppKeyIndex.Bytes()...)
	b = append(b, r.ModelId.Bytes()...)

	return b, nil
}

//////////////////////////////////////////////////////////////////////////////
// $publication                                                             //
//////////////////////////////////////////////////////////////////////////////

type ModelPublicationSetReq struct {
	ElementAddress     meshdefs.Address
	AppKeyIndex        meshdefs.KeyIndex
	CredentialFlag     bool
	PublishAddress     meshdefs.Address
	Ttl                uint8
	Period             uint8
	RetransmitCount    uint8
	RetransmitInterval uint8
	ModelId            meshdefs.ModelId
}

func (r *ModelPublicationSetReq) Opcode() uint8 {
	return OP_MODEL_PUBLICATION_SET
}

func (r *ModelPublicationSetReq) Encode() ([]byte, error) {
	if err := checkElement(r.ElementAddress); err != nil {
		return nil, err
	}
	if err := checkKeyIndex("app key index", r.AppKeyIndex); err != nil {
		return nil, err
	}

	idx := uint16(r.AppKeyIndex)
	if r.CredentialFlag {
		idx |= PUB_CREDENTIAL_FLAG
	}

	b := make([]byte, 0, 2*ADDR_SZ+KEY_IDX_SZ+PUB_PARM_SZ+r.ModelId.Len())
	b = append(b, r.ElementAddress.Bytes()...)
	b = append(b, meshdefs.KeyIndex(idx).Bytes()...)
	b = append(b, r.PublishAddress.Bytes()...)
	b = append(b, r.Ttl, r.Period, r.RetransmitCount, r.RetransmitInterval)
	b = append(b, r.ModelId.Bytes()...)

	return b, nil
}

//////////////////////////////////////////////////////////////////////////////
// $subscription                                                            //
//////////////////////////////////////////////////////////////////////////////

type ModelSubscriptionAddReq struct {
	ElementAddress meshdefs.Address
	Address        meshdefs.Address
	ModelId        meshdefs.ModelId
}

func (r *ModelSubscriptionAddReq) Opcode() uint8 {
	return OP_MODEL_SUBSCRIPTION_ADD
}

func (r *ModelSubscriptionAddReq) Encode() ([]byte, error) {
	if err := checkElement(r.ElementAddress); err != nil {
		return nil, err
	}
	if r.Address.IsUnassigned() || r.Address.IsUnicast() {
		return nil, errors.Errorf(
			"subscription address %s is not a group or virtual address",
			r.Address)
	}

	b := make([]byte, 0, 2*ADDR_SZ+r.ModelId.Len())
	b = append(b, r.ElementAddress.Bytes()...)
	b = append(b, r.Address.Bytes()...)
	b = append(b, r.ModelId.Bytes()...)

	return b, nil
}

//////////////////////////////////////////////////////////////////////////////
// $reset                                                                   //
//////////////////////////////////////////////////////////////////////////////

type NodeResetReq struct{}

func (r *NodeResetReq) Opcode() uint8 {
	return OP_NODE_RESET
}

func (r *NodeResetReq) Encode() ([]byte, error) {
	return []byte{}, nil
}
