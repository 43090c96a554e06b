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
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

// A decoded configuration status message.
type StatusMsg interface {
	Opcode() uint8

	// Address of the node that sent the status.
	Src() meshdefs.Address

	StatusCode() meshdefs.StatusCode
}

type CompositionDataStatus struct {
	Page   uint8            `codec:"page"`
	Data   []byte           `codec:"data"`
	Source meshdefs.Address `codec:"src"`
}

func (s *CompositionDataStatus) Opcode() uint8 {
	return OP_COMPOSITION_DATA_STATUS
}

func (s *CompositionDataStatus) Src() meshdefs.Address {
	return s.Source
}

// Composition data carries no status field; receipt implies success.
func (s *CompositionDataStatus) StatusCode() meshdefs.StatusCode {
	return meshdefs.STATUS_SUCCESS
}

type AppKeyStatus struct {
	Status      meshdefs.StatusCode `codec:"status"`
	NetKeyIndex meshdefs.KeyIndex   `codec:"net_key_index"`
	AppKeyIndex meshdefs.KeyIndex   `codec:"app_key_index"`
	Source      meshdefs.Address    `codec:"src"`
}

func (s *AppKeyStatus) Opcode() uint8 {
	return OP_APP_KEY_STATUS
}

func (s *AppKeyStatus) Src() meshdefs.Address {
	return s.Source
}

func (s *AppKeyStatus) StatusCode() meshdefs.StatusCode {
	return s.Status
}

type ModelAppBindStatus struct {
	Status         meshdefs.StatusCode `codec:"status"`
	AppKeyIndex    meshdefs.KeyIndex   `codec:"app_key_index"`
	ElementAddress meshdefs.Address    `codec:"element"`
	ModelId        meshdefs.ModelId    `codec:"model"`
	Source         meshdefs.Address    `codec:"src"`
}

func (s *ModelAppBindStatus) Opcode() uint8 {
	return OP_MODEL_APP_BIND_STATUS
}

func (s *ModelAppBindStatus) Src() meshdefs.Address {
	return s.Source
}

func (s *ModelAppBindStatus) StatusCode() meshdefs.StatusCode {
	return s.Status
}

type ModelPublicationStatus struct {
	Status             meshdefs.StatusCode `codec:"status"`
	ElementAddress     meshdefs.Address    `codec:"element"`
	AppKeyIndex        meshdefs.KeyIndex   `codec:"app_key_index"`
	CredentialFlag     bool                `codec:"credential_flag"`
	PublishAddress     meshdefs.Address    `codec:"publish_addr"`
	Ttl                uint8               `codec:"ttl"`
	Period             uint8               `codec:"period"`
	RetransmitCount    uint8               `codec:"retransmit_count"`
	RetransmitInterval uint8               `codec:"retransmit_interval"`
	ModelId            meshdefs.ModelId    `codec:"model"`
	Source             meshdefs.Address    `codec:"src"`
}

func (s *ModelPublicationStatus) Opcode() uint8 {
	return OP_MODEL_PUBLICATION_STATUS
}

func (s *ModelPublicationStatus) Src() meshdefs.Address {
	return s.Source
}

func (s *ModelPublicationStatus) StatusCode() meshdefs.StatusCode {
	return s.Status
}

type ModelSubscriptionStatus struct {
	Status         meshdefs.StatusCode `codec:"status"`
	ElementAddress meshdefs.Address    `codec:"element"`
	Address        meshdefs.Address    `codec:"addr"`
	ModelId        meshdefs.ModelId    `codec:"model"`
	Source         meshdefs.Address    `codec:"src"`
}

func (s *ModelSubscriptionStatus) Opcode() uint8 {
	return OP_MODEL_SUBSCRIPTION_STATUS
}

func (s *ModelSubscriptionStatus) Src() meshdefs.Address {
	return s.Source
}

func (s *ModelSubscriptionStatus) StatusCode() meshdefs.StatusCode {
	return s.Status
}

type NodeResetStatus struct {
	Source meshdefs.Address `codec:"src"`
}

func (s *NodeResetStatus) Opcode() uint8 {
	return OP_NODE_RESET_STATUS
}

func (s *NodeResetStatus) Src() meshdefs.Address {
	return s.Source
}

func (s *NodeResetStatus) StatusCode() meshdefs.StatusCode {
	return meshdefs.STATUS_SUCCESS
}
