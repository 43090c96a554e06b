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

package cli

import (
	"encoding/hex"
	"io/ioutil"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/meshmgr/meshxact/xact"
	"mynewt.apache.org/newt/util"
)

// A configuration command that can be bound to a target node.
type configurable interface {
	xact.Cmd
	SetDestination(dst meshdefs.Address)
	SetStateStore(st meshstate.Store, nodeId string)
	SetAckDelay(d time.Duration)
}

type compGetStep struct {
	Page uint8 `yaml:"page"`
}

type appKeyStep struct {
	NetKeyIndex uint16 `yaml:"net_key_index"`
	AppKeyIndex uint16 `yaml:"app_key_index"`

	// Hex; if empty, the key is read from the network state.
	AppKey string `yaml:"app_key"`
}

type bindStep struct {
	Element     uint16 `yaml:"element"`
	AppKeyIndex uint16 `yaml:"app_key_index"`
	Model       string `yaml:"model"`
}

type pubSetStep struct {
	Element            uint16 `yaml:"element"`
	Model              string `yaml:"model"`
	Address            uint16 `yaml:"address"`
	AppKeyIndex        uint16 `yaml:"app_key_index"`
	Credential         bool   `yaml:"credential"`
	Ttl                *uint8 `yaml:"ttl"`
	Period             *uint8 `yaml:"period"`
	RetransmitCount    *uint8 `yaml:"retransmit_count"`
	RetransmitInterval *uint8 `yaml:"retransmit_interval"`
}

type subAddStep struct {
	Element uint16 `yaml:"element"`
	Model   string `yaml:"model"`
	Address uint16 `yaml:"address"`
}

type resetStep struct{}

// One operation of a plan.  Exactly one member is set.
type PlanStep struct {
	CompGet *compGetStep `yaml:"compget"`
	AppKey  *appKeyStep  `yaml:"appkey"`
	Bind    *bindStep    `yaml:"bind"`
	PubSet  *pubSetStep  `yaml:"pubset"`
	SubAdd  *subAddStep  `yaml:"subadd"`
	Reset   *resetStep   `yaml:"reset"`
}

// A sequence of configuration operations applied to one node.
type Plan struct {
	Node  string     `yaml:"node"`
	Steps []PlanStep `yaml:"steps"`
}

func ParsePlan(b []byte) (*Plan, error) {
	p := &Plan{}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, util.FmtNewtError("invalid plan: %s", err.Error())
	}

	if p.Node == "" {
		return nil, util.NewNewtError("invalid plan: node not specified")
	}

	for i, s := range p.Steps {
		if s.count() != 1 {
			return nil, util.FmtNewtError(
				"invalid plan: step %d must name exactly one operation", i+1)
		}
	}

	return p, nil
}

func ReadPlan(path string) (*Plan, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	return ParsePlan(b)
}

func (s *PlanStep) count() int {
	n := 0
	for _, set := range []bool{
		s.CompGet != nil,
		s.AppKey != nil,
		s.Bind != nil,
		s.PubSet != nil,
		s.SubAdd != nil,
		s.Reset != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Builds the command for this step.  st supplies AppKeys that the step
// does not carry; it may be nil.
func (s *PlanStep) build(st meshstate.Store) (configurable, error) {
	switch {
	case s.CompGet != nil:
		return s.CompGet.build()
	case s.AppKey != nil:
		return s.AppKey.build(st)
	case s.Bind != nil:
		return s.Bind.build()
	case s.PubSet != nil:
		return s.PubSet.build()
	case s.SubAdd != nil:
		return s.SubAdd.build()
	case s.Reset != nil:
		return xact.NewNodeResetCmd(), nil
	default:
		return nil, util.NewNewtError("empty plan step")
	}
}

func keyIndex(idx uint16) (meshdefs.KeyIndex, error) {
	if meshdefs.KeyIndex(idx) > meshdefs.KEY_INDEX_MAX {
		return 0, util.FmtNewtError("key index out of range: 0x%04x", idx)
	}
	return meshdefs.KeyIndex(idx), nil
}

func modelId(s string) (meshdefs.ModelId, error) {
	m, err := meshdefs.ParseModelIdString(s)
	if err != nil {
		return m, util.ChildNewtError(err)
	}
	return m, nil
}

func parseAppKey(s string) (meshdefs.AppKey, error) {
	var k meshdefs.AppKey

	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(b) != len(k) {
		return k, util.FmtNewtError("invalid app key \"%s\"; "+
			"expected %d hex bytes", s, len(k))
	}

	copy(k[:], b)
	return k, nil
}

func (s *compGetStep) build() (configurable, error) {
	c := xact.NewCompositionGetCmd()
	c.SetPage(s.Page)
	return c, nil
}

func (s *appKeyStep) build(st meshstate.Store) (configurable, error) {
	netIdx, err := keyIndex(s.NetKeyIndex)
	if err != nil {
		return nil, err
	}
	appIdx, err := keyIndex(s.AppKeyIndex)
	if err != nil {
		return nil, err
	}

	var key meshdefs.AppKey
	if s.AppKey != "" {
		key, err = parseAppKey(s.AppKey)
	} else if st != nil {
		key, err = st.AppKey(appIdx)
	} else {
		err = util.FmtNewtError("no app key given for index %s", appIdx)
	}
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	c := xact.NewAppKeyAddCmd()
	c.SetNetKeyIndex(netIdx)
	c.SetAppKeyIndex(appIdx)
	c.SetAppKey(key)
	return c, nil
}

func (s *bindStep) build() (configurable, error) {
	idx, err := keyIndex(s.AppKeyIndex)
	if err != nil {
		return nil, err
	}
	m, err := modelId(s.Model)
	if err != nil {
		return nil, err
	}

	c := xact.NewModelAppBindCmd()
	c.SetElementAddress(meshdefs.Address(s.Element))
	c.SetAppKeyIndex(idx)
	c.SetModelId(m)
	return c, nil
}

func (s *pubSetStep) build() (configurable, error) {
	idx, err := keyIndex(s.AppKeyIndex)
	if err != nil {
		return nil, err
	}
	m, err := modelId(s.Model)
	if err != nil {
		return nil, err
	}

	p := xact.NewPublishParams(meshdefs.Address(s.Address))
	p.AppKeyIndex = idx
	p.CredentialFlag = s.Credential
	if s.Ttl != nil {
		p.Ttl = *s.Ttl
	}
	if s.Period != nil {
		p.Period = *s.Period
	}
	if s.RetransmitCount != nil {
		p.RetransmitCount = *s.RetransmitCount
	}
	if s.RetransmitInterval != nil {
		p.RetransmitInterval = *s.RetransmitInterval
	}

	c := xact.NewModelPublicationSetCmd()
	c.SetElementAddress(meshdefs.Address(s.Element))
	c.SetModelId(m)
	c.SetPublish(p)
	return c, nil
}

func (s *subAddStep) build() (configurable, error) {
	m, err := modelId(s.Model)
	if err != nil {
		return nil, err
	}

	c := xact.NewModelSubscriptionAddCmd()
	c.SetElementAddress(meshdefs.Address(s.Element))
	c.SetModelId(m)
	c.SetAddress(meshdefs.Address(s.Address))
	return c, nil
}
