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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/meshmgr/meshxact/xact"
)

const testPlan = `
node: lamp
steps:
  - appkey: {net_key_index: 0, app_key_index: 1}
  - bind: {element: 0x0002, app_key_index: 1, model: "1000"}
  - pubset:
      element: 0x0002
      model: "1000"
      address: 0xc000
      app_key_index: 1
      ttl: 7
  - subadd: {element: 0x0003, model: "0059:0001", address: 0xc001}
  - compget: {page: 0}
  - reset: {}
`

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan([]byte(testPlan))
	require.NoError(t, err)
	assert.Equal(t, "lamp", p.Node)
	require.Len(t, p.Steps, 6)

	require.NotNil(t, p.Steps[1].Bind)
	assert.Equal(t, uint16(0x0002), p.Steps[1].Bind.Element)
	assert.Equal(t, "1000", p.Steps[1].Bind.Model)

	pub := p.Steps[2].PubSet
	require.NotNil(t, pub)
	assert.Equal(t, uint16(0xc000), pub.Address)
	require.NotNil(t, pub.Ttl)
	assert.Equal(t, uint8(7), *pub.Ttl)
	assert.Nil(t, pub.Period)

	assert.NotNil(t, p.Steps[5].Reset)
}

func TestParsePlanErrors(t *testing.T) {
	for _, plan := range []string{
		"steps: []",
		"node: lamp\nsteps:\n  - {}\n",
		"node: lamp\nsteps:\n  - reset: {}\n    compget: {}\n",
		"node: [",
	} {
		_, err := ParsePlan([]byte(plan))
		assert.Error(t, err, "plan=%q", plan)
	}
}

func TestBuildSteps(t *testing.T) {
	p, err := ParsePlan([]byte(testPlan))
	require.NoError(t, err)

	st := meshstate.NewMemStore()

	// No key stored for index 1 yet.
	_, err = p.Steps[0].build(st)
	assert.Error(t, err)
	_, err = p.Steps[0].build(nil)
	assert.Error(t, err)

	require.NoError(t, st.PutAppKey(1, meshdefs.AppKey{0x11}))

	names := []string{
		"app_key_add",
		"model_app_bind",
		"model_publication_set",
		"model_subscription_add",
		"composition_get",
		"node_reset",
	}
	for i := range p.Steps {
		c, err := p.Steps[i].build(st)
		require.NoError(t, err)
		assert.Equal(t, names[i], c.Name())
		assert.Equal(t, xact.STATE_IDLE, c.State())
	}
}

func TestBuildStepErrors(t *testing.T) {
	_, err := (&bindStep{Element: 2, AppKeyIndex: 0x1000, Model: "1000"}).build()
	assert.Error(t, err, "key index too large")

	_, err = (&bindStep{Element: 2, AppKeyIndex: 1, Model: "1:2:3"}).build()
	assert.Error(t, err, "bad model")

	_, err = (&appKeyStep{AppKeyIndex: 1, AppKey: "0011"}).build(nil)
	assert.Error(t, err, "short key")

	c, err := (&appKeyStep{
		AppKeyIndex: 1,
		AppKey:      "0x00112233445566778899aabbccddeeff",
	}).build(nil)
	require.NoError(t, err)
	assert.Equal(t, "app_key_add", c.Name())
}

func TestParseAppKey(t *testing.T) {
	k, err := parseAppKey("00112233445566778899aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), k[0])
	assert.Equal(t, byte(0xff), k[15])

	_, err = parseAppKey("zz112233445566778899aabbccddeeff")
	assert.Error(t, err)
}

func TestNewNode(t *testing.T) {
	n, err := newNode("0x0010", "lamp")
	require.NoError(t, err)
	assert.Equal(t, "lamp", n.NodeId)
	assert.Equal(t, meshdefs.Address(0x0010), n.Unicast)

	n, err = newNode("0x0011", "")
	require.NoError(t, err)
	assert.Len(t, n.NodeId, 36)

	_, err = newNode("0xc000", "group")
	assert.Error(t, err)
}

func TestResolveTarget(t *testing.T) {
	dir, err := ioutil.TempDir("", "meshmgr")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	meshutil.StateFile = filepath.Join(dir, "state.json")
	globalStore = nil
	defer func() {
		meshutil.StateFile = ""
		globalStore = nil
	}()

	tgt, err := resolveTarget("0x0002")
	require.NoError(t, err)
	assert.Equal(t, meshdefs.Address(0x0002), tgt.addr)
	assert.Equal(t, "0x0002", tgt.String())

	_, err = resolveTarget("0xc000")
	assert.Error(t, err)

	_, err = resolveTarget("lamp")
	assert.Error(t, err)

	st, err := GetStore()
	require.NoError(t, err)
	require.NoError(t, st.AddNode(meshstate.NewNode("lamp", 0x0004)))

	tgt, err = resolveTarget("lamp")
	require.NoError(t, err)
	assert.Equal(t, "lamp", tgt.String())

	// A command bound to a stored node picks up its address at execution.
	c := xact.NewNodeResetCmd()
	require.NoError(t, tgt.apply(c))
	assert.Equal(t, "node_reset", c.Name())
}

func TestPlanStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "meshmgr")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	globalStore = nil
	defer func() {
		meshutil.StateFile = ""
		globalStore = nil
	}()

	keyless, err := ParsePlan([]byte("node: 0x0002\nsteps:\n" +
		"  - appkey: {net_key_index: 0, app_key_index: 1}\n"))
	require.NoError(t, err)
	tgt, err := resolveTarget(keyless.Node)
	require.NoError(t, err)

	// A directory cannot be read as a state file.
	meshutil.StateFile = dir
	_, err = planStore(keyless, tgt)
	assert.Error(t, err)

	// Addressed plans that carry their keys need no state.
	keyed, err := ParsePlan([]byte("node: 0x0002\nsteps:\n  - reset: {}\n"))
	require.NoError(t, err)
	st, err := planStore(keyed, tgt)
	require.NoError(t, err)
	assert.Nil(t, st)

	meshutil.StateFile = filepath.Join(dir, "state.json")
	st, err = planStore(keyless, tgt)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NoError(t, st.PutAppKey(1, meshdefs.AppKey{0x11}))

	c, err := keyless.Steps[0].build(st)
	require.NoError(t, err)
	assert.Equal(t, "app_key_add", c.Name())
}
