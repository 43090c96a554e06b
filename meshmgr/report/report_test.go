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

package report

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"

	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/xact"
)

func bindStatus() *cfgmsg.ModelAppBindStatus {
	return &cfgmsg.ModelAppBindStatus{
		Status:         meshdefs.STATUS_SUCCESS,
		AppKeyIndex:    1,
		ElementAddress: 0x0002,
		ModelId:        meshdefs.SigModelId(0x1000),
		Source:         0x0002,
	}
}

func TestStatusFields(t *testing.T) {
	assert.Equal(t, []Field{
		{"status", "success (0x00)"},
		{"app_key_index", "0x0001"},
		{"element", "0x0002"},
		{"model", "1000"},
		{"src", "0x0002"},
	}, StatusFields(bindStatus()))

	fields := StatusFields(&cfgmsg.CompositionDataStatus{
		Page:   0,
		Data:   []byte{0xde, 0xad},
		Source: 0x0005,
	})
	assert.Equal(t, []Field{
		{"page", "0"},
		{"data", "dead"},
		{"src", "0x0005"},
	}, fields)
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	ev := NewEvent("lamp", "model_app_bind", xact.Result{Status: bindStatus()},
		now)
	assert.Equal(t, "lamp", ev.Node)
	assert.Equal(t, "2020-01-02T03:04:05Z", ev.Time)
	assert.Equal(t, "success (0x00)", ev.Status)
	assert.Empty(t, ev.Error)
	assert.Equal(t, "0x0002", ev.Fields["element"])

	ev = NewEvent("lamp", "node_reset",
		xact.Result{Err: errors.New("write failed")}, now)
	assert.Equal(t, "unspecified_error (0x10)", ev.Status)
	assert.Equal(t, "write failed", ev.Error)
	assert.Nil(t, ev.Fields)

	b, err := ev.Encode()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t,
		codec.NewDecoderBytes(b, &codec.JsonHandle{}).Decode(&m))
	assert.Equal(t, "node_reset", m["command"])
	assert.Equal(t, "write failed", m["error"])
	_, ok := m["fields"]
	assert.False(t, ok)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type pubMsg struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	err          error
	msgs         []pubMsg
	disconnected bool
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool,
	payload interface{}) mqtt.Token {

	p.msgs = append(p.msgs, pubMsg{topic, qos, payload.([]byte)})
	return newFakeToken(p.err)
}

func (p *fakePublisher) Disconnect(quiesce uint) {
	p.disconnected = true
}

func TestMqttReporter(t *testing.T) {
	pub := &fakePublisher{}
	r := newMqttReporter(pub, "site1", time.Second)

	require.NoError(t, r.Report("lamp", "model_app_bind",
		xact.Result{Status: bindStatus()}))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "site1/lamp/model_app_bind", pub.msgs[0].topic)
	assert.Equal(t, byte(1), pub.msgs[0].qos)

	var ev Event
	require.NoError(t, codec.NewDecoderBytes(pub.msgs[0].payload,
		&codec.JsonHandle{}).Decode(&ev))
	assert.Equal(t, "lamp", ev.Node)
	assert.Equal(t, "1000", ev.Fields["model"])

	pub.err = errors.New("broker gone")
	assert.Error(t, r.Report("lamp", "node_reset", xact.Result{}))

	r.Close()
	assert.True(t, pub.disconnected)
}
